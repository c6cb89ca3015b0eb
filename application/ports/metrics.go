package ports

import "time"

// Metrics records application-level measurements
type Metrics interface {
	RecordEnrichment(kind, outcome string, d time.Duration)
	RecordSave(outcome string, d time.Duration)
	RecordLockRejection(kind string)
}

// NopMetrics discards all measurements
type NopMetrics struct{}

func (NopMetrics) RecordEnrichment(string, string, time.Duration) {}
func (NopMetrics) RecordSave(string, time.Duration)               {}
func (NopMetrics) RecordLockRejection(string)                     {}
