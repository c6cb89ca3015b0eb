package services

import (
	"sync"

	"cognitivediary/domain/core/aggregates"
	"cognitivediary/domain/core/valueobjects"
)

// NextID returns one more than the largest numeric id in existing, or "1"
// when there is none. Non-numeric ids are ignored.
func NextID(existing []valueobjects.NodeID) valueobjects.NodeID {
	return valueobjects.NodeIDFromInt(maxNumericID(existing) + 1)
}

func maxNumericID(ids []valueobjects.NodeID) int64 {
	var max int64
	for _, id := range ids {
		if n, ok := id.Numeric(); ok && n > max {
			max = n
		}
	}
	return max
}

// IDAllocator issues node ids for one editing session. It remembers the
// highest id it has handed out so deleting the newest node never frees its
// id for reuse.
type IDAllocator struct {
	mu        sync.Mutex
	highWater int64
}

// NewIDAllocator creates an allocator with no history
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns a fresh id for a node to be added to g
func (a *IDAllocator) Next(g *aggregates.Graph) valueobjects.NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := maxNumericID(g.NodeIDs())
	if a.highWater > n {
		n = a.highWater
	}
	n++
	a.highWater = n
	return valueobjects.NodeIDFromInt(n)
}

// Observe raises the high-water mark to cover every id in g, used after a
// graph is loaded from storage.
func (a *IDAllocator) Observe(g *aggregates.Graph) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := maxNumericID(g.NodeIDs()); n > a.highWater {
		a.highWater = n
	}
}
