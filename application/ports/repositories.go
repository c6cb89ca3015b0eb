package ports

import (
	"context"
	"time"

	"cognitivediary/domain/core/aggregates"
)

// StoredSnapshot is a graph as last saved for a user
type StoredSnapshot struct {
	Graph       *aggregates.Graph
	LastUpdated time.Time
}

// SnapshotRepository persists one graph per user. Load returns
// found=false, without error, for a user who has never saved.
type SnapshotRepository interface {
	Save(ctx context.Context, username string, graph *aggregates.Graph) (time.Time, error)
	Load(ctx context.Context, username string) (snapshot StoredSnapshot, found bool, err error)
}
