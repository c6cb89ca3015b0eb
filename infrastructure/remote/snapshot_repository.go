package remote

import (
	"context"
	"net/http"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/pkg/api"
	pkgerrors "cognitivediary/pkg/errors"

	"go.uber.org/zap"
)

// SnapshotRepository implements ports.SnapshotRepository against
// /save-data and /load-data/{username}
type SnapshotRepository struct {
	client *Client
}

var _ ports.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a remote repository
func NewSnapshotRepository(c *Client) *SnapshotRepository {
	return &SnapshotRepository{client: c}
}

// Save posts the full snapshot
func (r *SnapshotRepository) Save(ctx context.Context, username string, g *aggregates.Graph) (time.Time, error) {
	nodes, edges := api.FromGraph(g)
	var resp api.SaveDataResponse
	err := r.client.do(ctx, http.MethodPost, "/save-data", api.SaveDataRequest{
		Username: username,
		Nodes:    nodes,
		Edges:    edges,
	}, &resp)
	if err != nil {
		return time.Time{}, err
	}
	stamp, err := time.Parse(time.RFC3339Nano, resp.LastUpdated)
	if err != nil {
		return time.Now().UTC(), nil
	}
	return stamp, nil
}

// Load fetches the user's snapshot. A user with nothing stored, or with an
// empty node list, is reported as not found so the session starts from
// the starter graph.
func (r *SnapshotRepository) Load(ctx context.Context, username string) (ports.StoredSnapshot, bool, error) {
	var resp api.LoadDataResponse
	err := r.client.do(ctx, http.MethodGet, "/load-data/"+escape(username), nil, &resp)
	if pkgerrors.IsNotFound(err) {
		return ports.StoredSnapshot{}, false, nil
	}
	if err != nil {
		return ports.StoredSnapshot{}, false, err
	}
	if resp.Empty || len(resp.Nodes) == 0 {
		return ports.StoredSnapshot{}, false, nil
	}

	g, skipped, err := api.ToGraph(resp.Nodes, resp.Edges)
	if err != nil {
		return ports.StoredSnapshot{}, false, pkgerrors.NewNetworkFailure("backend returned an invalid graph", err)
	}
	if len(skipped) > 0 {
		r.client.logger.Warn("Dropped edges with missing endpoints",
			zap.String("username", username),
			zap.Int("count", len(skipped)))
	}
	stamp, _ := time.Parse(time.RFC3339Nano, resp.LastUpdated)
	return ports.StoredSnapshot{Graph: g, LastUpdated: stamp}, true, nil
}
