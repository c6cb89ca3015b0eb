// Package sqlite stores graph snapshots in a local single-file database
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/infrastructure/persistence"
	pkgerrors "cognitivediary/pkg/errors"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	username     TEXT PRIMARY KEY,
	document     TEXT NOT NULL,
	node_count   INTEGER NOT NULL,
	edge_count   INTEGER NOT NULL,
	last_updated TEXT NOT NULL,
	revision     INTEGER NOT NULL DEFAULT 1
)`

// Later stamps win; an older writer updates nothing.
const upsert = `INSERT INTO snapshots (username, document, node_count, edge_count, last_updated)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
	document = excluded.document,
	node_count = excluded.node_count,
	edge_count = excluded.edge_count,
	last_updated = excluded.last_updated,
	revision = snapshots.revision + 1
WHERE snapshots.last_updated <= excluded.last_updated`

// SnapshotRepository implements ports.SnapshotRepository on SQLite
type SnapshotRepository struct {
	db     *sql.DB
	clock  ports.Clock
	logger *zap.Logger
}

var _ ports.SnapshotRepository = (*SnapshotRepository)(nil)

// Open opens (creating if needed) the database at path
func Open(ctx context.Context, path string, clock ports.Clock, logger *zap.Logger) (*SnapshotRepository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps the upsert condition race free.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	logger.Info("SQLite snapshot store opened", zap.String("path", path))
	return &SnapshotRepository{db: db, clock: clock, logger: logger}, nil
}

// Close closes the database
func (r *SnapshotRepository) Close() error {
	return r.db.Close()
}

// Save replaces the user's snapshot
func (r *SnapshotRepository) Save(ctx context.Context, username string, g *aggregates.Graph) (time.Time, error) {
	doc, err := persistence.Encode(g)
	if err != nil {
		return time.Time{}, err
	}
	now := r.clock.Now().UTC()

	res, err := r.db.ExecContext(ctx, upsert, username, string(doc), g.NodeCount(), g.EdgeCount(), now.Format(persistence.StampLayout))
	if err != nil {
		return time.Time{}, pkgerrors.NewInternal("failed to save snapshot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, pkgerrors.NewInternal("failed to save snapshot", err)
	}
	if n == 0 {
		return time.Time{}, pkgerrors.NewSaveConflict("a newer snapshot is already stored")
	}
	r.logger.Debug("Snapshot saved", zap.String("username", username), zap.Int("nodes", g.NodeCount()))
	return now, nil
}

// Load reads the user's snapshot
func (r *SnapshotRepository) Load(ctx context.Context, username string) (ports.StoredSnapshot, bool, error) {
	var doc, stamp string
	err := r.db.QueryRowContext(ctx,
		`SELECT document, last_updated FROM snapshots WHERE username = ?`, username).Scan(&doc, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.StoredSnapshot{}, false, nil
	}
	if err != nil {
		return ports.StoredSnapshot{}, false, pkgerrors.NewInternal("failed to load snapshot", err)
	}

	g, err := persistence.Decode([]byte(doc))
	if err != nil {
		return ports.StoredSnapshot{}, false, err
	}
	updated, err := time.Parse(persistence.StampLayout, stamp)
	if err != nil {
		return ports.StoredSnapshot{}, false, fmt.Errorf("snapshot for %s has a bad timestamp: %w", username, err)
	}
	return ports.StoredSnapshot{Graph: g, LastUpdated: updated}, true, nil
}

// Revision returns how many times the user's snapshot has been written
func (r *SnapshotRepository) Revision(ctx context.Context, username string) (int, error) {
	var rev int
	err := r.db.QueryRowContext(ctx, `SELECT revision FROM snapshots WHERE username = ?`, username).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return rev, err
}
