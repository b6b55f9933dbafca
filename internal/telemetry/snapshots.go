package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/node"
)

// Snapshot is the last known state of a node, kept across restarts.
type Snapshot struct {
	HomeID    uint32    `json:"homeId"`
	NodeID    uint8     `json:"nodeId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsDead    bool      `json:"isDead"`
	LastSync  time.Time `json:"lastSync,omitzero"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnapshotStore keeps the node_snapshots table in step with the registry.
// It is a NodeSink.
type SnapshotStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSnapshotStore creates a store over an open, migrated database.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

// NodeStatus upserts the node's row.
func (s *SnapshotStore) NodeStatus(ctx context.Context, n node.NodeInfo) error {
	var lastSync any
	if !n.LastSync.IsZero() {
		lastSync = n.LastSync.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_snapshots (home_id, node_id, name, type, is_dead, last_sync, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (home_id, node_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			is_dead = excluded.is_dead,
			last_sync = COALESCE(excluded.last_sync, node_snapshots.last_sync),
			updated_at = excluded.updated_at`,
		int64(n.HomeID), int64(n.NodeID), n.Name, n.Type, boolToInt(n.IsDead), lastSync,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot of node %d: %w", n.NodeID, err)
	}
	return nil
}

// NodeRemoved deletes the node's row.
func (s *SnapshotStore) NodeRemoved(ctx context.Context, homeID uint32, nodeID uint8) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM node_snapshots WHERE home_id = ? AND node_id = ?", int64(homeID), int64(nodeID))
	if err != nil {
		return fmt.Errorf("deleting snapshot of node %d: %w", nodeID, err)
	}
	return nil
}

// Get returns one node's snapshot or ErrSnapshotNotFound.
func (s *SnapshotStore) Get(ctx context.Context, homeID uint32, nodeID uint8) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT home_id, node_id, name, type, is_dead, last_sync, updated_at
		FROM node_snapshots WHERE home_id = ? AND node_id = ?`, int64(homeID), int64(nodeID))
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snap, err
}

// List returns every snapshot ordered by home and node id.
func (s *SnapshotStore) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT home_id, node_id, name, type, is_dead, last_sync, updated_at
		FROM node_snapshots ORDER BY home_id, node_id`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(sc scanner) (Snapshot, error) {
	var (
		snap     Snapshot
		homeID   int64
		nodeID   int64
		dead     int64
		lastSync sql.NullString
		updated  string
	)
	if err := sc.Scan(&homeID, &nodeID, &snap.Name, &snap.Type, &dead, &lastSync, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("scanning snapshot: %w", err)
	}
	snap.HomeID = uint32(homeID) // #nosec G115 -- stored from a uint32
	snap.NodeID = uint8(nodeID)  // #nosec G115 -- stored from a uint8
	snap.IsDead = dead != 0
	if lastSync.Valid {
		snap.LastSync, _ = time.Parse(time.RFC3339Nano, lastSync.String) //nolint:errcheck // written by NodeStatus
	}
	snap.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated) //nolint:errcheck // written by NodeStatus
	return snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
