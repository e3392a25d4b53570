// Package audit appends to and reads the lookup_log table. The log is
// append-only: the core never mutates or deletes entries, retention is the
// reporting collaborator's concern.
package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txfh/feesched/internal/model"
	embedsql "github.com/txfh/feesched/internal/sql"
)

// Recorder writes and reads lookup audit records.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder creates a Recorder over the given pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Append inserts one audit record and returns its assigned id.
func (r *Recorder) Append(ctx context.Context, e *model.LookupLogEntry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, embedsql.InsertLookupLog,
		e.LookupTime, e.GeoZip, e.Code, e.Modifier, e.MatchType, e.Success,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append lookup_log: %w", err)
	}
	return id, nil
}

// List returns all audit records ordered by lookup_time descending, the
// order the usage report wants them in.
func (r *Recorder) List(ctx context.Context) ([]model.LookupLogEntry, error) {
	rows, err := r.pool.Query(ctx, embedsql.ListLookupLog)
	if err != nil {
		return nil, fmt.Errorf("list lookup_log: %w", err)
	}
	defer rows.Close()

	var entries []model.LookupLogEntry
	for rows.Next() {
		var e model.LookupLogEntry
		if err := rows.Scan(&e.ID, &e.LookupTime, &e.GeoZip, &e.Code, &e.Modifier, &e.MatchType, &e.Success); err != nil {
			return nil, fmt.Errorf("scan lookup_log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup_log: %w", err)
	}
	return entries, nil
}
