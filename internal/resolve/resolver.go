// Package resolve answers "what is the allowed amount for (geozip, code,
// modifier)?" with a deterministic tiered match policy, and records every
// attempt in the audit log.
package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/txfh/feesched/internal/audit"
	"github.com/txfh/feesched/internal/model"
)

// Request is one lookup key. Modifier nil means the caller never asked for
// a modifier; that is a different audit outcome than a modifier that is not
// on file.
type Request struct {
	GeoZip   int64
	Code     string
	Modifier *string
}

// Resolver evaluates the tier chain against the serving table and appends
// one audit record per valid attempt.
type Resolver struct {
	pool  *pgxpool.Pool
	rec   *audit.Recorder
	log   zerolog.Logger
	tiers []tier
}

// New creates a Resolver with the standard two-tier policy.
func New(pool *pgxpool.Pool, rec *audit.Recorder, log zerolog.Logger) *Resolver {
	return &Resolver{
		pool:  pool,
		rec:   rec,
		log:   log,
		tiers: defaultTiers(),
	}
}

// Lookup resolves one request. The no-match outcome is a normal result
// (Found=false, labeled, logged), not an error. ValidationError is returned
// before any read or write; DataUnavailableError when the serving table is
// missing or the store is unreachable.
func (r *Resolver) Lookup(ctx context.Context, req Request) (*model.Match, error) {
	req.Code = strings.TrimSpace(req.Code)
	if req.Modifier != nil {
		m := strings.TrimSpace(*req.Modifier)
		if m == "" {
			req.Modifier = nil
		} else {
			req.Modifier = &m
		}
	}

	if req.GeoZip <= 0 {
		return nil, &ValidationError{Field: "geozip", Reason: "must be a positive integer"}
	}
	if req.Code == "" {
		return nil, &ValidationError{Field: "code", Reason: "must not be empty"}
	}

	match := &model.Match{MatchType: model.MatchNone}
	for _, t := range r.tiers {
		if !t.applies(req) {
			continue
		}
		fields, err := r.queryTier(ctx, t, req)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		if fields != nil {
			match.Found = true
			match.MatchType = t.label(req)
			match.Fields = fields
			break
		}
	}

	entry := &model.LookupLogEntry{
		LookupTime: time.Now().UTC(),
		GeoZip:     req.GeoZip,
		Code:       req.Code,
		Modifier:   req.Modifier,
		MatchType:  match.MatchType,
		Success:    match.Found,
	}
	if _, err := r.rec.Append(ctx, entry); err != nil {
		return nil, classifyStoreErr(err)
	}

	r.log.Info().
		Int64("geozip", req.GeoZip).
		Str("code", req.Code).
		Str("match_type", match.MatchType).
		Bool("success", match.Found).
		Msg("lookup resolved")

	return match, nil
}

// queryTier runs one tier's point lookup and returns the full row keyed by
// column name, or nil when the tier missed. The column set is dynamic, so
// rows are decoded through the field descriptions rather than a struct.
func (r *Resolver) queryTier(ctx context.Context, t tier, req Request) (map[string]any, error) {
	rows, err := r.pool.Query(ctx, t.sql, t.args(req)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	vals, err := rows.Values()
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(vals))
	for i, fd := range rows.FieldDescriptions() {
		fields[fd.Name] = vals[i]
	}
	return fields, nil
}
