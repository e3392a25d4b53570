package load

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Publish swaps the build table in as the serving table and recreates the
// composite lookup index, all within one transaction. DDL is transactional
// in Postgres, so a reader either sees the previous table or the new one,
// never a partial state.
func Publish(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) (time.Duration, error) {
	start := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("publish begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", servingTable)); err != nil {
		return 0, fmt.Errorf("publish drop serving table: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", buildTable, servingTable)); err != nil {
		return 0, fmt.Errorf("publish rename build table: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX %s ON %s (geozip, code, modifier)", lookupIndex, servingTable)); err != nil {
		return 0, fmt.Errorf("publish create index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("publish commit: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf("ANALYZE %s", servingTable)); err != nil {
		return 0, fmt.Errorf("publish analyze: %w", err)
	}

	dur := time.Since(start)
	log.Info().Dur("duration", dur).Msg("publish complete")
	return dur, nil
}
