package load

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Cleanup drops a leftover build table from a failed run.
func Cleanup(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	start := time.Now()

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", buildTable)); err != nil {
		return err
	}

	log.Info().Dur("duration", time.Since(start)).Msg("build table cleanup complete")
	return nil
}
