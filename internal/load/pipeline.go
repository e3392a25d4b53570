package load

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/txfh/feesched/internal/config"
	"github.com/txfh/feesched/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run executes the full load pipeline: preflight → stage → publish → cleanup.
// The serving table is never left in a partially-transformed state: rows are
// staged into a build table and swapped in within one transaction, so a
// failure at any phase leaves the previous allowed_amounts untouched.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.LoadSummary, error) {
	totalStart := time.Now()

	// Phase 1: Preflight
	log.Info().Str("file", cfg.FilePath).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, log, cfg.FilePath, cfg.Force)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	if pf.AlreadyLoaded {
		log.Info().
			Int64("load_run_id", pf.LoadRunID).
			Str("sha256", pf.FileSHA256).
			Msg("extract already published, skipping (use --force to re-load)")
		return &model.LoadSummary{
			FilePath:      pf.FilePath,
			FileSHA256:    pf.FileSHA256,
			LoadRunID:     pf.LoadRunID,
			AlreadyLoaded: true,
			DurationTotal: time.Since(totalStart),
		}, nil
	}

	// Phase 2: Stage
	log.Info().Msg("starting staging")
	if err := UpdateStatus(ctx, pool, pf.LoadRunID, "staging"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	stageResult, err := Stage(ctx, pool, log, pf)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.LoadRunID, "failed")
		if !cfg.KeepBuild {
			_ = Cleanup(ctx, pool, log)
		}
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	if err := UpdateStatus(ctx, pool, pf.LoadRunID, "staged"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	// Phase 3: Publish (atomic swap)
	log.Info().Msg("publishing")
	publishDur, err := Publish(ctx, pool, log)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.LoadRunID, "failed")
		if !cfg.KeepBuild {
			_ = Cleanup(ctx, pool, log)
		}
		return nil, &PipelineError{Phase: "publish", Err: err}
	}

	if err := FinishLoadRun(ctx, pool, pf.LoadRunID, stageResult.RowsRead, stageResult.RowsLoaded); err != nil {
		return nil, &PipelineError{Phase: "publish", Err: err}
	}

	summary := &model.LoadSummary{
		FilePath:        pf.FilePath,
		FileSHA256:      pf.FileSHA256,
		LoadRunID:       pf.LoadRunID,
		RowsRead:        stageResult.RowsRead,
		RowsLoaded:      stageResult.RowsLoaded,
		DurationStage:   stageResult.Duration,
		DurationPublish: publishDur,
		DurationTotal:   time.Since(totalStart),
	}

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_loaded", summary.RowsLoaded).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("load pipeline complete")

	return summary, nil
}
