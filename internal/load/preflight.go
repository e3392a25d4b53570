package load

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/txfh/feesched/internal/extract"
	"github.com/txfh/feesched/internal/normalize"
	embedsql "github.com/txfh/feesched/internal/sql"
)

// PreflightResult holds all context resolved during the preflight phase.
type PreflightResult struct {
	// FilePath is the original path passed to Preflight, stored as-is.
	FilePath string
	// FileSHA256 is the hex-encoded SHA-256 digest of the extract.
	FileSHA256 string
	// FileSize is the file size in bytes from os.Stat.
	FileSize int64
	// LoadRunID is the DB primary key for this run, inserted or looked up
	// via the extract's sha256.
	LoadRunID int64
	// BatchID is a freshly generated UUIDv4 identifying this run in logs
	// and the load_runs registry.
	BatchID uuid.UUID
	// Schema is the canonicalized, alias-resolved column layout.
	Schema *extract.Schema
	// AlreadyLoaded is true when this sha256 was already published and
	// force mode is off, signaling the pipeline can skip the extract.
	AlreadyLoaded bool
}

// Preflight hashes the extract, canonicalizes and validates its header, and
// registers the load run. Schema drift fails here, before any table is
// touched.
func Preflight(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, filePath string, force bool) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	reader, err := extract.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight open: %w", err)
	}
	defer reader.Close()

	if err := extract.ValidateSchema(reader.Schema()); err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}

	log.Info().
		Str("file", filepath.Base(filePath)).
		Str("sha256", sha).
		Int("columns", len(reader.Schema().Columns)).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	batchID := uuid.New()
	loadRunID, alreadyLoaded, err := registerLoadRun(ctx, pool, filePath, sha, stat.Size(), batchID, force)
	if err != nil {
		return nil, fmt.Errorf("preflight register run: %w", err)
	}

	return &PreflightResult{
		FilePath:      filePath,
		FileSHA256:    sha,
		FileSize:      stat.Size(),
		LoadRunID:     loadRunID,
		BatchID:       batchID,
		Schema:        reader.Schema(),
		AlreadyLoaded: alreadyLoaded,
	}, nil
}

func registerLoadRun(ctx context.Context, pool *pgxpool.Pool, filePath, sha string, fileSize int64, batchID uuid.UUID, force bool) (int64, bool, error) {
	var loadRunID int64
	err := pool.QueryRow(ctx, embedsql.RegisterLoadRun,
		filepath.Base(filePath), sha, fileSize, batchID,
	).Scan(&loadRunID)

	if err == pgx.ErrNoRows {
		// Already registered (ON CONFLICT DO NOTHING returned no rows).
		var status string
		if err2 := pool.QueryRow(ctx, embedsql.LookupLoadRun, sha).Scan(&loadRunID, &status); err2 != nil {
			return 0, false, fmt.Errorf("lookup existing load_run: %w", err2)
		}

		if !force && status == "published" {
			return loadRunID, true, nil
		}

		if _, err3 := pool.Exec(ctx, embedsql.ResetLoadRun, loadRunID, batchID); err3 != nil {
			return 0, false, fmt.Errorf("reset load_run: %w", err3)
		}
		return loadRunID, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("register load_run: %w", err)
	}

	return loadRunID, false, nil
}
