package load

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/txfh/feesched/internal/db"
	"github.com/txfh/feesched/internal/extract"
	"github.com/txfh/feesched/internal/model"
	"github.com/txfh/feesched/internal/normalize"
	embedsql "github.com/txfh/feesched/internal/sql"
)

const (
	servingTable = "allowed_amounts"
	buildTable   = "allowed_amounts_build"
	lookupIndex  = "idx_allowed_lookup"

	stageChanSize = 1024
)

// StageResult holds metrics from the staging phase.
type StageResult struct {
	RowsRead   int64
	RowsLoaded int64
	Duration   time.Duration
}

// Stage creates a fresh build table shaped by the extract's canonical header,
// then streams rows from the extract, normalizes them, and COPY-loads them
// through a channel-backed CopyFromSource. Any coercion failure aborts the
// whole run; a partially-staged build table is never published.
func Stage(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, pf *PreflightResult) (*StageResult, error) {
	start := time.Now()

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", buildTable)); err != nil {
		return nil, fmt.Errorf("stage drop stale build table: %w", err)
	}
	if _, err := pool.Exec(ctx, buildTableDDL(pf.Schema)); err != nil {
		return nil, fmt.Errorf("stage create build table: %w", err)
	}

	reader, err := extract.Open(pf.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stage open: %w", err)
	}
	defer reader.Close()

	ch := make(chan *model.AllowedAmountRow, stageChanSize)
	errCh := make(chan error, 1)
	done := make(chan struct{})

	var rowsRead int64

	// Producer goroutine: read extract → normalize → push to channel.
	go func() {
		defer close(ch)
		n, err := streamRows(ctx, reader, pf.Schema, ch, done)
		rowsRead = n
		errCh <- err
	}()

	source := db.NewChannelSource(ch)
	rowsLoaded, copyErr := pool.CopyFrom(ctx,
		pgx.Identifier{buildTable},
		model.AllowedAmountColumns(pf.Schema.ExtraColumns),
		source,
	)
	close(done)

	// Wait for the producer to finish before deciding the outcome. A
	// producer failure takes precedence: it is the root cause of any
	// truncated COPY. When the producer stopped because the COPY aborted,
	// it reports nil and the copy error carries the cause.
	if prodErr := <-errCh; prodErr != nil {
		return nil, fmt.Errorf("stage producer: %w", prodErr)
	}
	if copyErr != nil {
		return nil, fmt.Errorf("stage copy: %w", copyErr)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_loaded", rowsLoaded).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(rowsLoaded)/dur.Seconds()).
		Msg("staging complete")

	return &StageResult{
		RowsRead:   rowsRead,
		RowsLoaded: rowsLoaded,
		Duration:   dur,
	}, nil
}

// streamRows reads and normalizes extract records onto ch until the extract
// is exhausted, the context is cancelled, or done closes. done unblocks the
// producer when the COPY consumer stops draining the channel early; that
// path reports no error because the consumer's failure is the root cause.
func streamRows(ctx context.Context, reader *extract.Reader, schema *extract.Schema, ch chan<- *model.AllowedAmountRow, done <-chan struct{}) (int64, error) {
	var rowsRead int64
	for {
		record, rowNum, readErr := reader.Read()
		if readErr == io.EOF {
			return rowsRead, nil
		}
		if readErr != nil {
			return rowsRead, readErr
		}
		rowsRead++

		row, normErr := normalizeRecord(schema, record, rowNum)
		if normErr != nil {
			return rowsRead, normErr
		}

		select {
		case ch <- row:
		case <-ctx.Done():
			return rowsRead, ctx.Err()
		case <-done:
			return rowsRead, nil
		}
	}
}

// buildTableDDL generates the build table DDL: the typed core columns
// followed by one TEXT column per rate column from the extract.
func buildTableDDL(schema *extract.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", buildTable)
	b.WriteString("    geozip      BIGINT NOT NULL,\n")
	b.WriteString("    code        TEXT NOT NULL,\n")
	b.WriteString("    modifier    TEXT,\n")
	b.WriteString("    product     TEXT NOT NULL,\n")
	b.WriteString("    description TEXT NOT NULL")
	for _, col := range schema.ExtraColumns {
		fmt.Fprintf(&b, ",\n    %s TEXT", pgx.Identifier{col}.Sanitize())
	}
	b.WriteString("\n)")
	return b.String()
}

// normalizeRecord coerces one extract record into its canonical row form.
func normalizeRecord(schema *extract.Schema, record []string, rowNum int64) (*model.AllowedAmountRow, error) {
	geozip, err := normalize.GeoZip(model.ColGeoZip, schema.Field(record, model.ColGeoZip), rowNum)
	if err != nil {
		return nil, err
	}

	row := &model.AllowedAmountRow{
		GeoZip:      geozip,
		Code:        normalize.Code(schema.Field(record, model.ColCode)),
		Product:     normalize.Text(schema.Field(record, model.ColProduct)),
		Description: normalize.Text(schema.Field(record, model.ColDescription)),
	}

	// A missing modifier column means every row is a base rate.
	if _, ok := schema.Index(model.ColModifier); ok {
		row.Modifier = normalize.Modifier(schema.Field(record, model.ColModifier))
	}

	row.Extra = make([]string, len(schema.ExtraColumns))
	for i, col := range schema.ExtraColumns {
		row.Extra[i] = schema.Field(record, col)
	}

	return row, nil
}

// UpdateStatus updates the load_runs status.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, loadRunID int64, status string) error {
	_, err := pool.Exec(ctx, embedsql.UpdateLoadRunStatus, loadRunID, status)
	return err
}

// FinishLoadRun marks the run published and records its row counts.
func FinishLoadRun(ctx context.Context, pool *pgxpool.Pool, loadRunID, rowsRead, rowsLoaded int64) error {
	_, err := pool.Exec(ctx, embedsql.FinishLoadRun, loadRunID, rowsRead, rowsLoaded)
	return err
}
