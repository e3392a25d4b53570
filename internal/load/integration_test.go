package load_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txfh/feesched/internal/config"
	"github.com/txfh/feesched/internal/db"
	"github.com/txfh/feesched/internal/extract"
	"github.com/txfh/feesched/internal/load"
	"github.com/txfh/feesched/internal/logging"
	"github.com/txfh/feesched/internal/normalize"
)

const (
	testPort     = 15432
	testDB       = "feeschedtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	runtimeDir, err := os.MkdirTemp("", "feesched-load-pg")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkdtemp: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(runtimeDir)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(testPort).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			RuntimePath(runtimeDir).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB creates a connection pool against a clean schema.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, table := range []string{"allowed_amounts", "allowed_amounts_build", "lookup_log", "load_runs"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			t.Fatalf("drop %s: %v", table, err)
		}
	}

	if err := db.ApplyMigrations(ctx, pool, logging.Discard()); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func writeExtract(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write extract: %v", err)
	}
	return path
}

const goodExtract = "Product,Full Description,Code,GeoZip ,Modifier,50%,80%\n" +
	" PPO ,Office visit level 3,99213.0,75001,,80.00,120.00\n" +
	"PPO,Office visit level 4,99214.0,75001,,95.00,140.00\n" +
	"PPO,Office visit level 4,99214.0,75001,26,45.00,70.00\n" +
	"PPO,Vaccine admin,G0008,75002,nan,18.50,25.00\n"

func runLoad(t *testing.T, pool *pgxpool.Pool, path string, force bool) error {
	t.Helper()
	cfg := &config.Config{DSN: testDSN, FilePath: path, Force: force}
	_, err := load.Run(context.Background(), pool, logging.Discard(), cfg)
	return err
}

func TestLoadPipeline(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	path := writeExtract(t, goodExtract)

	cfg := &config.Config{DSN: testDSN, FilePath: path}
	summary, err := load.Run(ctx, pool, logging.Discard(), cfg)
	if err != nil {
		t.Fatalf("load.Run: %v", err)
	}

	t.Run("summary_metrics", func(t *testing.T) {
		if summary.RowsRead != 4 {
			t.Errorf("RowsRead = %d, want 4", summary.RowsRead)
		}
		if summary.RowsLoaded != 4 {
			t.Errorf("RowsLoaded = %d, want 4", summary.RowsLoaded)
		}
		if summary.AlreadyLoaded {
			t.Error("fresh extract reported as already loaded")
		}
	})

	t.Run("row_count", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM allowed_amounts").Scan(&count); err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 4 {
			t.Errorf("serving rows = %d, want 4", count)
		}
	})

	t.Run("code_stored_as_text", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx,
			"SELECT count(*) FROM allowed_amounts WHERE code = '99213'").Scan(&count); err != nil {
			t.Fatalf("query: %v", err)
		}
		if count != 1 {
			t.Errorf("code 99213 rows = %d; .0 artifact not stripped?", count)
		}
		if err := pool.QueryRow(ctx,
			"SELECT count(*) FROM allowed_amounts WHERE code LIKE '%.0'").Scan(&count); err != nil {
			t.Fatalf("query: %v", err)
		}
		if count != 0 {
			t.Errorf("%d codes still carry the .0 artifact", count)
		}
	})

	t.Run("empty_and_nan_modifiers_are_null", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx,
			"SELECT count(*) FROM allowed_amounts WHERE modifier IS NULL").Scan(&count); err != nil {
			t.Fatalf("query: %v", err)
		}
		if count != 3 {
			t.Errorf("NULL-modifier rows = %d, want 3", count)
		}
	})

	t.Run("product_trimmed", func(t *testing.T) {
		var product string
		if err := pool.QueryRow(ctx,
			"SELECT product FROM allowed_amounts WHERE code = '99213'").Scan(&product); err != nil {
			t.Fatalf("query: %v", err)
		}
		if product != "PPO" {
			t.Errorf("product = %q, want trimmed PPO", product)
		}
	})

	t.Run("rate_columns_verbatim", func(t *testing.T) {
		var rate string
		if err := pool.QueryRow(ctx,
			`SELECT "80th" FROM allowed_amounts WHERE code = '99213'`).Scan(&rate); err != nil {
			t.Fatalf("query: %v", err)
		}
		if rate != "120.00" {
			t.Errorf("80th = %q, want 120.00", rate)
		}
	})

	t.Run("lookup_index_created", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx,
			"SELECT count(*) FROM pg_indexes WHERE tablename = 'allowed_amounts' AND indexname = 'idx_allowed_lookup'").Scan(&count); err != nil {
			t.Fatalf("query: %v", err)
		}
		if count != 1 {
			t.Error("composite lookup index missing")
		}
	})

	t.Run("load_run_published", func(t *testing.T) {
		var status string
		var rowsLoaded int64
		if err := pool.QueryRow(ctx,
			"SELECT status, rows_loaded FROM load_runs").Scan(&status, &rowsLoaded); err != nil {
			t.Fatalf("query: %v", err)
		}
		if status != "published" || rowsLoaded != 4 {
			t.Errorf("load_run status=%q rows_loaded=%d", status, rowsLoaded)
		}
	})
}

func TestLoad_Idempotent(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	path := writeExtract(t, goodExtract)

	snapshot := func() []string {
		rows, err := pool.Query(ctx,
			`SELECT geozip, code, coalesce(modifier, '<null>'), product, "50th", "80th" FROM allowed_amounts`)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		defer rows.Close()
		var out []string
		for rows.Next() {
			var geozip int64
			var code, modifier, product, p50, p80 string
			if err := rows.Scan(&geozip, &code, &modifier, &product, &p50, &p80); err != nil {
				t.Fatalf("scan: %v", err)
			}
			out = append(out, fmt.Sprintf("%d|%s|%s|%s|%s|%s", geozip, code, modifier, product, p50, p80))
		}
		sort.Strings(out)
		return out
	}

	if err := runLoad(t, pool, path, false); err != nil {
		t.Fatalf("first load: %v", err)
	}
	first := snapshot()

	if err := runLoad(t, pool, path, true); err != nil {
		t.Fatalf("second load: %v", err)
	}
	second := snapshot()

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d differs:\n  first:  %s\n  second: %s", i, first[i], second[i])
		}
	}
}

func TestLoad_AlreadyLoadedSkip(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	path := writeExtract(t, goodExtract)

	if err := runLoad(t, pool, path, false); err != nil {
		t.Fatalf("first load: %v", err)
	}

	cfg := &config.Config{DSN: testDSN, FilePath: path}
	summary, err := load.Run(ctx, pool, logging.Discard(), cfg)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !summary.AlreadyLoaded {
		t.Error("re-load of published extract should be skipped without --force")
	}
}

func TestLoad_SchemaDriftFailsPreflight(t *testing.T) {
	pool := setupDB(t)
	path := writeExtract(t, "Full Description,Code,GeoZip\nOffice visit,99213,75001\n")

	err := runLoad(t, pool, path, false)
	if err == nil {
		t.Fatal("expected preflight failure for missing product column")
	}

	var pe *load.PipelineError
	if !errors.As(err, &pe) || pe.Phase != "preflight" {
		t.Fatalf("got %v, want preflight PipelineError", err)
	}
	var se *extract.SchemaError
	if !errors.As(err, &se) || se.Column != "product" {
		t.Errorf("got %v, want SchemaError naming product", err)
	}
}

func TestLoad_CoercionFailureKeepsPreviousTable(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	if err := runLoad(t, pool, writeExtract(t, goodExtract), false); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	bad := "Product,Full Description,Code,GeoZip,Modifier,80%\n" +
		"PPO,Broken row,99213,not-a-zip,,120.00\n"
	err := runLoad(t, pool, writeExtract(t, bad), false)
	if err == nil {
		t.Fatal("expected stage failure for non-numeric geozip")
	}

	var pe *load.PipelineError
	if !errors.As(err, &pe) || pe.Phase != "stage" {
		t.Fatalf("got %v, want stage PipelineError", err)
	}
	var tce *normalize.TypeConversionError
	if !errors.As(err, &tce) {
		t.Fatalf("got %v, want TypeConversionError", err)
	}

	// The previous serving table must remain fully intact.
	var count int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM allowed_amounts").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 4 {
		t.Errorf("serving rows after failed load = %d, want 4", count)
	}

	// And the failed run must not leave a build table behind.
	var buildExists bool
	if err := pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_tables WHERE tablename = 'allowed_amounts_build')").Scan(&buildExists); err != nil {
		t.Fatalf("query: %v", err)
	}
	if buildExists {
		t.Error("build table left behind after failed run")
	}
}

func TestLoad_NoModifierColumn(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	noMod := "Product,Procedure Description,Code,GeoZip,80%\n" +
		"HMO,Office visit,99213,75001,110.00\n"
	if err := runLoad(t, pool, writeExtract(t, noMod), false); err != nil {
		t.Fatalf("load: %v", err)
	}

	var nullCount int64
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM allowed_amounts WHERE modifier IS NULL").Scan(&nullCount); err != nil {
		t.Fatalf("query: %v", err)
	}
	if nullCount != 1 {
		t.Errorf("rows with NULL modifier = %d, want 1", nullCount)
	}
}
