// Package export serializes the lookup audit log into the usage report
// consumed by reporting. Pure read-and-serialize; no decision logic.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/txfh/feesched/internal/model"
)

// EntrySource yields audit entries in report order (lookup_time descending).
type EntrySource interface {
	List(ctx context.Context) ([]model.LookupLogEntry, error)
}

var reportHeader = []string{"lookup_time", "geozip", "code", "modifier", "match_type", "success"}

// WriteUsageReport writes the full audit log to w as CSV. NULL modifiers
// become empty cells; timestamps are RFC3339 UTC.
func WriteUsageReport(ctx context.Context, src EntrySource, w io.Writer) error {
	entries, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("read usage log: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	for _, e := range entries {
		modifier := ""
		if e.Modifier != nil {
			modifier = *e.Modifier
		}
		record := []string{
			e.LookupTime.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.GeoZip, 10),
			e.Code,
			modifier,
			e.MatchType,
			strconv.FormatBool(e.Success),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
