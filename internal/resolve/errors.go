package resolve

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError reports malformed lookup input. It is raised before any
// read or write; nothing is logged for an invalid request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DataUnavailableError means the canonical store is missing or unreachable,
// including the transient window while a load run replaces the serving
// table. It is surfaced to the caller without retry; the caller is expected
// to trigger a rebuild.
type DataUnavailableError struct {
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("canonical store unavailable: %s", e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// classifyStoreErr maps storage failures onto the error taxonomy. An
// undefined serving table (a load run in flight, or no load ever run) and
// connection-class failures both mean the data is unavailable.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42P01": // undefined_table
			return &DataUnavailableError{Err: err}
		case pgErr.Code == "3D000": // invalid_catalog_name
			return &DataUnavailableError{Err: err}
		case strings.HasPrefix(pgErr.Code, "08"): // connection exception
			return &DataUnavailableError{Err: err}
		case strings.HasPrefix(pgErr.Code, "57"): // operator intervention / shutdown
			return &DataUnavailableError{Err: err}
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &DataUnavailableError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &DataUnavailableError{Err: err}
	}

	return err
}
