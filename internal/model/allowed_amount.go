package model

// Canonical column names for the typed head of allowed_amounts. Every extract
// must map onto these after header canonicalization; anything beyond them is
// a rate column carried through verbatim.
const (
	ColGeoZip      = "geozip"
	ColCode        = "code"
	ColModifier    = "modifier"
	ColProduct     = "product"
	ColDescription = "description"
)

// CoreColumns returns the fixed leading columns of the serving table, in
// DDL and COPY order.
func CoreColumns() []string {
	return []string{ColGeoZip, ColCode, ColModifier, ColProduct, ColDescription}
}

// AllowedAmountRow is the normalized, DB-ready representation of one extract
// line. Extra holds the verbatim values of the rate columns, in the same
// order as the extract schema's ExtraColumns.
type AllowedAmountRow struct {
	GeoZip      int64
	Code        string
	Modifier    *string
	Product     string
	Description string
	Extra       []string
}

// AllowedAmountColumns returns the ordered column names for COPY into the
// build table: the typed core followed by the extract's rate columns.
func AllowedAmountColumns(extra []string) []string {
	cols := CoreColumns()
	return append(cols, extra...)
}

// CopyValues returns the row values in the same order as
// AllowedAmountColumns, suitable for pgx CopyFromSource.
func (r *AllowedAmountRow) CopyValues() []any {
	vals := make([]any, 0, 5+len(r.Extra))
	vals = append(vals, r.GeoZip, r.Code, r.Modifier, r.Product, r.Description)
	for _, v := range r.Extra {
		vals = append(vals, v)
	}
	return vals
}
