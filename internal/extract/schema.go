package extract

import (
	"fmt"
	"strings"

	"github.com/txfh/feesched/internal/model"
)

// CanonicalColumn rewrites a raw header cell into its canonical form:
// trimmed, lowercased, spaces replaced with underscores, and "%" replaced
// with the literal "th" so percentile-rate headers like "80%" become "80th".
func CanonicalColumn(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "%", "th")
	return s
}

// descriptionAliases is the fixed synonym set for the description column.
// A deliberate lookup table, not fuzzy matching: behavior must be
// deterministic across extracts.
var descriptionAliases = map[string]string{
	"full_description":      model.ColDescription,
	"procedure_description": model.ColDescription,
}

// Schema is the canonicalized column layout of one extract.
type Schema struct {
	// Columns are the canonical, alias-resolved names in extract order.
	Columns []string
	// ExtraColumns are the rate/amount columns beyond the typed core, in
	// extract order. They are carried through to the serving table verbatim.
	ExtraColumns []string

	index map[string]int
}

// NewSchema canonicalizes a raw header row. Duplicate canonical names are an
// error: two raw headers collapsing onto one column would silently drop data.
func NewSchema(header []string) (*Schema, error) {
	s := &Schema{
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	core := make(map[string]bool, 5)
	for _, c := range model.CoreColumns() {
		core[c] = true
	}
	for i, raw := range header {
		name := CanonicalColumn(raw)
		if alias, ok := descriptionAliases[name]; ok {
			name = alias
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q after canonicalization", name)
		}
		s.Columns[i] = name
		s.index[name] = i
		if !core[name] {
			s.ExtraColumns = append(s.ExtraColumns, name)
		}
	}
	return s, nil
}

// Index returns the position of a canonical column name in each record.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Field returns the named column's value from a record, or "" when the
// column is absent.
func (s *Schema) Field(record []string, name string) string {
	i, ok := s.index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
