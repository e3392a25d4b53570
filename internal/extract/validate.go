package extract

import (
	"fmt"

	"github.com/txfh/feesched/internal/model"
)

// SchemaError reports a structural prerequisite missing from the extract
// after canonicalization. The run fails before any table is touched.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column: %s", e.Column)
}

// requiredColumns must all be present post-canonicalization. description is
// satisfied by either of its aliases; modifier is optional.
var requiredColumns = []string{
	model.ColProduct,
	model.ColDescription,
	model.ColCode,
	model.ColGeoZip,
}

// ValidateSchema checks that the extract schema contains every required
// column, reporting the first one missing.
func ValidateSchema(s *Schema) error {
	for _, col := range requiredColumns {
		if _, ok := s.Index(col); !ok {
			return &SchemaError{Column: col}
		}
	}
	return nil
}
