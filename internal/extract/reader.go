package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Reader streams records from a CSV spreadsheet extract. The header row is
// consumed and canonicalized at Open; Read then yields data records in file
// order with their 1-based data row number.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	schema *Schema
	rowNum int64
}

// Open opens an extract file and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extract file: %w", err)
	}

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("extract file is empty")
		}
		return nil, fmt.Errorf("read extract header: %w", err)
	}

	schema, err := NewSchema(header)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{file: f, csv: cr, schema: schema}, nil
}

// Schema returns the canonicalized column layout.
func (r *Reader) Schema() *Schema {
	return r.schema
}

// Read returns the next data record and its row number, or io.EOF when the
// extract is exhausted.
func (r *Reader) Read() ([]string, int64, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, r.rowNum, io.EOF
	}
	if err != nil {
		return nil, r.rowNum, fmt.Errorf("read extract row %d: %w", r.rowNum+1, err)
	}
	r.rowNum++
	return record, r.rowNum, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
