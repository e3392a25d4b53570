// mkfixture writes a small synthetic fee-schedule extract with the header
// quirks real exports have: mixed casing, stray spaces, percentile columns,
// float-formatted codes, and textual NaN modifiers.
// Usage: go run ./cmd/mkfixture --out internal/extract/testdata/extract-small.csv --rows 8
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
)

func main() {
	out := flag.String("out", "internal/extract/testdata/extract-small.csv", "output CSV")
	rows := flag.Int("rows", 8, "number of data rows")
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Product", "Full Description", "Code", "GeoZip ", "Modifier", "50%", "80%"}
	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "write header: %v\n", err)
		os.Exit(1)
	}

	codes := []string{"99213.0", "99214.0", "0213T", "G0008"}
	modifiers := []string{"", "26", "TC", "nan"}

	for i := 0; i < *rows; i++ {
		code := codes[i%len(codes)]
		record := []string{
			"PPO ",
			fmt.Sprintf("Procedure %d, office visit", i),
			code,
			fmt.Sprintf("%d", 75001+i%7),
			modifiers[i%len(modifiers)],
			fmt.Sprintf("%.2f", 80.0+float64(i)),
			fmt.Sprintf("%.2f", 120.0+float64(i)),
		}
		if err := w.Write(record); err != nil {
			fmt.Fprintf(os.Stderr, "write row: %v\n", err)
			os.Exit(1)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d rows to %s\n", *rows, *out)
}
