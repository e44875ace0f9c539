// Package sample implements the reproducible CSV subsampling job: read a
// table, draw a seeded uniform subsample, write it back out.
package sample

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// ErrSampleTooLarge indicates a requested sample larger than the input
// table. Nothing is written when this happens.
var ErrSampleTooLarge = errors.New("sample size exceeds available rows")

// Table is a CSV file held in memory: one header row plus data rows. The
// schema passes through the sampler unchanged.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadFile loads the CSV at path. The first record is the header; the csv
// reader enforces a consistent field count across rows.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty, expected a header row", path)
	}

	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// Draw returns a new table holding n rows chosen uniformly at random
// without replacement. The same seed over the same input selects the same
// rows in the same order, so reruns are byte-identical.
func (t *Table) Draw(n int, seed int64) (*Table, error) {
	if n > len(t.Rows) {
		return nil, fmt.Errorf("%w: requested %d of %d", ErrSampleTooLarge, n, len(t.Rows))
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(t.Rows))

	rows := make([][]string, n)
	for i := range rows {
		rows[i] = t.Rows[perm[i]]
	}
	return &Table{Header: t.Header, Rows: rows}, nil
}

// WriteFile serializes the table to path.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// OutputPath builds the timestamp-suffixed output filename inside dir.
func OutputPath(dir, prefix string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102_150405")))
}
