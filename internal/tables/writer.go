package tables

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Column sets for the two output tables.
var (
	StepColumns = []string{
		"start_date", "end_date", "value", "unit", "source_name",
	}
	WorkoutColumns = []string{
		"activity_type", "start_date", "end_date", "duration_sec",
		"distance", "distance_unit", "energy_kcal", "energy_unit", "source_name",
	}
)

// Writer emits CSV rows incrementally, with transparent gzip compression when
// the path ends in ".gz". The header row is written immediately on creation,
// so even a zero-row table is well-formed. Output is deterministic: the gzip
// header carries no timestamp, and re-running over the same input produces
// byte-identical files.
type Writer struct {
	path string
	file *os.File
	gz   *gzip.Writer
	csv  *csv.Writer
	rows int64
}

// NewWriter creates the output file (and any missing parent directories) and
// writes the header row.
func NewWriter(path string, header []string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &Writer{path: path, file: file}

	var out io.Writer = file
	if strings.HasSuffix(path, ".gz") {
		w.gz = gzip.NewWriter(file)
		out = w.gz
	}
	w.csv = csv.NewWriter(out)

	if err := w.csv.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return w, nil
}

// WriteRow appends one data row.
func (w *Writer) WriteRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written so far (header excluded).
func (w *Writer) Rows() int64 {
	return w.rows
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes all buffered data and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush rows: %w", err)
	}

	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			w.file.Close()
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
