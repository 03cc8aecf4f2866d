package tables

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTable(t *testing.T, path string, header []string, rows [][]string) {
	t.Helper()

	w, err := NewWriter(path, header)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("Failed to write row: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
}

func readAll(t *testing.T, path string, header []string) [][]string {
	t.Helper()

	r, err := OpenReader(path, header)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer r.Close()

	var rows [][]string
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read row: %v", err)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestWriterReaderRoundTrip(t *testing.T) {
	header := []string{"date", "value", "source"}
	rows := [][]string{
		{"2023-10-05", "604", "iPhone"},
		{"2023-10-05", "912", "Watch"},
		{"2023-10-06", "1200", "iPhone"},
	}

	for _, name := range []string{"steps.csv", "steps.csv.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			writeTable(t, path, header, rows)

			got := readAll(t, path, header)
			if len(got) != len(rows) {
				t.Fatalf("Expected %d rows, got %d", len(rows), len(got))
			}
			for i := range rows {
				for j := range rows[i] {
					if got[i][j] != rows[i][j] {
						t.Errorf("Row %d field %d: expected %q, got %q", i, j, rows[i][j], got[i][j])
					}
				}
			}
		})
	}
}

func TestWriterEmptyTableHasHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	writeTable(t, path, []string{"a", "b"}, nil)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("Expected header-only file, got %q", string(data))
	}

	if rows := readAll(t, path, []string{"a", "b"}); len(rows) != 0 {
		t.Errorf("Expected 0 rows, got %d", len(rows))
	}
}

func TestWriterOutputIsDeterministic(t *testing.T) {
	header := []string{"date", "value"}
	rows := [][]string{
		{"2023-10-05", "604"},
		{"2023-10-06", "912"},
	}

	for _, name := range []string{"out.csv", "out.csv.gz"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			first := filepath.Join(dir, "first-"+name)
			second := filepath.Join(dir, "second-"+name)
			writeTable(t, first, header, rows)
			writeTable(t, second, header, rows)

			a, err := os.ReadFile(first)
			if err != nil {
				t.Fatalf("Failed to read first file: %v", err)
			}
			b, err := os.ReadFile(second)
			if err != nil {
				t.Fatalf("Failed to read second file: %v", err)
			}
			if !bytes.Equal(a, b) {
				t.Error("Expected byte-identical output from identical runs")
			}
		})
	}
}

func TestWriterCountsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.csv")
	w, err := NewWriter(path, []string{"x"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := w.WriteRow([]string{"row"}); err != nil {
			t.Fatalf("Failed to write row: %v", err)
		}
	}

	if w.Rows() != 5 {
		t.Errorf("Expected 5 rows counted, got %d", w.Rows())
	}
}

func TestReaderRejectsWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.csv")
	writeTable(t, path, []string{"a", "b"}, nil)

	if _, err := OpenReader(path, []string{"a", "b", "c"}); err == nil {
		t.Error("Expected error for mismatched header")
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := OpenReader(filepath.Join(t.TempDir(), "nope.csv"), []string{"a"}); err == nil {
		t.Error("Expected error for missing file")
	}
}
