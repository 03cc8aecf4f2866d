package tables

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader streams data rows back out of a table file written by Writer,
// decompressing transparently when the path ends in ".gz". The header row is
// validated against the expected column set on open; a table with the wrong
// shape is a fatal input problem, not a row-level skip.
type Reader struct {
	file *os.File
	gz   *gzip.Reader
	csv  *csv.Reader
}

// OpenReader opens a table file and consumes its header row.
func OpenReader(path string, header []string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}

	r := &Reader{file: file}

	var in io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		r.gz = gz
		in = gz
	}
	r.csv = csv.NewReader(in)

	got, err := r.csv.Read()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !equalHeader(got, header) {
		r.Close()
		return nil, fmt.Errorf("unexpected header %v, want %v", got, header)
	}

	return r, nil
}

// Next returns the next data row. It returns io.EOF at end of file.
// A row that fails CSV parsing is reported as a *csv.ParseError; callers may
// skip it and keep reading.
func (r *Reader) Next() ([]string, error) {
	row, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	return row, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close table file: %w", err)
	}
	return nil
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
