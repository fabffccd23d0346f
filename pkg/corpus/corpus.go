// Package corpus loads the raw text documents a training run consumes. Three
// source types are supported: one document per file matched by a glob, one
// column of a CSV file, and one column of a SQLite query. Every loader
// returns documents in a deterministic order, which keeps vocabulary id
// assignment reproducible across runs.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Normalize collapses a document to single-space separated tokens: leading
// and trailing whitespace is dropped and every internal whitespace run,
// newlines included, becomes one space.
func Normalize(doc string) string {
	return strings.Join(strings.Fields(doc), " ")
}

// LoadFiles reads one document per file under dir whose name ends in ext.
// Files are read in sorted path order.
func LoadFiles(dir, ext string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return nil, fmt.Errorf("could not glob corpus files in %s: %w", dir, err)
	}
	sort.Strings(paths)

	docs := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read corpus file %s: %w", path, err)
		}
		docs = append(docs, string(data))
	}
	return docs, nil
}

// LoadCSV reads one document per row from the named column of a CSV file.
// The first row is the header; comma is the field delimiter (0 keeps the
// default ','). Rows appear in file order.
func LoadCSV(path, column string, comma rune) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open corpus csv %s: %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	reader := csv.NewReader(f)
	if comma != 0 {
		reader.Comma = comma
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read csv header of %s: %w", path, err)
	}
	columnIdx := -1
	for i, name := range header {
		if name == column {
			columnIdx = i
			break
		}
	}
	if columnIdx < 0 {
		return nil, fmt.Errorf("csv %s has no column %q", path, column)
	}

	var docs []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read csv record from %s: %w", path, err)
		}
		docs = append(docs, record[columnIdx])
	}
	return docs, nil
}

// LoadSQLite reads one document per row from a SQLite database. The query
// must select a single text column; rows appear in query result order, so a
// query with an ORDER BY clause yields a stable corpus.
func LoadSQLite(path, query string) ([]string, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("could not open corpus database %s: %w", path, err)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("corpus query failed on %s: %w", path, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("could not scan corpus row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
