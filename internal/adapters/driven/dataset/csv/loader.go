// Package csv loads the bulk abbreviation dataset from CSV files.
//
// Each file holds one abbreviation per row: the abbreviation in the first
// column and its meaning in the second. Extra columns are ignored.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DatasetLoader = (*Loader)(nil)

// HeaderCell marks the header row of the published dataset.
const HeaderCell = "Abbreviation/Shorthand"

// ErrNoFiles is returned when the directory contains no CSV files.
var ErrNoFiles = errors.New("no csv files found")

// Loader reads *.csv files from a directory.
type Loader struct{}

// NewLoader creates a CSV dataset loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every *.csv file in dir in lexical order.
func (l *Loader) Load(ctx context.Context, dir string) (*domain.Dataset, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	sort.Strings(files)

	ds := &domain.Dataset{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := readFile(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("dataset %s: %d rows", filepath.Base(path), len(records))

		ds.Files = append(ds.Files, domain.DatasetFile{Name: filepath.Base(path), Rows: len(records)})
		ds.Records = append(ds.Records, records...)
	}
	return ds, nil
}

func readFile(path string) ([]domain.SeedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

// Parse reads seed records from CSV content. Rows with fewer than two
// columns, the header row and rows with a blank cell are skipped.
func Parse(r io.Reader) ([]domain.SeedRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []domain.SeedRecord //nolint:prealloc
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if first && len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], "\ufeff")
		}
		first = false

		if len(row) < 2 {
			continue
		}
		abbr := strings.TrimSpace(row[0])
		meaning := strings.TrimSpace(row[1])
		if abbr == HeaderCell || abbr == "" || meaning == "" {
			continue
		}
		records = append(records, domain.SeedRecord{Keyword: abbr, Definition: meaning})
	}
	return records, nil
}
