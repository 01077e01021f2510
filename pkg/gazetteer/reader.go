// Package gazetteer reads Census gazetteer text files. Every field is kept as
// a string so zero-padded identifiers such as "00501" survive untouched.
package gazetteer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kass/go-gazetteer/pkg/models"
)

// ErrMissingInput means the source file is absent or could not be parsed at all
var ErrMissingInput = errors.New("missing or unreadable input")

// ErrMissingColumn means the header lacks one of the configured columns
var ErrMissingColumn = errors.New("column not found in header")

const bom = "\uFEFF"

// Columns names the header fields to pull from each row
type Columns struct {
	ID  string
	Lat string
	Lon string
}

// ReadFile opens path, reads it to completion and closes it before returning
func ReadFile(path string, comma rune, cols Columns) ([]models.InputRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open file: %w", ErrMissingInput, err)
	}
	defer file.Close()

	records, err := Read(file, comma, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read parses a delimited stream whose first row is the header.
// Short rows yield empty strings for the absent fields.
func Read(r io.Reader, comma rune, cols Columns) ([]models.InputRecord, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingInput)
		}
		return nil, fmt.Errorf("%w: failed to read header: %w", ErrMissingInput, err)
	}

	idx, err := columnIndexes(header, cols)
	if err != nil {
		return nil, err
	}

	var records []models.InputRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read record: %w", ErrMissingInput, err)
		}

		records = append(records, models.InputRecord{
			Identifier:   field(row, idx[0]),
			LatitudeRaw:  field(row, idx[1]),
			LongitudeRaw: field(row, idx[2]),
		})
	}

	return records, nil
}

// columnIndexes resolves id, lat, lon positions. Header names are compared
// after trimming; Census files pad the last header with trailing blanks.
func columnIndexes(header []string, cols Columns) ([3]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, bom)
		}
		positions[strings.TrimSpace(name)] = i
	}

	var idx [3]int
	for i, want := range []string{cols.ID, cols.Lat, cols.Lon} {
		pos, ok := positions[strings.TrimSpace(want)]
		if !ok {
			return idx, fmt.Errorf("%w: %w %q", ErrMissingInput, ErrMissingColumn, want)
		}
		idx[i] = pos
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
