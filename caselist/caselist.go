// Package caselist loads the list of sites to test from a three-column CSV file.
//
// The first row is a header and is ignored. Every other row must hold exactly
// a site name, the URL of the form, and an entry point (an XPath expression or
// the word "auto").
package caselist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cs-au-dk/artemis-sitesuite/types"
)

// ColumnsPerRow is the number of fields every row must have
const ColumnsPerRow = 3

// InputError reports a malformed case table. It is fatal: nothing runs.
type InputError struct {
	Path string
	Line int // 0 when the error is not tied to a line
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid case table: %v", e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("invalid case table %s, line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid case table %s: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError checks if the error is or wraps an InputError
func IsInputError(err error) bool {
	var inputErr *InputError
	return err != nil && errors.As(err, &inputErr)
}

// Load reads the case table at path
func Load(path string) ([]types.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: fmt.Errorf("could not open file: %w", err)}
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a case table from r. name is only used in error messages.
func Parse(r io.Reader, name string) ([]types.Case, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // row length is checked below so the error names the line

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputError{Path: name, Err: errors.New("missing header row")}
		}
		return nil, &InputError{Path: name, Line: 1, Err: err}
	}

	var cases []types.Case
	seen := make(map[string]int)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &InputError{Path: name, Line: parseErr.Line, Err: parseErr.Err}
			}
			return nil, &InputError{Path: name, Err: err}
		}
		line, _ := reader.FieldPos(0)
		if len(row) != ColumnsPerRow {
			return nil, &InputError{
				Path: name,
				Line: line,
				Err:  fmt.Errorf("encountered a row with %d columns, expected %d", len(row), ColumnsPerRow),
			}
		}

		c := types.Case{Name: row[0], URL: row[1], EntryPoint: row[2]}
		if strings.TrimSpace(c.Name) == "" {
			return nil, &InputError{Path: name, Line: line, Err: errors.New("site name is empty")}
		}
		if prev, dup := seen[c.ID()]; dup {
			return nil, &InputError{
				Path: name,
				Line: line,
				Err:  fmt.Errorf("site %q has the same identifier %s as line %d", c.Name, c.ID(), prev),
			}
		}
		seen[c.ID()] = line
		cases = append(cases, c)
	}

	return cases, nil
}
