package sheets

import (
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var keyStripper = regexp.MustCompile(`[\s:]+`)

// CanonicalKey turns a display label into the restricted key alphabet the
// sheet is matched on: lower case, with all whitespace and colons removed.
func CanonicalKey(label string) string {
	// A Caser is stateful, so one is built per call.
	return keyStripper.ReplaceAllString(cases.Lower(language.Und).String(label), "")
}

// Column is a display label together with its canonical key
type Column struct {
	Key   string
	Label string
}

// Canonicalize maps every label of fields to its canonical key. The returned
// columns are sorted by key. Two labels sharing a key, or a label whose key is
// empty, are rejected since the values would silently land in one column.
func Canonicalize(fields map[string]string) ([]Column, map[string]string, error) {
	labelsByKey := make(map[string]string, len(fields))
	values := make(map[string]string, len(fields))

	for label, value := range fields {
		key := CanonicalKey(label)
		if key == "" {
			return nil, nil, fmt.Errorf("label %q has an empty canonical key", label)
		}
		if other, ok := labelsByKey[key]; ok {
			first, second := other, label
			if second < first {
				first, second = second, first
			}
			return nil, nil, &KeyCollisionError{Key: key, Labels: []string{first, second}}
		}
		labelsByKey[key] = label
		values[key] = value
	}

	columns := make([]Column, 0, len(labelsByKey))
	for key, label := range labelsByKey {
		columns = append(columns, Column{Key: key, Label: label})
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].Key < columns[j].Key })

	return columns, values, nil
}
