// Package types contains shared types used across the site suite
package types

import (
	"regexp"
	"strings"
)

// AutoEntryPoint is the entry-point token that lets Artemis pick its own entry points
const AutoEntryPoint = "auto"

// TestIDPrefix is prepended to every generated case identifier
const TestIDPrefix = "Test"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Case is one site to be exercised by the analysis tool
type Case struct {
	Name       string
	URL        string
	EntryPoint string
}

// ID returns the generated test identifier for the case.
// Whitespace in the name is removed so the identifier is a single token.
func (c Case) ID() string {
	return TestIDPrefix + whitespaceRun.ReplaceAllString(c.Name, "")
}

// IsAutoEntryPoint reports whether the tool should choose the entry point itself
func (c Case) IsAutoEntryPoint() bool {
	return strings.EqualFold(strings.TrimSpace(c.EntryPoint), AutoEntryPoint)
}

// Button returns the locator expression to pass to the tool, or an empty string
// when the automatic entry points should be used.
func (c Case) Button() string {
	if c.IsAutoEntryPoint() {
		return ""
	}
	return c.EntryPoint
}
