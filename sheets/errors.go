package sheets

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotOpen is returned when rows are logged before the session was opened
var ErrNotOpen = errors.New("result logger used before Open")

// LogSyncError represents a rejected header, capacity, or row operation.
// It is fatal for the row being logged, never for the whole suite.
type LogSyncError struct {
	Op  string
	Err error
}

func (e *LogSyncError) Error() string {
	return fmt.Sprintf("sheet %s failed: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *LogSyncError) Unwrap() error {
	return e.Err
}

// IsLogSyncError checks if the error is or wraps a LogSyncError
func IsLogSyncError(err error) bool {
	var syncErr *LogSyncError
	return err != nil && errors.As(err, &syncErr)
}

// KeyCollisionError is returned when distinct labels canonicalize to the same key
type KeyCollisionError struct {
	Key    string
	Labels []string
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("labels %s all map to column key %q", strings.Join(quoteAll(e.Labels), ", "), e.Key)
}

// DuplicateHeaderError is returned when the live header already holds one key in several columns
type DuplicateHeaderError struct {
	Key     string
	Indices []int
}

func (e *DuplicateHeaderError) Error() string {
	return fmt.Sprintf("header key %q appears in columns %v", e.Key, e.Indices)
}

// AcknowledgmentError is returned when the store answers a write with an unexpected shape
type AcknowledgmentError struct {
	Op     string
	Detail string
}

func (e *AcknowledgmentError) Error() string {
	return fmt.Sprintf("unexpected acknowledgment for %s: %s", e.Op, e.Detail)
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
