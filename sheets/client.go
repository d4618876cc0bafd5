// Package sheets keeps the shared results spreadsheet in step with the rows
// the suite wants to log.
//
// Rows are free-form sets of labelled values. Before a row is appended the
// header row is read fresh, any missing columns are added at the end
// (growing the worksheet first when needed), and only then is the row
// written. Existing columns are never moved or overwritten.
package sheets

import "context"

// HeaderRow is the row number holding the column labels
const HeaderRow = 1

// AppendAck is the store's acknowledgment of an appended row
type AppendAck struct {
	UpdatedRange string
	UpdatedRows  int
}

// TableClient is the narrow capability the logger needs from the remote store.
// Implementations must not cache the header between calls.
type TableClient interface {
	// Header reads row 1 of the worksheet
	Header(ctx context.Context) (Header, error)
	// ColumnCount reads the declared column capacity of the worksheet
	ColumnCount(ctx context.Context) (int, error)
	// ResizeColumns sets the column capacity of the worksheet
	ResizeColumns(ctx context.Context, columns int) error
	// WriteCell writes a single value at the 1-based row and column
	WriteCell(ctx context.Context, row, col int, value string) error
	// AppendRow appends values as a new row; values[i] lands in column i+1
	AppendRow(ctx context.Context, values []string) (AppendAck, error)
	// Close releases the session
	Close() error
}

// Authenticator opens an authenticated session on the remote store
type Authenticator interface {
	Authenticate(ctx context.Context) (TableClient, error)
}
