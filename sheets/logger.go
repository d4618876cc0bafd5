package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/cs-au-dk/artemis-sitesuite/metrics"
	"github.com/cs-au-dk/artemis-sitesuite/types"
)

// SeparatorPlaceholder fills the separator row; completely blank rows cannot be appended
const SeparatorPlaceholder = " "

// ResultLogger appends run records as rows of the results worksheet
type ResultLogger struct {
	auth Authenticator
	log  log.Logger

	mu              sync.Mutex
	client          TableClient
	sync            *Synchronizer
	separatorLogged bool
}

// NewResultLogger creates a logger that opens its session through auth
func NewResultLogger(auth Authenticator, logger log.Logger) *ResultLogger {
	if logger == nil {
		logger = log.Root()
	}
	return &ResultLogger{auth: auth, log: logger}
}

// Open authenticates against the store. It must succeed before Log is used.
func (l *ResultLogger) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return nil
	}
	client, err := l.auth.Authenticate(ctx)
	metrics.RecordSheetOp("authenticate", err)
	if err != nil {
		return fmt.Errorf("failed to open results sheet: %w", err)
	}
	l.client = client
	l.sync = NewSynchronizer(client, l.log)
	l.log.Info("Results sheet opened")
	return nil
}

// Close releases the session. Closing twice is a no-op.
func (l *ResultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil {
		return nil
	}
	err := l.client.Close()
	l.client = nil
	l.sync = nil
	return err
}

// Log appends record as a new row, adding any columns it needs first.
// The first call of the logger's lifetime is preceded by a separator row so
// separate suite runs can be told apart in the sheet.
func (l *ResultLogger) Log(ctx context.Context, record types.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil {
		return ErrNotOpen
	}

	if !l.separatorLogged {
		l.separatorLogged = true
		separator := types.RunRecord{types.LabelTestingRun: SeparatorPlaceholder}
		if err := l.appendRecord(ctx, separator); err != nil {
			return fmt.Errorf("failed to write separator row: %w", err)
		}
	}

	return l.appendRecord(ctx, record)
}

func (l *ResultLogger) appendRecord(ctx context.Context, record types.RunRecord) error {
	columns, values, err := Canonicalize(record)
	if err != nil {
		return &LogSyncError{Op: "canonicalize", Err: err}
	}

	header, err := l.sync.Sync(ctx, columns)
	if err != nil {
		return err
	}

	row, err := layoutRow(header, values)
	if err != nil {
		return &LogSyncError{Op: "append row", Err: err}
	}

	ack, err := l.client.AppendRow(ctx, row)
	metrics.RecordSheetOp("append_row", err)
	if err != nil {
		return &LogSyncError{Op: "append row", Err: err}
	}
	if err := verifyAppend(ack); err != nil {
		return &LogSyncError{Op: "append row", Err: err}
	}

	l.log.Debug("Logged row", "range", ack.UpdatedRange, "columns", len(values))
	return nil
}

// layoutRow places every value in the column its key occupies in header
func layoutRow(header Header, values map[string]string) ([]string, error) {
	row := make([]string, header.MaxIndex())
	for key, value := range values {
		idx, ok := header.Index(key)
		if !ok {
			return nil, fmt.Errorf("column %q missing after header sync", key)
		}
		row[idx-1] = value
	}
	return row, nil
}

func verifyAppend(ack AppendAck) error {
	if ack.UpdatedRange == "" {
		return &AcknowledgmentError{Op: "append row", Detail: "no updated range"}
	}
	if ack.UpdatedRows != 1 {
		return &AcknowledgmentError{Op: "append row", Detail: fmt.Sprintf("%d rows updated, expected 1", ack.UpdatedRows)}
	}
	return nil
}
