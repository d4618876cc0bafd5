package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/artemis-sitesuite/types"
)

func openLogger(t *testing.T, table *memoryTable) *ResultLogger {
	t.Helper()
	l := NewResultLogger(&staticAuth{client: table}, nil)
	require.NoError(t, l.Open(context.Background()))
	return l
}

func TestResultLoggerRequiresOpen(t *testing.T) {
	l := NewResultLogger(&staticAuth{client: newMemoryTable(1)}, nil)
	err := l.Log(context.Background(), record(map[string]string{"Site": "x"}))
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestResultLoggerOpenFailure(t *testing.T) {
	auth := &staticAuth{err: errors.New("bad credentials")}
	l := NewResultLogger(auth, nil)

	err := l.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
	assert.ErrorIs(t, l.Log(context.Background(), types.NewRunRecord()), ErrNotOpen)
}

func TestResultLoggerOpenAndCloseAreIdempotent(t *testing.T) {
	table := newMemoryTable(1)
	auth := &staticAuth{client: table}
	l := NewResultLogger(auth, nil)

	require.NoError(t, l.Open(context.Background()))
	require.NoError(t, l.Open(context.Background()))
	assert.Equal(t, 1, auth.calls)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	assert.Equal(t, 1, table.closed)
}

func TestResultLoggerWritesSeparatorOnce(t *testing.T) {
	table := newMemoryTable(0)
	l := openLogger(t, table)
	ctx := context.Background()

	require.NoError(t, l.Log(ctx, record(map[string]string{"Site": "a", "Exit Code": "0"})))
	require.NoError(t, l.Log(ctx, record(map[string]string{"Site": "b", "Exit Code": "1"})))

	require.Len(t, table.rows, 3)
	assert.Equal(t, SeparatorPlaceholder, table.cell(0, types.LabelTestingRun))
	assert.Equal(t, "", table.cell(0, types.LabelSite))
	assert.Equal(t, "a", table.cell(1, types.LabelSite))
	assert.Equal(t, "1", table.cell(2, types.LabelExitCode))
	assert.Equal(t, []string{types.LabelTestingRun, types.LabelExitCode, types.LabelSite}, table.header)
}

func TestResultLoggerAddsColumnsWithoutReordering(t *testing.T) {
	table := newMemoryTable(3, "Testing Run", "URL", "Site")
	l := openLogger(t, table)

	rec := record(map[string]string{
		"site":             "example",
		"URL":              "http://example.com",
		"Concolic::\nTime": "12",
	})
	require.NoError(t, l.Log(context.Background(), rec))

	assert.Equal(t, []string{"Testing Run", "URL", "Site", "Concolic::\nTime"}, table.header)
	assert.Equal(t, 4, table.capacity)
	assert.Equal(t, []string{"", "http://example.com", "example", "12"}, table.rows[1])
}

func TestResultLoggerCollisionWritesNoRow(t *testing.T) {
	table := newMemoryTable(5)
	l := openLogger(t, table)
	ctx := context.Background()

	require.NoError(t, l.Log(ctx, record(map[string]string{"Site": "a"})))
	rows := len(table.rows)

	err := l.Log(ctx, record(map[string]string{"Exit Code": "0", "exitcode": "1"}))
	require.Error(t, err)

	var collision *KeyCollisionError
	assert.True(t, errors.As(err, &collision))
	assert.True(t, IsLogSyncError(err))
	assert.Len(t, table.rows, rows)
}

func TestResultLoggerRejectsBadAcknowledgment(t *testing.T) {
	tests := []struct {
		name string
		ack  AppendAck
	}{
		{name: "no range", ack: AppendAck{UpdatedRows: 1}},
		{name: "zero rows", ack: AppendAck{UpdatedRange: "Sheet1!A2:B2"}},
		{name: "two rows", ack: AppendAck{UpdatedRange: "Sheet1!A2:B3", UpdatedRows: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newMemoryTable(5)
			table.ack = &tt.ack
			l := openLogger(t, table)

			err := l.Log(context.Background(), record(map[string]string{"Site": "a"}))
			require.Error(t, err)

			var ackErr *AcknowledgmentError
			assert.True(t, errors.As(err, &ackErr))
			assert.Contains(t, err.Error(), "separator")
		})
	}
}

func TestResultLoggerAppendFailure(t *testing.T) {
	table := newMemoryTable(5)
	l := openLogger(t, table)
	ctx := context.Background()

	require.NoError(t, l.Log(ctx, record(map[string]string{"Site": "a"})))

	boom := errors.New("quota exceeded")
	table.failOn["append"] = boom
	err := l.Log(ctx, record(map[string]string{"Site": "b"}))

	var syncErr *LogSyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "append row", syncErr.Op)
	assert.ErrorIs(t, err, boom)

	// the separator is not repeated once the store recovers
	delete(table.failOn, "append")
	require.NoError(t, l.Log(ctx, record(map[string]string{"Site": "c"})))
	assert.Len(t, table.rows, 3)
}

func TestResultLoggerSeparatorFailureIsNotRetried(t *testing.T) {
	table := newMemoryTable(5)
	table.failOn["append"] = errors.New("offline")
	l := openLogger(t, table)
	ctx := context.Background()

	err := l.Log(ctx, record(map[string]string{"Site": "a"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "separator")

	delete(table.failOn, "append")
	require.NoError(t, l.Log(ctx, record(map[string]string{"Site": "b"})))
	require.Len(t, table.rows, 1)
	assert.Equal(t, "b", table.cell(0, types.LabelSite))
}
