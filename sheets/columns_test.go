package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cols(labels ...string) []Column {
	out := make([]Column, len(labels))
	for i, l := range labels {
		out[i] = Column{Key: CanonicalKey(l), Label: l}
	}
	return out
}

func TestNewHeaderSkipsBlankCells(t *testing.T) {
	h := NewHeader([]string{"Site", "", "Exit Code", "  "})

	assert.Equal(t, 3, h.MaxIndex())
	assert.Equal(t, []string{"site", "exitcode"}, h.Keys())

	idx, ok := h.Index("exitcode")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = h.Index("url")
	assert.False(t, ok)
}

func TestHeaderDuplicate(t *testing.T) {
	assert.Nil(t, NewHeader([]string{"Site", "URL"}).Duplicate())

	dup := NewHeader([]string{"Site", "Exit Code", "URL", "exit:code"}).Duplicate()
	require.NotNil(t, dup)
	assert.Equal(t, "exitcode", dup.Key)
	assert.Equal(t, []int{2, 4}, dup.Indices)
}

func TestEnsureColumns(t *testing.T) {
	tests := []struct {
		name         string
		header       []string
		capacity     int
		desired      []Column
		wantMissing  []string
		wantIndices  []int
		wantCapacity int
		wantGrow     bool
	}{
		{
			name:         "all present",
			header:       []string{"Site", "URL"},
			capacity:     5,
			desired:      cols("URL", "Site"),
			wantCapacity: 5,
		},
		{
			name:         "empty sheet",
			capacity:     0,
			desired:      cols("Site", "URL"),
			wantMissing:  []string{"site", "url"},
			wantIndices:  []int{1, 2},
			wantCapacity: 2,
			wantGrow:     true,
		},
		{
			name:         "fits in spare capacity",
			header:       []string{"Site"},
			capacity:     26,
			desired:      cols("Site", "Exit Code"),
			wantMissing:  []string{"exitcode"},
			wantIndices:  []int{2},
			wantCapacity: 26,
		},
		{
			name:         "appends after last occupied column",
			header:       []string{"Site", "", "URL"},
			capacity:     3,
			desired:      cols("Exit Code", "Analysis"),
			wantMissing:  []string{"exitcode", "analysis"},
			wantIndices:  []int{4, 5},
			wantCapacity: 5,
			wantGrow:     true,
		},
		{
			name:         "duplicate requests added once",
			header:       []string{"Site"},
			capacity:     1,
			desired:      []Column{{Key: "url", Label: "URL"}, {Key: "url", Label: "url"}},
			wantMissing:  []string{"url"},
			wantIndices:  []int{2},
			wantCapacity: 2,
			wantGrow:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := EnsureColumns(NewHeader(tt.header), tt.desired, tt.capacity)

			var missing []string
			for _, c := range plan.Missing {
				missing = append(missing, c.Key)
			}
			var indices []int
			for _, c := range plan.Assignments {
				indices = append(indices, c.Index)
			}
			assert.Equal(t, tt.wantMissing, missing)
			assert.Equal(t, tt.wantIndices, indices)
			assert.Equal(t, tt.wantCapacity, plan.Capacity)
			assert.Equal(t, tt.wantGrow, plan.Grow)
			assert.GreaterOrEqual(t, plan.Capacity, tt.capacity)
			assert.Equal(t, len(tt.wantMissing) == 0 && !tt.wantGrow, plan.NoOp())
		})
	}
}

func TestEnsureColumnsIsIdempotent(t *testing.T) {
	header := NewHeader([]string{"Site"})
	desired := cols("Site", "URL", "Exit Code")

	first := EnsureColumns(header, desired, 1)
	applied := header.With(first.Assignments...)
	second := EnsureColumns(applied, desired, first.Capacity)

	assert.True(t, second.NoOp())
}

func TestSynchronizerAddsMissingColumns(t *testing.T) {
	table := newMemoryTable(2, "Site", "URL")
	s := NewSynchronizer(table, nil)

	header, err := s.Sync(context.Background(), cols("Exit Code", "Site", "Analysis"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Site", "URL", "Exit Code", "Analysis"}, table.header)
	assert.Equal(t, 4, table.capacity)
	assert.Equal(t, []string{"site", "url", "exitcode", "analysis"}, header.Keys())
	assert.Equal(t, []string{"header", "capacity", "resize", "write", "write"}, table.calls)
}

func TestSynchronizerNoOpWritesNothing(t *testing.T) {
	table := newMemoryTable(10, "Site", "URL")
	s := NewSynchronizer(table, nil)

	_, err := s.Sync(context.Background(), cols("URL"))
	require.NoError(t, err)
	assert.Equal(t, []string{"header", "capacity"}, table.calls)
}

func TestSynchronizerMatchesExistingLabelsByKey(t *testing.T) {
	table := newMemoryTable(2, "exit code", "SITE")
	s := NewSynchronizer(table, nil)

	_, err := s.Sync(context.Background(), cols("Exit Code", "Site"))
	require.NoError(t, err)
	assert.Equal(t, []string{"exit code", "SITE"}, table.header)
}

func TestSynchronizerFailures(t *testing.T) {
	boom := errors.New("rejected")

	tests := []struct {
		op     string
		wantOp string
	}{
		{op: "header", wantOp: "read header"},
		{op: "capacity", wantOp: "read capacity"},
		{op: "resize", wantOp: "resize"},
		{op: "write", wantOp: "write header"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			table := newMemoryTable(1, "Site")
			table.failOn[tt.op] = boom
			s := NewSynchronizer(table, nil)

			_, err := s.Sync(context.Background(), cols("Site", "URL"))
			require.Error(t, err)

			var syncErr *LogSyncError
			require.True(t, errors.As(err, &syncErr))
			assert.Equal(t, tt.wantOp, syncErr.Op)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestSynchronizerRejectsDuplicateHeader(t *testing.T) {
	table := newMemoryTable(3, "Site", "URL", "site")
	s := NewSynchronizer(table, nil)

	_, err := s.Sync(context.Background(), cols("Site"))
	require.Error(t, err)

	var dup *DuplicateHeaderError
	assert.True(t, errors.As(err, &dup))
	assert.True(t, IsLogSyncError(err))
	assert.Equal(t, []string{"header"}, table.calls)
}
