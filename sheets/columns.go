package sheets

import (
	"context"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/log"

	"github.com/cs-au-dk/artemis-sitesuite/metrics"
)

// HeaderCell is one labelled column of the header row
type HeaderCell struct {
	Index int // 1-based column index
	Label string
	Key   string
}

// Header is the set of labelled columns currently in row 1
type Header struct {
	Cells []HeaderCell
}

// NewHeader builds a header from the values of row 1, where labels[i] sits in
// column i+1. Blank cells hold no column.
func NewHeader(labels []string) Header {
	h := Header{}
	for i, label := range labels {
		key := CanonicalKey(label)
		if key == "" {
			continue
		}
		h.Cells = append(h.Cells, HeaderCell{Index: i + 1, Label: label, Key: key})
	}
	return h
}

// MaxIndex returns the highest occupied column index, or 0 for an empty header
func (h Header) MaxIndex() int {
	maxIndex := 0
	for _, c := range h.Cells {
		if c.Index > maxIndex {
			maxIndex = c.Index
		}
	}
	return maxIndex
}

// Index returns the column holding key
func (h Header) Index(key string) (int, bool) {
	for _, c := range h.Cells {
		if c.Key == key {
			return c.Index, true
		}
	}
	return 0, false
}

// Keys returns the keys of all occupied columns in column order
func (h Header) Keys() []string {
	keys := make([]string, 0, len(h.Cells))
	for _, c := range h.sorted() {
		keys = append(keys, c.Key)
	}
	return keys
}

// Duplicate returns the first key found in more than one column
func (h Header) Duplicate() *DuplicateHeaderError {
	byKey := make(map[string][]int)
	for _, c := range h.sorted() {
		byKey[c.Key] = append(byKey[c.Key], c.Index)
	}
	var dup *DuplicateHeaderError
	for key, indices := range byKey {
		if len(indices) < 2 {
			continue
		}
		if dup == nil || indices[0] < dup.Indices[0] {
			dup = &DuplicateHeaderError{Key: key, Indices: indices}
		}
	}
	return dup
}

// With returns a copy of h extended by cells
func (h Header) With(cells ...HeaderCell) Header {
	out := Header{Cells: make([]HeaderCell, 0, len(h.Cells)+len(cells))}
	out.Cells = append(out.Cells, h.Cells...)
	out.Cells = append(out.Cells, cells...)
	return out
}

func (h Header) sorted() []HeaderCell {
	cells := append([]HeaderCell(nil), h.Cells...)
	sort.Slice(cells, func(i, j int) bool { return cells[i].Index < cells[j].Index })
	return cells
}

// Plan is the set of changes needed for a row's columns to exist
type Plan struct {
	Missing     []Column     // Columns not yet in the header, in request order
	Assignments []HeaderCell // Where each missing column goes
	Capacity    int          // Column capacity after the plan is applied
	Grow        bool         // Whether the worksheet must be resized first
}

// NoOp reports whether applying the plan would change nothing
func (p Plan) NoOp() bool {
	return len(p.Assignments) == 0 && !p.Grow
}

// EnsureColumns works out how to make every desired column exist in header.
// Missing columns are appended after the last occupied column, in the order
// they are requested; duplicates in desired are ignored. The capacity only
// grows, and only to the smallest size that fits.
func EnsureColumns(header Header, desired []Column, capacity int) Plan {
	existing := mapset.NewThreadUnsafeSet(header.Keys()...)
	requested := mapset.NewThreadUnsafeSet[string]()

	plan := Plan{Capacity: capacity}
	for _, col := range desired {
		if existing.Contains(col.Key) || !requested.Add(col.Key) {
			continue
		}
		plan.Missing = append(plan.Missing, col)
	}

	next := header.MaxIndex()
	for _, col := range plan.Missing {
		next++
		plan.Assignments = append(plan.Assignments, HeaderCell{Index: next, Label: col.Label, Key: col.Key})
	}

	if needed := header.MaxIndex() + len(plan.Missing); needed > capacity {
		plan.Capacity = needed
		plan.Grow = true
	}

	return plan
}

// Synchronizer applies EnsureColumns against a live worksheet
type Synchronizer struct {
	client TableClient
	log    log.Logger
}

// NewSynchronizer creates a synchronizer writing through client
func NewSynchronizer(client TableClient, logger log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Root()
	}
	return &Synchronizer{client: client, log: logger}
}

// Sync makes sure every column in desired exists in the worksheet header and
// returns the header the row should be laid out against. The header and
// capacity are read fresh on every call. The first rejected operation aborts
// the sync; the caller must not write the row after an error.
func (s *Synchronizer) Sync(ctx context.Context, desired []Column) (Header, error) {
	header, err := s.client.Header(ctx)
	metrics.RecordSheetOp("read_header", err)
	if err != nil {
		return Header{}, &LogSyncError{Op: "read header", Err: err}
	}
	if dup := header.Duplicate(); dup != nil {
		return Header{}, &LogSyncError{Op: "read header", Err: dup}
	}

	capacity, err := s.client.ColumnCount(ctx)
	metrics.RecordSheetOp("read_capacity", err)
	if err != nil {
		return Header{}, &LogSyncError{Op: "read capacity", Err: err}
	}

	plan := EnsureColumns(header, desired, capacity)
	if plan.NoOp() {
		return header, nil
	}

	if plan.Grow {
		s.log.Debug("Growing worksheet", "from", capacity, "to", plan.Capacity)
		err := s.client.ResizeColumns(ctx, plan.Capacity)
		metrics.RecordSheetOp("resize", err)
		if err != nil {
			return Header{}, &LogSyncError{Op: "resize", Err: fmt.Errorf("growing worksheet to %d columns: %w", plan.Capacity, err)}
		}
	}

	for _, cell := range plan.Assignments {
		s.log.Debug("Adding column", "index", cell.Index, "key", cell.Key)
		err := s.client.WriteCell(ctx, HeaderRow, cell.Index, cell.Label)
		metrics.RecordSheetOp("write_header", err)
		if err != nil {
			return Header{}, &LogSyncError{Op: "write header", Err: fmt.Errorf("adding column %q at %d: %w", cell.Key, cell.Index, err)}
		}
	}

	return header.With(plan.Assignments...), nil
}
