package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cs-au-dk/artemis-sitesuite/types"
)

// memoryTable is an in-memory worksheet with per-operation failure injection
type memoryTable struct {
	mu       sync.Mutex
	header   []string
	capacity int
	rows     [][]string

	failOn map[string]error
	ack    *AppendAck
	closed int
	calls  []string
}

func newMemoryTable(capacity int, labels ...string) *memoryTable {
	return &memoryTable{
		header:   append([]string(nil), labels...),
		capacity: capacity,
		failOn:   make(map[string]error),
	}
}

func (m *memoryTable) record(op string) error {
	m.calls = append(m.calls, op)
	return m.failOn[op]
}

func (m *memoryTable) Header(ctx context.Context) (Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("header"); err != nil {
		return Header{}, err
	}
	return NewHeader(m.header), nil
}

func (m *memoryTable) ColumnCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("capacity"); err != nil {
		return 0, err
	}
	return m.capacity, nil
}

func (m *memoryTable) ResizeColumns(ctx context.Context, columns int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("resize"); err != nil {
		return err
	}
	m.capacity = columns
	return nil
}

func (m *memoryTable) WriteCell(ctx context.Context, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("write"); err != nil {
		return err
	}
	if row != HeaderRow {
		return fmt.Errorf("unexpected row %d", row)
	}
	if col > m.capacity {
		return fmt.Errorf("column %d exceeds capacity %d", col, m.capacity)
	}
	for len(m.header) < col {
		m.header = append(m.header, "")
	}
	m.header[col-1] = value
	return nil
}

func (m *memoryTable) AppendRow(ctx context.Context, values []string) (AppendAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("append"); err != nil {
		return AppendAck{}, err
	}
	if len(values) > m.capacity {
		return AppendAck{}, errors.New("row wider than worksheet")
	}
	m.rows = append(m.rows, append([]string(nil), values...))
	if m.ack != nil {
		return *m.ack, nil
	}
	n := len(m.rows) + HeaderRow
	return AppendAck{UpdatedRange: fmt.Sprintf("Sheet1!A%d:%s%d", n, ColumnName(len(values)), n), UpdatedRows: 1}, nil
}

func (m *memoryTable) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// cell returns the value of a data row under the column labelled label
func (m *memoryTable) cell(row int, label string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := CanonicalKey(label)
	for i, h := range m.header {
		if CanonicalKey(h) == key && i < len(m.rows[row]) {
			return m.rows[row][i]
		}
	}
	return ""
}

type staticAuth struct {
	client TableClient
	err    error
	calls  int
}

func (a *staticAuth) Authenticate(ctx context.Context) (TableClient, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.client, nil
}

func record(fields map[string]string) types.RunRecord {
	r := types.NewRunRecord()
	r.Merge(fields)
	return r
}
