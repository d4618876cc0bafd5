package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/artemis-sitesuite/types"
)

// writeScript creates an executable shell script in a temp dir and returns its path
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Command(c types.Case, caseDir string) []string {
	args := m.Called(c, caseDir)
	return args.Get(0).([]string)
}

func (m *mockExecutor) Execute(ctx context.Context, c types.Case, caseDir string) (*types.ToolReport, error) {
	args := m.Called(ctx, c, caseDir)
	report, _ := args.Get(0).(*types.ToolReport)
	return report, args.Error(1)
}

// recordingLogger keeps a copy of every logged record and fails on demand
type recordingLogger struct {
	mu      sync.Mutex
	records []types.RunRecord
	errs    []error // errs[i] is returned by the i-th call, if present
}

func (l *recordingLogger) Log(ctx context.Context, record types.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record.Clone())
	if n := len(l.records) - 1; n < len(l.errs) {
		return l.errs[n]
	}
	return nil
}

type mockCaseExecutor struct {
	mock.Mock
}

func (m *mockCaseExecutor) Run(ctx context.Context, c types.Case) *types.CaseResult {
	args := m.Called(ctx, c)
	result, _ := args.Get(0).(*types.CaseResult)
	return result
}

func finishedResult(c types.Case, status types.CaseStatus, err error) *types.CaseResult {
	r := types.NewCaseResult(c)
	_ = r.Transition(types.CaseStatusRunning)
	_ = r.Finish(status, err)
	return r
}
