package types

import (
	"fmt"
	"sort"
)

// Column labels written for every case
const (
	LabelTestingRun     = "Testing Run"
	LabelArtemisVersion = "Artemis Version"
	LabelSite           = "Site"
	LabelURL            = "URL"
	LabelEntryPoint     = "Entry Point"
	LabelRunningTime    = "Running Time"
	LabelExitCode       = "Exit Code"
	LabelAnalysis       = "Analysis"
)

// RunRecord is the set of named fields collected while running one case.
// Keys stay human readable; they are only canonicalized when the row is logged.
type RunRecord map[string]string

// NewRunRecord creates an empty record
func NewRunRecord() RunRecord {
	return make(RunRecord)
}

// Set stores the stringified value under label
func (r RunRecord) Set(label string, value any) {
	switch v := value.(type) {
	case string:
		r[label] = v
	case fmt.Stringer:
		r[label] = v.String()
	default:
		r[label] = fmt.Sprint(v)
	}
}

// Get returns the value stored under label
func (r RunRecord) Get(label string) (string, bool) {
	v, ok := r[label]
	return v, ok
}

// Merge copies every field of other into r, overwriting existing labels
func (r RunRecord) Merge(other map[string]string) {
	for k, v := range other {
		r[k] = v
	}
}

// Labels returns the labels in sorted order
func (r RunRecord) Labels() []string {
	labels := make([]string, 0, len(r))
	for k := range r {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

// Clone returns a copy of the record
func (r RunRecord) Clone() RunRecord {
	out := make(RunRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
