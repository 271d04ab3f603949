package indexer

import (
	"errors"
	"sort"
	"time"

	"github.com/mvp-joe/pyscope/internal/indexer/parsers"
)

// FileFailure records a file that could not be indexed.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Line   int    `json:"line,omitempty"` // set for syntax errors
}

// Report summarises one indexing run.
type Report struct {
	RunID              string        `json:"run_id"`
	Considered         int           `json:"considered"`
	Indexed            int           `json:"indexed"`
	SkippedBinary      int           `json:"skipped_binary"`
	SkippedUnsupported int           `json:"skipped_unsupported"`
	Failed             []FileFailure `json:"failed"`
	Pruned             int           `json:"pruned"`
	Duration           time.Duration `json:"duration"`
}

func newReport(runID string) *Report {
	return &Report{
		RunID:  runID,
		Failed: []FileFailure{},
	}
}

// addFailure records err against path.
func (r *Report) addFailure(path string, err error) {
	failure := FileFailure{Path: path, Reason: err.Error()}

	var parseErr *parsers.ParseError
	if errors.As(err, &parseErr) {
		failure.Reason = parseErr.Message
		failure.Line = parseErr.Line
	}
	r.Failed = append(r.Failed, failure)
}

func (r *Report) finish(start time.Time) {
	sort.Slice(r.Failed, func(i, j int) bool { return r.Failed[i].Path < r.Failed[j].Path })
	r.Duration = time.Since(start)
}
