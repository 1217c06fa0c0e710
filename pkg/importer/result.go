package importer

import (
	"sync"
	"time"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

// Counts tallies the outcome of one content type.
type Counts struct {
	Created int `json:"created" yaml:"created"`
	Updated int `json:"updated" yaml:"updated"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Total returns the number of records seen.
func (c Counts) Total() int {
	return c.Created + c.Updated + c.Failed + c.Skipped
}

// Result represents the outcome of an import run.
type Result struct {
	mu sync.Mutex

	// Counts per content type.
	Counts map[content.Type]*Counts `json:"counts" yaml:"counts"`

	// Instructions in the order they were decided. Types run concurrently,
	// so only the order within one type is stable.
	Instructions []*reconcile.WriteInstruction `json:"instructions,omitempty" yaml:"instructions,omitempty"`

	// Errors are the per-record failures that were skipped.
	Errors []error `json:"-" yaml:"-"`

	// Log is the session log, when enabled.
	Log []string `json:"log,omitempty" yaml:"log,omitempty"`

	Metadata ResultMetadata `json:"metadata" yaml:"metadata"`
}

// ResultMetadata describes the run itself.
type ResultMetadata struct {
	Archive   string        `json:"archive" yaml:"archive"`
	Documents []string      `json:"documents" yaml:"documents"`
	DryRun    bool          `json:"dry_run" yaml:"dry_run"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

func newResult(archive string, dryRun bool, start time.Time) *Result {
	return &Result{
		Counts: make(map[content.Type]*Counts),
		Metadata: ResultMetadata{
			Archive:   archive,
			DryRun:    dryRun,
			StartTime: start,
		},
	}
}

func (r *Result) counts(t content.Type) *Counts {
	c, ok := r.Counts[t]
	if !ok {
		c = &Counts{}
		r.Counts[t] = c
	}
	return c
}

func (r *Result) recordWrite(instr *reconcile.WriteInstruction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instr.Kind == reconcile.Create {
		r.counts(instr.Type).Created++
	} else {
		r.counts(instr.Type).Updated++
	}
	r.Instructions = append(r.Instructions, instr)
}

func (r *Result) recordFailure(t content.Type, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(t).Failed++
	r.Errors = append(r.Errors, err)
}

// recordSkip counts records that were never attempted. err, when set, is
// the reason the whole type was skipped.
func (r *Result) recordSkip(t content.Type, n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts(t).Skipped += n
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

// Get returns the counts for t.
func (r *Result) Get(t content.Type) Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.Counts[t]; ok {
		return *c
	}
	return Counts{}
}

// IsSuccess returns true if no record failed.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Written returns the number of creates and updates.
func (r *Result) Written() int {
	n := 0
	for _, t := range content.Types {
		c := r.Get(t)
		n += c.Created + c.Updated
	}
	return n
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize(end time.Time) {
	r.Metadata.EndTime = end
	r.Metadata.Duration = end.Sub(r.Metadata.StartTime)
}
