package importer

import (
	"io"
	"time"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

// Progress is told how far an import of t has come. It is called from the
// per-type goroutines and must be safe for concurrent use.
type Progress func(t content.Type, current, total int)

type options struct {
	engine    *reconcile.Engine
	progress  Progress
	logSink   io.Writer
	assetsDir string
	skills    []string
	only      map[content.Type]bool
	dryRun    bool
	now       func() time.Time
}

func defaultOptions() *options {
	return &options{
		skills: content.DefaultSkills,
		now:    time.Now,
	}
}

// Option configures an Importer.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithEngine sets the reconciliation engine. The default matches by name.
func WithEngine(engine *reconcile.Engine) Option {
	return func(o *options) error {
		if engine == nil {
			return errors.NewValidationError("engine", nil, "engine cannot be nil")
		}
		o.engine = engine
		return nil
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn Progress) Option {
	return func(o *options) error {
		o.progress = fn
		return nil
	}
}

// WithLogSink enables the session log. The collected lines are written to w
// when a run completes.
func WithLogSink(w io.Writer) Option {
	return func(o *options) error {
		o.logSink = w
		return nil
	}
}

// WithAssetsDir stages illustrations below dir. Without it image refs are
// still recorded but no files are written.
func WithAssetsDir(dir string) Option {
	return func(o *options) error {
		o.assetsDir = dir
		return nil
	}
}

// WithCanonicalSkills overrides the skill names career skills resolve to.
func WithCanonicalSkills(names []string) Option {
	return func(o *options) error {
		if len(names) == 0 {
			return errors.NewValidationError("skills", names, "at least one skill name is required")
		}
		o.skills = names
		return nil
	}
}

// WithOnly limits a run to the given content types.
func WithOnly(types ...content.Type) Option {
	return func(o *options) error {
		if len(types) == 0 {
			o.only = nil
			return nil
		}
		o.only = make(map[content.Type]bool, len(types))
		for _, t := range types {
			o.only[t] = true
		}
		return nil
	}
}

// WithDryRun computes write instructions without applying them.
func WithDryRun(dryRun bool) Option {
	return func(o *options) error {
		o.dryRun = dryRun
		return nil
	}
}

// WithClock replaces the clock used for log timestamps and run metadata.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "clock cannot be nil")
		}
		o.now = now
		return nil
	}
}
