// Package app provides the application context and dependency management
// for the ffgimport CLI: configuration, logging, and the library stores the
// commands open.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/daezeri/ffgimport/internal/appcontext"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/sqlite"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

// App represents the ffgimport application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Stores opened so far, keyed by path. Closed on Shutdown.
	mu     sync.Mutex
	stores map[string]library.Store
	opener func(ctx context.Context, path string) (library.Store, error)
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		stores:  make(map[string]library.Store),
		opener:  openSQLite,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

func openSQLite(ctx context.Context, path string) (library.Store, error) {
	return sqlite.Open(ctx, path)
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Settings returns the configured command defaults.
func (a *App) Settings() appcontext.Settings {
	policy, err := reconcile.ParseMatchPolicy(a.config.MatchPolicy)
	if err != nil {
		policy = reconcile.MatchByName
	}
	return appcontext.Settings{
		DBPath:      a.config.DBPath,
		AssetsDir:   a.config.AssetsDir,
		LogFile:     a.config.LogFile,
		MatchPolicy: policy,
		Skills:      a.config.Skills,
		Quiet:       a.config.Quiet,
	}
}

// Store returns the library at path, opening it on first use. An empty
// path means the configured db_path.
func (a *App) Store(ctx context.Context, path string) (library.Store, error) {
	if path == "" {
		path = a.config.DBPath
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.stores[path]; ok {
		return s, nil
	}
	s, err := a.opener(ctx, path)
	if err != nil {
		return nil, errors.WrapResource("open", "library", path, err)
	}
	a.stores[path] = s
	a.logger.Debug().Str("path", path).Msg("Opened library")
	return s, nil
}

// Shutdown closes every store the app opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var first error
	for path, s := range a.stores {
		if err := s.Close(); err != nil {
			a.logger.Error().Err(err).Str("path", path).Msg("Failed to close library")
			if first == nil {
				first = err
			}
		}
		delete(a.stores, path)
	}
	return first
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStoreOpener replaces how library stores are opened (useful for testing).
func WithStoreOpener(open func(ctx context.Context, path string) (library.Store, error)) Option {
	return func(a *App) error {
		if open == nil {
			return errors.NewValidationError("opener", nil, "store opener cannot be nil")
		}
		a.opener = open
		return nil
	}
}
