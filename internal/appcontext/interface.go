// Package appcontext provides the application context interface shared by
// the command packages, so commands depend on what they use rather than on
// the concrete App.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

// Settings are the configured defaults commands fall back to when a flag is
// not given.
type Settings struct {
	DBPath      string
	AssetsDir   string
	LogFile     string
	MatchPolicy reconcile.MatchPolicy
	Skills      []string
	Quiet       bool
}

// Interface defines what commands need from the app.
type Interface interface {
	// Store opens the library at path, or at the configured path when path
	// is empty. The store is owned by the app and closed on shutdown.
	Store(ctx context.Context, path string) (library.Store, error)

	// Settings returns the configured defaults.
	Settings() Settings

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
