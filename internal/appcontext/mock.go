package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/memory"
	"github.com/daezeri/ffgimport/pkg/logging"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
type Mock struct {
	StoreFunc        func(ctx context.Context, path string) (library.Store, error)
	SettingsFunc     func() Settings
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string

	// MemoryStore is returned by Store when StoreFunc is nil.
	MemoryStore *memory.Store
}

// Store returns a store using the mock function or the in-memory store.
func (m *Mock) Store(ctx context.Context, path string) (library.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, path)
	}
	if m.MemoryStore == nil {
		m.MemoryStore = memory.New()
	}
	return m.MemoryStore, nil
}

// Settings returns settings using the mock function or zero settings.
func (m *Mock) Settings() Settings {
	if m.SettingsFunc != nil {
		return m.SettingsFunc()
	}
	return Settings{}
}

// Logger returns a logger using the mock function or a nop logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns "test".
func (m *Mock) Version() string { return "test" }

// Commit returns "test".
func (m *Mock) Commit() string { return "test" }

// Date returns "test".
func (m *Mock) Date() string { return "test" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
