package app

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/memory"
	"github.com/daezeri/ffgimport/pkg/logging"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNopLogger())}, opts...)
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app := newTestApp(t)

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_Store_Singleton verifies that each path is opened once and closed on shutdown.
func TestApp_Store_Singleton(t *testing.T) {
	var mu sync.Mutex
	opened := map[string]int{}
	app := newTestApp(t, WithStoreOpener(func(_ context.Context, path string) (library.Store, error) {
		mu.Lock()
		defer mu.Unlock()
		opened[path]++
		return memory.New(), nil
	}))
	app.config.DBPath = "default.db"

	var wg sync.WaitGroup
	stores := make([]library.Store, 10)
	for i := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := app.Store(context.Background(), "")
			if err != nil {
				t.Errorf("Store() failed: %v", err)
				return
			}
			stores[i] = s
		}()
	}
	wg.Wait()

	for _, s := range stores {
		if s != stores[0] {
			t.Fatal("Store() returned different instances for the same path")
		}
	}
	if opened["default.db"] != 1 {
		t.Errorf("default.db opened %d times, want 1", opened["default.db"])
	}

	other, err := app.Store(context.Background(), "other.db")
	if err != nil {
		t.Fatalf("Store(other.db) failed: %v", err)
	}
	if other == stores[0] {
		t.Error("different paths share a store")
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if len(app.stores) != 0 {
		t.Errorf("Shutdown() left %d stores open", len(app.stores))
	}
}

// TestApp_Settings verifies config values reach commands.
func TestApp_Settings(t *testing.T) {
	app := newTestApp(t)
	app.config.MatchPolicy = "importid"
	app.config.Skills = []string{"Brawl"}

	s := app.Settings()
	if s.MatchPolicy != reconcile.MatchByImportIDThenName {
		t.Errorf("MatchPolicy = %s, want importid", s.MatchPolicy)
	}
	if len(s.Skills) != 1 || s.Skills[0] != "Brawl" {
		t.Errorf("Skills = %v", s.Skills)
	}

	app.config.MatchPolicy = "bogus"
	if got := app.Settings().MatchPolicy; got != reconcile.MatchByName {
		t.Errorf("invalid policy fell back to %s, want name", got)
	}
}

// TestApp_VersionCommand verifies the version output.
func TestApp_VersionCommand(t *testing.T) {
	app := newTestApp(t)
	cmd := app.NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if got := out.String(); got != "ffgimport 1.0.0\n" {
		t.Errorf("version output = %q", got)
	}
}

// TestApp_Execute_InvalidFormat verifies flag validation runs before commands.
func TestApp_Execute_InvalidFormat(t *testing.T) {
	app := newTestApp(t)
	if err := app.Execute(context.Background(), []string{"version", "--format", "xml"}); err == nil {
		t.Error("Execute() accepted an unknown format")
	}
}

// TestApp_CompletionCommand verifies every listed shell has a generator.
func TestApp_CompletionCommand(t *testing.T) {
	app := newTestApp(t)

	for _, shell := range []string{"bash", "fish", "powershell", "zsh"} {
		t.Run(shell, func(t *testing.T) {
			root := app.createRootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s failed: %v", shell, err)
			}
			if out.Len() == 0 {
				t.Errorf("completion %s wrote nothing", shell)
			}
		})
	}

	if got := completionShells(); len(got) != 4 || got[0] != "bash" || got[3] != "zsh" {
		t.Errorf("completionShells() = %v", got)
	}

	root := app.createRootCommand()
	root.SetArgs([]string{"completion", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Error("completion accepted an unsupported shell")
	}
}
