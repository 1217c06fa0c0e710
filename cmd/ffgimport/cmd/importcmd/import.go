// Package importcmd provides the import command.
package importcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daezeri/ffgimport/internal/appcontext"
	"github.com/daezeri/ffgimport/internal/cmd/output"
	"github.com/daezeri/ffgimport/internal/cmd/table"
	"github.com/daezeri/ffgimport/pkg/archive"
	"github.com/daezeri/ffgimport/pkg/constants"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/importer"
	"github.com/daezeri/ffgimport/pkg/logging"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

// Flags are the import command's options.
type Flags struct {
	DB        string
	Only      []string
	LogFile   string
	NoLog     bool
	DryRun    bool
	AssetsDir string
	Match     string
}

// NewCommand creates the import command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "import <archive.zip>",
		GroupID: "core",
		Short:   "Import a game data archive into the library",
		Long: `Import reads talents, gear, weapons, armor, force powers and
specializations from a game data archive and writes them into the
library's compendium packs.

Records are matched by name, so importing the same archive again updates
the existing records. Specializations are imported last so that their
talent trees can point at the talents imported before them.

With --dry-run nothing is written. Specialization cells that point at a
talent the same run would create are still filled in, without an item id.`,
		Example: `  ffgimport import OggDudeData.zip
  ffgimport import OggDudeData.zip --only talents,specializations
  ffgimport import OggDudeData.zip --dry-run -o json
  ffgimport import OggDudeData.zip --match importid --db library.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.DB, "db", "", "library database path (default from config, "+constants.DefaultDBPath+")")
	cmd.Flags().StringSliceVar(&flags.Only, "only", nil, "content types to import: talents, gear, weapons, armor, forcepowers, specializations")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "import log path (default from config, "+constants.DefaultLogFile+")")
	cmd.Flags().BoolVar(&flags.NoLog, "no-log", false, "do not write the import log")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "show what would be written without writing")
	cmd.Flags().StringVar(&flags.AssetsDir, "assets-dir", "", "directory images are staged into (default from config, "+constants.DefaultAssetsDir+")")
	cmd.Flags().StringVar(&flags.Match, "match", "", "record matching: name, importid")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, path string, flags *Flags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := app.Logger()
	ctx = logging.WithLogger(ctx, logger)
	settings := app.Settings()

	opts, closeLog, err := buildOptions(cmd, settings, flags)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	store, err := app.Store(ctx, flags.DB)
	if err != nil {
		return err
	}

	im, err := importer.New(store, opts...)
	if err != nil {
		return err
	}

	selections := a.Discover()
	if len(selections) == 0 {
		logger.Warn().Str("archive", path).Msg("No importable entries found")
	}

	result, runErr := im.Run(ctx, a, selections)
	if result != nil {
		format := output.DetectFormat(app.OutputFormat())
		if err := output.Write(cmd.OutOrStdout(), format, result, table.ResultToTableData(result)); err != nil {
			return err
		}
		for _, recErr := range result.Errors {
			logger.Warn().Err(recErr).Msg("Record skipped")
		}
		if !settings.Quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Import completed in %s\n", table.FormatDuration(result.Metadata.Duration))
		}
	}
	return runErr
}

// buildOptions turns flags and configured defaults into importer options.
// The returned func closes the log file.
func buildOptions(cmd *cobra.Command, settings appcontext.Settings, flags *Flags) ([]importer.Option, func(), error) {
	noop := func() {}

	policy := settings.MatchPolicy
	if flags.Match != "" {
		p, err := reconcile.ParseMatchPolicy(flags.Match)
		if err != nil {
			return nil, noop, err
		}
		policy = p
	}
	engine, err := reconcile.New(reconcile.WithMatchPolicy(policy))
	if err != nil {
		return nil, noop, err
	}

	types, err := parseOnly(flags.Only)
	if err != nil {
		return nil, noop, err
	}

	assetsDir := firstNonEmpty(flags.AssetsDir, settings.AssetsDir)

	opts := []importer.Option{
		importer.WithEngine(engine),
		importer.WithOnly(types...),
		importer.WithDryRun(flags.DryRun),
		importer.WithAssetsDir(assetsDir),
	}
	if len(settings.Skills) > 0 {
		opts = append(opts, importer.WithCanonicalSkills(settings.Skills))
	}
	if !settings.Quiet {
		opts = append(opts, importer.WithProgress(newProgress(cmd.ErrOrStderr())))
	}

	closeLog := noop
	logFile := firstNonEmpty(flags.LogFile, settings.LogFile)
	if !flags.NoLog && logFile != "" {
		w, err := openLog(logFile)
		if err != nil {
			return nil, noop, err
		}
		opts = append(opts, importer.WithLogSink(w))
		closeLog = func() { _ = w.Close() }
	}
	return opts, closeLog, nil
}

func openLog(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return nil, errors.WrapIO("create", path, err)
	}
	return f, nil
}

func parseOnly(values []string) ([]content.Type, error) {
	var types []content.Type
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, err := content.ParseType(part)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
	}
	return types, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
