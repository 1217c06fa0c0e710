// Package inspect provides the inspect command.
package inspect

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/daezeri/ffgimport/internal/appcontext"
	"github.com/daezeri/ffgimport/internal/cmd/output"
	"github.com/daezeri/ffgimport/internal/cmd/table"
	"github.com/daezeri/ffgimport/pkg/archive"
)

// NewCommand creates the inspect command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:     "inspect [archive.zip]",
		GroupID: "core",
		Short:   "Show importable entries of an archive, or the library contents",
		Long: `With an archive argument, inspect lists the entries an import would
read: Talents.xml, Force Abilities.xml, Gear.xml, Weapons.xml, Armor.xml
and the Specializations directory.

Without an argument it lists the library's collections and their record
counts.`,
		Example: `  ffgimport inspect OggDudeData.zip
  ffgimport inspect OggDudeData.zip -o yaml
  ffgimport inspect --db library.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			format := output.DetectFormat(app.OutputFormat())
			if len(args) == 1 {
				return inspectArchive(cmd, format, args[0])
			}
			return inspectLibrary(ctx, cmd, app, format, db)
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "library database path (default from config)")

	return cmd
}

func inspectArchive(cmd *cobra.Command, format output.Format, path string) error {
	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	selections := a.Discover()
	return output.Write(cmd.OutOrStdout(), format, selections, table.SelectionsToTableData(selections))
}

func inspectLibrary(ctx context.Context, cmd *cobra.Command, app appcontext.Interface, format output.Format, db string) error {
	store, err := app.Store(ctx, db)
	if err != nil {
		return err
	}
	collections, err := store.Collections(ctx)
	if err != nil {
		return err
	}
	summaries, err := table.SummarizeCollections(ctx, collections)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, summaries, table.CollectionsToTableData(summaries))
}
