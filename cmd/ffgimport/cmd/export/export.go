// Package export provides the export command.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/daezeri/ffgimport/internal/appcontext"
	"github.com/daezeri/ffgimport/pkg/constants"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
)

// Pack is the file layout of one exported collection.
type Pack struct {
	Name    string           `yaml:"name"`
	Kind    string           `yaml:"kind"`
	Type    string           `yaml:"type"`
	Label   string           `yaml:"label"`
	Records []library.Record `yaml:"records"`
}

// NewCommand creates the export command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		db  string
		dir string
	)

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "management",
		Short:   "Write the library out as YAML, one file per collection",
		Example: `  ffgimport export --dir ./packs
  ffgimport export --dir ./packs --db library.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := app.Store(ctx, db)
			if err != nil {
				return err
			}
			files, err := Export(ctx, store, dir)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			app.Logger().Info().Int("files", len(files)).Str("dir", dir).Msg("Exported library")
			return nil
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "library database path (default from config)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

// Export writes every collection of store below dir as
// <dir>/<kind>/<label>.yaml and returns the written paths.
func Export(ctx context.Context, store library.Store, dir string) ([]string, error) {
	if dir == "" {
		return nil, errors.NewValidationError("dir", dir, "output directory is required")
	}
	collections, err := store.Collections(ctx)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, c := range collections {
		records, err := c.Records(ctx)
		if err != nil {
			return written, err
		}
		pack := Pack{
			Name:    library.PackName(c),
			Kind:    string(c.Kind()),
			Type:    string(c.Type()),
			Label:   c.Label(),
			Records: records,
		}
		data, err := yaml.MarshalWithOptions(pack, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return written, errors.WrapParse("yaml", pack.Name, err)
		}

		kindDir := filepath.Join(dir, pack.Kind)
		if err := os.MkdirAll(kindDir, constants.DirPermissions); err != nil {
			return written, errors.WrapIO("create", kindDir, err)
		}
		path := filepath.Join(kindDir, c.Label()+".yaml")
		if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
			return written, errors.WrapIO("write", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
