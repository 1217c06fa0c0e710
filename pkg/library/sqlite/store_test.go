package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/librarytest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	librarytest.Run(t, func(t *testing.T) library.Store { return openTestStore(t) })
}

func TestReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "library.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	c, err := s.Collection(ctx, library.Compendium, content.ForcePower)
	require.NoError(t, err)

	data := content.Attributes{}
	data.Set("upgrades.upgrade0.links-top-1", true)
	data.Set("upgrades.upgrade15", content.Attributes{"visible": false})
	id, err := c.Create(ctx, library.Record{Name: "Bind", Flags: content.Attributes{"importid": "BIND"}, Data: data})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	all, err := s.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "oggdude.ForcePowers", all[0].Label())

	rec, err := all[0].Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, content.ForcePower, rec.Type)
	assert.True(t, rec.Data.Bool("upgrades.upgrade0.links-top-1"))
	assert.False(t, rec.Data.Bool("upgrades.upgrade15.visible"))
	_, ok := rec.Data.Get("upgrades.upgrade15.visible")
	assert.True(t, ok)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.True(t, errors.IsValidationError(err))
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nCREATE TABLE a (x);\n", upSection("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;"))
	assert.Equal(t, "CREATE TABLE b (y);", upSection("CREATE TABLE b (y);"))
}
