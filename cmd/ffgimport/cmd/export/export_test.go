package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daezeri/ffgimport/internal/appcontext"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/memory"
)

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	coll, err := store.Collection(ctx, library.Compendium, content.Weapon)
	require.NoError(t, err)
	_, err = coll.Create(ctx, library.Record{
		Name:  "Blaster Pistol",
		Type:  content.Weapon,
		Flags: content.Attributes{library.ImportIDFlag: "BLASTPIST"},
		Data:  content.Attributes{"damage": content.Attributes{"value": "6"}},
	})
	require.NoError(t, err)
}

func TestExport(t *testing.T) {
	store := memory.New()
	seed(t, store)
	dir := t.TempDir()

	files, err := Export(context.Background(), store, dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "compendium", "oggdude.Weapons.yaml")}, files)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	var pack Pack
	require.NoError(t, yaml.Unmarshal(data, &pack))
	assert.Equal(t, "compendium.oggdude.Weapons", pack.Name)
	assert.Equal(t, "weapon", pack.Type)
	require.Len(t, pack.Records, 1)
	rec := pack.Records[0]
	assert.Equal(t, "Blaster Pistol", rec.Name)
	assert.Equal(t, "BLASTPIST", rec.ImportID())
	assert.Equal(t, "6", rec.Data.String("damage.value"))
}

func TestExportRequiresDir(t *testing.T) {
	_, err := Export(context.Background(), memory.New(), "")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	app := &appcontext.Mock{MemoryStore: memory.New()}
	seed(t, app.MemoryStore)
	dir := t.TempDir()

	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dir", dir})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "oggdude.Weapons.yaml")
}
