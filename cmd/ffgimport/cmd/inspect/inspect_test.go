package inspect

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daezeri/ffgimport/internal/appcontext"
	"github.com/daezeri/ffgimport/pkg/archive"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/memory"
)

func run(t *testing.T, app appcontext.Interface, args ...string) []byte {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.Bytes()
}

func TestInspectArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"Data/Talents.xml", "Data/Gear.xml", "Data/Specializations/Bodyguard.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("<Root/>"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "data.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	var selections []archive.Selection
	require.NoError(t, json.Unmarshal(run(t, &appcontext.Mock{}, path), &selections))
	assert.Equal(t, []archive.Selection{
		{Label: "Talents", Entry: "Data/Talents.xml", Type: content.Talent},
		{Label: "Gear", Entry: "Data/Gear.xml", Type: content.Gear},
		{Label: "Specializations", Entry: "Data/Specializations", IsDir: true, Type: content.Specialization},
	}, selections)
}

func TestInspectLibrary(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	coll, err := store.Collection(ctx, library.Compendium, content.Talent)
	require.NoError(t, err)
	_, err = coll.Create(ctx, library.Record{Name: "Grit", Type: content.Talent})
	require.NoError(t, err)

	var summaries []struct {
		Pack    string `json:"pack"`
		Records int    `json:"records"`
	}
	require.NoError(t, json.Unmarshal(run(t, &appcontext.Mock{MemoryStore: store}), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "compendium.oggdude.Talents", summaries[0].Pack)
	assert.Equal(t, 1, summaries[0].Records)
}
