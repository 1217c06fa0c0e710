// Package librarytest holds the behaviour every library.Store must share.
package librarytest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) library.Store

// Run exercises a store implementation.
func Run(t *testing.T, newStore Factory) {
	t.Run("CollectionsAreLazyAndStable", func(t *testing.T) { testCollections(t, newStore(t)) })
	t.Run("CreateIndexGet", func(t *testing.T) { testCreateIndexGet(t, newStore(t)) })
	t.Run("UpdatePatch", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("FindByImportID", func(t *testing.T) { testFindByImportID(t, newStore(t)) })
	t.Run("ConcurrentCollections", func(t *testing.T) { testConcurrent(t, newStore(t)) })
}

func talentRecord(name, importID string) library.Record {
	data := content.Attributes{}
	data.Set("description", name+" text")
	data.Set("ranks.ranked", true)
	data.Set("activation.value", "Passive")
	return library.Record{
		Name:  name,
		Type:  content.Talent,
		Flags: content.Attributes{library.ImportIDFlag: importID},
		Data:  data,
	}
}

func testCollections(t *testing.T, s library.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close() })

	all, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, ok, err := s.Find(ctx, library.Compendium, content.Talent)
	require.NoError(t, err)
	assert.False(t, ok, "Find does not create")

	c1, err := s.Collection(ctx, library.Compendium, content.Talent)
	require.NoError(t, err)
	assert.Equal(t, "oggdude.Talents", c1.Label())
	assert.Equal(t, library.Compendium, c1.Kind())
	assert.Equal(t, content.Talent, c1.Type())

	_, err = c1.Create(ctx, talentRecord("Grit", "GRIT"))
	require.NoError(t, err)

	c2, err := s.Collection(ctx, library.Compendium, content.Talent)
	require.NoError(t, err)
	idx, err := c2.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, idx, 1, "same collection handed out twice")

	found, ok, err := s.Find(ctx, library.Compendium, content.Talent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c1.Label(), found.Label())

	local, err := s.Collection(ctx, library.Local, content.Talent)
	require.NoError(t, err)
	idx, err = local.Index(ctx)
	require.NoError(t, err)
	assert.Empty(t, idx)

	all, err = s.Collections(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testCreateIndexGet(t *testing.T, s library.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close() })

	c, err := s.Collection(ctx, library.Compendium, content.Talent)
	require.NoError(t, err)

	id1, err := c.Create(ctx, talentRecord("Grit", "GRIT"))
	require.NoError(t, err)
	id2, err := c.Create(ctx, talentRecord("Toughened", "TOUGH"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	idx, err := c.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []library.IndexEntry{
		{ID: id1, Name: "Grit", ImportID: "GRIT"},
		{ID: id2, Name: "Toughened", ImportID: "TOUGH"},
	}, idx, "creation order")

	rec, err := c.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "Grit", rec.Name)
	assert.Equal(t, content.Talent, rec.Type)
	assert.Equal(t, "GRIT", rec.ImportID())
	assert.True(t, rec.Data.Bool("ranks.ranked"))
	assert.Equal(t, "Passive", rec.Data.String("activation.value"))

	_, err = c.Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	records, err := c.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func testUpdate(t *testing.T, s library.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close() })

	c, err := s.Collection(ctx, library.Compendium, content.Weapon)
	require.NoError(t, err)

	data := content.Attributes{}
	data.Set("damage.value", "6")
	data.Set("crit.value", "3")
	id, err := c.Create(ctx, library.Record{Name: "Blaster Pistol", Type: content.Weapon, Data: data})
	require.NoError(t, err)

	err = c.Update(ctx, id, library.Patch{
		"_id":               id,
		"data.damage.value": "7",
		"flags.importid":    "BLASTPIST",
		"img":               "Equipment/Weapon/BLASTPIST.png",
	})
	require.NoError(t, err)

	rec, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "7", rec.Data.String("damage.value"))
	assert.Equal(t, "3", rec.Data.String("crit.value"), "untouched paths survive")
	assert.Equal(t, "BLASTPIST", rec.ImportID())
	assert.Equal(t, "Equipment/Weapon/BLASTPIST.png", rec.Img)

	err = c.Update(ctx, "missing", library.Patch{"name": "x"})
	assert.True(t, errors.IsStoreError(err))
	assert.True(t, errors.IsNotFound(err))

	err = c.Update(ctx, id, library.Patch{"bogus": 1})
	assert.True(t, errors.IsValidationError(err))
}

func testFindByImportID(t *testing.T, s library.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close() })

	c, err := s.Collection(ctx, library.Local, content.Talent)
	require.NoError(t, err)
	id, err := c.Create(ctx, talentRecord("Grit", "GRIT"))
	require.NoError(t, err)

	rec, ok, err := c.FindByImportID(ctx, "GRIT")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, rec.ID)

	_, ok, err = c.FindByImportID(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.FindByImportID(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testConcurrent(t *testing.T, s library.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close() })

	types := []content.Type{content.Talent, content.Gear, content.Weapon, content.Armor, content.ForcePower}
	var wg sync.WaitGroup
	errs := make(chan error, len(types)*10)
	for _, typ := range types {
		wg.Add(1)
		go func(typ content.Type) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				c, err := s.Collection(ctx, library.Compendium, typ)
				if err != nil {
					errs <- err
					return
				}
				if _, err := c.Create(ctx, library.Record{Name: string(typ), Type: typ, Data: content.Attributes{}}); err != nil {
					errs <- err
					return
				}
			}
		}(typ)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(types))
	for _, c := range all {
		idx, err := c.Index(ctx)
		require.NoError(t, err)
		assert.Len(t, idx, 10, c.Label())
	}
}
