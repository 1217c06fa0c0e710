package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daezeri/ffgimport/pkg/archive"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/library/memory"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

const talentsXML = `<?xml version="1.0" encoding="utf-8"?>
<Talents>
  <Talent>
    <Key>FORCEFUL</Key>
    <Name>Forceful</Name>
    <Description>Add force.</Description>
    <Ranked>false</Ranked>
    <ActivationValue>taIncidental</ActivationValue>
    <ForceTalent>true</ForceTalent>
  </Talent>
  <Talent>
    <Key>GRIT</Key>
    <Name>Grit</Name>
    <Description>Gain strain threshold.</Description>
    <Ranked>true</Ranked>
  </Talent>
</Talents>`

const weaponsXML = `<Weapons>
  <Weapon><Key>BLASTPIST</Key><Name>Blaster Pistol</Name><Damage>6</Damage><SkillKey>RANGLT</SkillKey></Weapon>
  <Weapon><Key>HOLDOUT</Key><Name>Holdout Blaster</Name><Damage>5</Damage><SkillKey>RANGLT</SkillKey></Weapon>
</Weapons>`

const skillsXML = `<Skills>
  <Skill><Key>RANGLT</Key><Name>Ranged (Light)</Name></Skill>
  <Skill><Key>BRAWL</Key><Name>Brawl</Name></Skill>
</Skills>`

const bodyguardXML = `<Specialization>
  <Key>BODYGUARD</Key>
  <Name>Bodyguard</Name>
  <Description>Protect the client.</Description>
  <CareerSkills><Key>RANGLT</Key><Key>BRAWL</Key></CareerSkills>
  <TalentRows>
    <TalentRow>
      <Cost>5</Cost>
      <Talents><Key>GRIT</Key><Key>MISSING</Key></Talents>
      <Directions>
        <Direction><Right>true</Right></Direction>
        <Direction></Direction>
      </Directions>
    </TalentRow>
  </TalentRows>
</Specialization>`

const abilitiesXML = `<ForceAbilities>
  <ForceAbility><Key>BINDBASIC</Key><Name>Bind Basic Power</Name><Description>Immobilize a target.</Description></ForceAbility>
  <ForceAbility><Key>BINDRANGE</Key><Name>Range</Name><Description>Increase range.</Description></ForceAbility>
</ForceAbilities>`

const bindXML = `<ForcePower>
  <Key>BIND</Key>
  <Name>Bind</Name>
  <AbilityRows>
    <AbilityRow><Abilities><Key>BINDBASIC</Key></Abilities></AbilityRow>
    <AbilityRow>
      <Abilities><Key>BINDRANGE</Key><Key>BINDRANGE</Key></Abilities>
      <Costs><Cost>5</Cost><Cost>5</Cost></Costs>
      <AbilitySpan><Span>2</Span><Span>2</Span></AbilitySpan>
    </AbilityRow>
  </AbilityRows>
</ForcePower>`

func buildArchive(t *testing.T, files ...string) *archive.Archive {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		w, err := zw.Create(files[i])
		require.NoError(t, err)
		_, err = w.Write([]byte(files[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	a, err := archive.FromBytes("test.zip", buf.Bytes())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

func records(t *testing.T, s library.Store, ct content.Type) []library.Record {
	t.Helper()
	coll, ok, err := s.Find(context.Background(), library.Compendium, ct)
	require.NoError(t, err)
	if !ok {
		return nil
	}
	recs, err := coll.Records(context.Background())
	require.NoError(t, err)
	return recs
}

func TestRunImportsTalent(t *testing.T) {
	a := buildArchive(t, "Data/Talents.xml", talentsXML)
	store := memory.New()
	var sink bytes.Buffer

	im, err := New(store, WithLogSink(&sink), WithClock(fixedClock))
	require.NoError(t, err)

	result, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 2}, result.Get(content.Talent))
	assert.True(t, result.IsSuccess())

	recs := records(t, store, content.Talent)
	require.Len(t, recs, 2)
	forceful := recs[0]
	assert.Equal(t, "Forceful", forceful.Name)
	assert.Equal(t, content.Talent, forceful.Type)
	assert.Equal(t, "FORCEFUL", forceful.ImportID())
	assert.Equal(t, "Add force.", forceful.Data.String("description"))
	assert.Equal(t, "Active (Incidental)", forceful.Data.String("activation.value"))
	assert.True(t, forceful.Data.Bool("isForceTalent"))
	assert.False(t, forceful.Data.Bool("ranks.ranked"))
	assert.True(t, recs[1].Data.Bool("ranks.ranked"))

	log := sink.String()
	for _, want := range []string{
		"[1700000000000] Starting Talent Import",
		"Beginning import of 2 talents",
		"Checking for existing compendium pack oggdude.Talents",
		"Start importing talent Forceful",
		"New talent Forceful : {",
		"End importing talent Forceful",
		"Completed Talent Import",
	} {
		assert.Contains(t, log, want)
	}
	for _, line := range result.Log {
		assert.True(t, strings.HasPrefix(line, "[1700000000000] "), line)
	}
}

func TestRunTwiceUpdates(t *testing.T) {
	a := buildArchive(t, "Data/Talents.xml", talentsXML, "Data/Weapons.xml", weaponsXML)
	store := memory.New()
	im, err := New(store)
	require.NoError(t, err)

	first, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.Equal(t, 4, first.Written())
	before := records(t, store, content.Weapon)

	second, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 2}, second.Get(content.Talent))
	assert.Equal(t, Counts{Updated: 2}, second.Get(content.Weapon))
	for _, instr := range second.Instructions {
		assert.Equal(t, reconcile.Update, instr.Kind)
		assert.NotEmpty(t, instr.Patch["_id"])
	}

	assert.Len(t, records(t, store, content.Talent), 2)
	assert.Equal(t, before, records(t, store, content.Weapon))
}

func TestRunDefersSpecializations(t *testing.T) {
	a := buildArchive(t,
		"Data/Skills.xml", skillsXML,
		"Data/Specializations/Bodyguard.xml", bodyguardXML,
		"Data/Talents.xml", talentsXML,
	)
	store := memory.New()
	var sink bytes.Buffer
	im, err := New(store, WithLogSink(&sink))
	require.NoError(t, err)

	// The directory is selected first but still runs after the talents.
	selections := []archive.Selection{
		{Label: "Specializations", Entry: "Data/Specializations", IsDir: true, Type: content.Specialization},
		{Label: "Talents", Entry: "Data/Talents.xml", Type: content.Talent},
	}
	result, err := im.Run(context.Background(), a, selections)
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1}, result.Get(content.Specialization))

	talents := records(t, store, content.Talent)
	require.Len(t, talents, 2)

	specs := records(t, store, content.Specialization)
	require.Len(t, specs, 1)
	spec := specs[0].Data

	assert.Equal(t, "Ranged: Light", spec.String("careerskills.0"))
	assert.Equal(t, "Brawl", spec.String("careerskills.1"))

	assert.Equal(t, "Grit", spec.String("talents.talent0.name"))
	assert.Equal(t, talents[1].ID, spec.String("talents.talent0.itemId"))
	assert.Equal(t, "compendium.oggdude.Talents", spec.String("talents.talent0.pack"))
	assert.True(t, spec.Bool("talents.talent0.isRanked"))
	assert.True(t, spec.Bool("talents.talent0.links-right"))

	_, ok := spec.Get("talents.talent1")
	assert.False(t, ok, "cell for an unknown talent is omitted")
	assert.Contains(t, sink.String(), "talent MISSING not found")

	log := sink.String()
	assert.Less(t, strings.Index(log, "Completed Talent Import"), strings.Index(log, "Starting Specialization Import"))
}

func TestRunReimportKeepsUnresolvedCareerSkills(t *testing.T) {
	full := buildArchive(t,
		"Data/Skills.xml", skillsXML,
		"Data/Specializations/Bodyguard.xml", bodyguardXML,
		"Data/Talents.xml", talentsXML,
	)
	store := memory.New()
	im, err := New(store)
	require.NoError(t, err)
	_, err = im.Run(context.Background(), full, full.Discover())
	require.NoError(t, err)

	// Without Skills.xml no career skill resolves.
	partial := buildArchive(t, "Data/Specializations/Bodyguard.xml", bodyguardXML)
	result, err := im.Run(context.Background(), partial, partial.Discover())
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 1}, result.Get(content.Specialization))
	for _, instr := range result.Instructions {
		assert.NotContains(t, instr.Patch, "data.careerskills")
	}

	specs := records(t, store, content.Specialization)
	require.Len(t, specs, 1)
	assert.Equal(t, "Ranged: Light", specs[0].Data.String("careerskills.0"))
	assert.Equal(t, "Brawl", specs[0].Data.String("careerskills.1"))
	assert.Equal(t, "Grit", specs[0].Data.String("talents.talent0.name"))
}

func TestRunPrefersLocalTalents(t *testing.T) {
	a := buildArchive(t,
		"Data/Skills.xml", skillsXML,
		"Data/Specializations/Bodyguard.xml", bodyguardXML,
		"Data/Talents.xml", talentsXML,
	)
	store := memory.New()
	ctx := context.Background()

	local, err := store.Collection(ctx, library.Local, content.Talent)
	require.NoError(t, err)
	id, err := local.Create(ctx, library.Record{
		Name:  "Grit (house rule)",
		Type:  content.Talent,
		Flags: content.Attributes{library.ImportIDFlag: "GRIT"},
		Data:  content.Attributes{"description": "Local"},
	})
	require.NoError(t, err)

	im, err := New(store)
	require.NoError(t, err)
	_, err = im.Run(ctx, a, a.Discover())
	require.NoError(t, err)

	specs := records(t, store, content.Specialization)
	require.Len(t, specs, 1)
	assert.Equal(t, "Grit (house rule)", specs[0].Data.String("talents.talent0.name"))
	assert.Equal(t, id, specs[0].Data.String("talents.talent0.itemId"))
	_, hasPack := specs[0].Data.Get("talents.talent0.pack")
	assert.False(t, hasPack)
}

func TestRunForcePowers(t *testing.T) {
	a := buildArchive(t,
		"Data/Force Abilities.xml", abilitiesXML,
		"Data/Force Powers/Bind.xml", bindXML,
	)
	store := memory.New()
	im, err := New(store)
	require.NoError(t, err)

	result, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1}, result.Get(content.ForcePower))

	recs := records(t, store, content.ForcePower)
	require.Len(t, recs, 1)
	data := recs[0].Data
	assert.Equal(t, "Immobilize a target.", data.String("description"))

	upgrades, ok := data.Get("upgrades")
	require.True(t, ok)
	assert.Len(t, upgrades, 16)
	assert.Equal(t, "Range", data.String("upgrades.upgrade0.name"))
	assert.Equal(t, "double", data.String("upgrades.upgrade0.size"))
	assert.False(t, data.Bool("upgrades.upgrade15.visible"))
}

func TestRunDryRun(t *testing.T) {
	a := buildArchive(t, "Data/Talents.xml", talentsXML)
	store := memory.New()
	im, err := New(store, WithDryRun(true))
	require.NoError(t, err)

	result, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.True(t, result.Metadata.DryRun)
	require.Len(t, result.Instructions, 2)
	assert.Equal(t, reconcile.Create, result.Instructions[0].Kind)
	assert.Equal(t, "Forceful", result.Instructions[0].Record.Name)

	assert.Empty(t, records(t, store, content.Talent))
}

func TestRunDryRunResolvesTalentsItWouldCreate(t *testing.T) {
	a := buildArchive(t,
		"Data/Skills.xml", skillsXML,
		"Data/Specializations/Bodyguard.xml", bodyguardXML,
		"Data/Talents.xml", talentsXML,
	)
	store := memory.New()
	im, err := New(store, WithDryRun(true))
	require.NoError(t, err)

	result, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)

	var spec *reconcile.WriteInstruction
	for _, instr := range result.Instructions {
		if instr.Type == content.Specialization {
			spec = instr
		}
	}
	require.NotNil(t, spec)
	require.Equal(t, reconcile.Create, spec.Kind)
	assert.Equal(t, "Grit", spec.Record.Data.String("talents.talent0.name"))
	assert.Equal(t, "compendium.oggdude.Talents", spec.Record.Data.String("talents.talent0.pack"))
	_, ok := spec.Record.Data.Get("talents.talent1")
	assert.False(t, ok, "talents missing from the archive stay omitted")

	assert.Empty(t, records(t, store, content.Talent))
	assert.Empty(t, records(t, store, content.Specialization))
}

func TestRunProgress(t *testing.T) {
	a := buildArchive(t, "Data/Weapons.xml", weaponsXML)
	store := memory.New()

	type event struct {
		t              content.Type
		current, total int
	}
	var mu sync.Mutex
	var events []event
	im, err := New(store, WithProgress(func(ct content.Type, current, total int) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event{ct, current, total})
	}))
	require.NoError(t, err)

	_, err = im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.Equal(t, []event{
		{content.Weapon, 1, 2},
		{content.Weapon, 2, 2},
	}, events)
}

func TestRunOnly(t *testing.T) {
	a := buildArchive(t, "Data/Talents.xml", talentsXML, "Data/Weapons.xml", weaponsXML)
	store := memory.New()
	im, err := New(store, WithOnly(content.Weapon))
	require.NoError(t, err)

	_, err = im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)

	_, ok, err := store.Find(context.Background(), library.Compendium, content.Talent)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, records(t, store, content.Weapon), 2)
}

func TestRunSkipsBadRecords(t *testing.T) {
	const doc = `<Talents>
  <Talent><Key>NONAME</Key></Talent>
  <Talent><Key>GRIT</Key><Name>Grit</Name></Talent>
</Talents>`
	a := buildArchive(t, "Data/Talents.xml", doc)
	store := memory.New()
	im, err := New(store)
	require.NoError(t, err)

	result, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1, Failed: 1}, result.Get(content.Talent))
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.IsValidationError(result.Errors[0]))
	assert.False(t, result.IsSuccess())
}

func TestRunUnparsableDocument(t *testing.T) {
	a := buildArchive(t, "Data/Talents.xml", "<Talents><Talent>", "Data/Weapons.xml", weaponsXML)
	store := memory.New()
	im, err := New(store)
	require.NoError(t, err)

	result, err := im.Run(context.Background(), a, a.Discover())
	require.NoError(t, err)
	assert.Len(t, records(t, store, content.Weapon), 2)
	assert.Equal(t, []string{"Data/Talents.xml", "Data/Weapons.xml"}, result.Metadata.Documents)
}

func TestRunCanceled(t *testing.T) {
	a := buildArchive(t, "Data/Talents.xml", talentsXML)
	store := memory.New()
	im, err := New(store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := im.Run(ctx, a, a.Discover())
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
	require.NotNil(t, result)
	assert.Zero(t, result.Written())
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = New(memory.New(), WithCanonicalSkills(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(memory.New(), WithEngine(nil))
	assert.True(t, errors.IsValidationError(err))
}

// countingArchive counts reads of each entry.
type countingArchive struct {
	*archive.Archive
	mu    sync.Mutex
	reads map[string]int
}

func (c *countingArchive) ReadText(name string) (string, error) {
	c.mu.Lock()
	c.reads[name]++
	c.mu.Unlock()
	return c.Archive.ReadText(name)
}

func TestSessionSkillMapBuiltOnce(t *testing.T) {
	a := &countingArchive{
		Archive: buildArchive(t, "Data/Skills.xml", skillsXML),
		reads:   map[string]int{},
	}
	s := newSession(a, content.DefaultSkills, false, time.Now)

	const readers = 8
	maps := make([]map[string]string, readers)
	var wg sync.WaitGroup
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.SkillMap(context.Background())
			assert.NoError(t, err)
			maps[i] = m
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.skillBuilds)
	assert.Equal(t, 1, a.reads["Data/Skills.xml"])
	for _, m := range maps {
		assert.Equal(t, reflect.ValueOf(maps[0]).Pointer(), reflect.ValueOf(m).Pointer())
	}
	assert.Equal(t, "Ranged: Light", maps[0]["RANGLT"])
}

func TestSessionSkillMapMissing(t *testing.T) {
	s := newSession(buildArchive(t, "Data/Talents.xml", talentsXML), content.DefaultSkills, false, time.Now)

	_, err := s.SkillMap(context.Background())
	assert.True(t, errors.IsNotFound(err))
	_, again := s.SkillMap(context.Background())
	assert.Equal(t, err, again)
	assert.Equal(t, 1, s.skillBuilds)
}

func TestSessionLogDisabled(t *testing.T) {
	s := newSession(nil, nil, false, time.Now)
	s.Logf("Starting %s Import", "Talent")
	assert.Empty(t, s.Lines())

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}
