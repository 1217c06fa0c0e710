package sourcexml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/daezeri/ffgimport/pkg/errors"
)

const mixedDoc = `<?xml version="1.0" encoding="utf-8"?>
<Items>
  <Talent>
    <Key>GRIT</Key>
    <Name>Grit</Name>
    <Description>Gain +1 strain threshold.</Description>
    <Ranked>true</Ranked>
    <ActivationValue>taPassive</ActivationValue>
  </Talent>
  <Weapon>
    <Key>BLASTPIST</Key>
    <Name>Blaster Pistol</Name>
    <Damage>6</Damage>
    <Crit>3</Crit>
    <SkillKey>RANGLT</SkillKey>
    <Range>wrMedium</Range>
    <Qualities>
      <Quality><Key>STUNSETTING</Key></Quality>
      <Quality><Key>ACCURATE</Key><Count>1</Count></Quality>
    </Qualities>
  </Weapon>
  <Talent>
    <Key>TOUGH</Key>
    <Name>Toughened</Name>
  </Talent>
  <Gear><Key>STIM</Key><Name>Stimpack</Name><Price>25</Price></Gear>
  <Armor><Key>PADDED</Key><Name>Padded Armor</Name><Soak>2</Soak><Defense>0</Defense></Armor>
  <ForceAbilities>
    <ForceAbility><Key>BINDBASIC</Key><Name>Bind Basic Power</Name><Description>Immobilize.</Description></ForceAbility>
  </ForceAbilities>
</Items>`

func TestParseMixedDocument(t *testing.T) {
	doc, err := ParseString("Data/Items.xml", mixedDoc)
	require.NoError(t, err)

	assert.Equal(t, "Data/Items.xml", doc.Source)
	require.Len(t, doc.Talents, 2)
	assert.Equal(t, "Grit", doc.Talents[0].Name, "document order")
	assert.Equal(t, "true", doc.Talents[0].Ranked)
	assert.Equal(t, "Toughened", doc.Talents[1].Name)
	assert.Empty(t, doc.Talents[1].ActivationValue)

	require.Len(t, doc.Weapons, 1)
	w := doc.Weapons[0]
	assert.Equal(t, "BLASTPIST", w.Key, "own Key, not a quality's")
	assert.Equal(t, []Quality{{Key: "STUNSETTING"}, {Key: "ACCURATE", Count: "1"}}, w.Qualities)

	require.Len(t, doc.Gear, 1)
	assert.Equal(t, "25", doc.Gear[0].Price)
	require.Len(t, doc.Armor, 1)
	assert.Equal(t, "2", doc.Armor[0].Soak)

	ability, ok := doc.FindAbility("BINDBASIC")
	require.True(t, ok)
	assert.Equal(t, "Immobilize.", ability.Description)
	_, ok = doc.FindAbility("NOPE")
	assert.False(t, ok)
	assert.False(t, doc.Empty())
}

func TestParseEmptyAndMalformed(t *testing.T) {
	doc, err := ParseString("empty.xml", "<Vehicles><Vehicle/></Vehicles>")
	require.NoError(t, err)
	assert.True(t, doc.Empty())

	_, err = ParseString("broken.xml", "<Talents><Talent><Name>x</Talent>")
	require.Error(t, err)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseDeclaredCharset(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String(
		`<?xml version="1.0" encoding="windows-1252"?><Talents><Talent><Name>Señor</Name></Talent></Talents>`)
	require.NoError(t, err)

	doc, err := Parse("latin.xml", bytes.NewReader([]byte(encoded)))
	require.NoError(t, err)
	require.Len(t, doc.Talents, 1)
	assert.Equal(t, "Señor", doc.Talents[0].Name)
}

func TestParseForcePower(t *testing.T) {
	const text = `<ForcePower>
  <Key>BIND</Key>
  <Name>Bind</Name>
  <AbilityRows>
    <AbilityRow>
      <Abilities><Key>BINDBASIC</Key></Abilities>
    </AbilityRow>
    <AbilityRow>
      <Abilities><Key>BINDRANGE</Key><Key>BINDRANGE</Key><Key>BINDMAG</Key><Key>BINDMAG</Key></Abilities>
      <Directions>
        <Direction><Up>true</Up></Direction>
        <Direction><Right>true</Right></Direction>
        <Direction/>
        <Direction><Up>true</Up></Direction>
      </Directions>
      <AbilitySpan><Span>2</Span><Span>0</Span><Span>2</Span><Span>0</Span></AbilitySpan>
      <Costs><Cost>10</Cost><Cost>10</Cost><Cost>15</Cost><Cost>15</Cost></Costs>
    </AbilityRow>
  </AbilityRows>
</ForcePower>`

	fp, err := ParseForcePower("Bind.xml", strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "Bind", fp.Name)
	require.Len(t, fp.AbilityRows, 2)
	assert.Equal(t, []string{"BINDBASIC"}, fp.AbilityRows[0].Abilities)

	row := fp.AbilityRows[1]
	assert.Equal(t, []string{"2", "0", "2", "0"}, row.Spans)
	assert.Equal(t, []string{"10", "10", "15", "15"}, row.Costs)
	require.Len(t, row.Directions, 4)
	assert.Equal(t, "true", row.Directions[0].Up)
	assert.Equal(t, "true", row.Directions[1].Right)
	assert.Equal(t, Direction{}, row.Directions[2])
}

func TestParseForcePowerMissingRoot(t *testing.T) {
	_, err := ParseForcePower("Other.xml", strings.NewReader("<Talents/>"))
	require.Error(t, err)
	assert.True(t, errors.IsSourceFormat(err))
}

func TestParseSpecialization(t *testing.T) {
	const text = `<Specialization>
  <Key>BODYGUARD</Key>
  <Name>Bodyguard</Name>
  <Description>Protector.</Description>
  <CareerSkills><Key>GUNN</Key><Key>PERC</Key></CareerSkills>
  <TalentRows>
    <TalentRow>
      <Cost>5</Cost>
      <Talents><Key>TOUGH</Key><Key>BARRAG</Key></Talents>
      <Directions><Direction><Right>true</Right></Direction><Direction/></Directions>
    </TalentRow>
  </TalentRows>
</Specialization>`

	spec, err := ParseSpecialization("Bodyguard.xml", strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "BODYGUARD", spec.Key)
	assert.Equal(t, []string{"GUNN", "PERC"}, spec.CareerSkills)
	require.Len(t, spec.TalentRows, 1)
	assert.Equal(t, []string{"TOUGH", "BARRAG"}, spec.TalentRows[0].Talents)
	assert.Equal(t, "true", spec.TalentRows[0].Directions[0].Right)
}

func TestParseSkills(t *testing.T) {
	const text = `<Skills>
  <Skill><Key>GUNN</Key><Name>Gunnery</Name><TypeValue>stCombat</TypeValue></Skill>
  <Skill><Key>PILOTSP</Key><Name>Piloting (Space)</Name></Skill>
</Skills>`

	skills, err := ParseSkills("Skills.xml", strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []Skill{
		{Key: "GUNN", Name: "Gunnery", TypeValue: "stCombat"},
		{Key: "PILOTSP", Name: "Piloting (Space)"},
	}, skills)
}
