package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daezeri/ffgimport/pkg/errors"
)

func TestParseSourceBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"True", false},
		{"TRUE", false},
		{"1", false},
		{"", false},
		{" true", false},
		{"false", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSourceBool(tt.in))
		})
	}
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{
		"talents":         Talent,
		"Force Powers":    ForcePower,
		"force-abilities": ForcePower,
		"gear":            Gear,
		"WEAPONS":         Weapon,
		"armor":           Armor,
		"armour":          Armor,
		"specializations": Specialization,
	}
	for in, want := range tests {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseType("vehicles")
	assert.True(t, errors.IsValidationError(err))
}

func TestAttributesSetGet(t *testing.T) {
	a := Attributes{}
	a.Set("price.value", "150")
	a.Set("ranks.ranked", true)
	a.Set("description", "text")

	assert.Equal(t, "150", a.String("price.value"))
	assert.True(t, a.Bool("ranks.ranked"))
	assert.Equal(t, "text", a.String("description"))
	assert.Equal(t, "", a.String("rarity.value"))
	assert.Equal(t, []string{"description", "price", "ranks"}, a.Keys())

	_, ok := a.Get("description.value")
	assert.False(t, ok)
}

func TestAttributesGetPlainMaps(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"activation":{"value":"Passive"},"isForceTalent":"true"}`), &decoded))

	a := Attributes(decoded)
	assert.Equal(t, "Passive", a.String("activation.value"))
	assert.True(t, a.Bool("isForceTalent"))
}

func TestAttributesClone(t *testing.T) {
	a := Attributes{}
	a.Set("damage.value", "6")

	b := a.Clone()
	b.Set("damage.value", "8")

	assert.Equal(t, "6", a.String("damage.value"))
	assert.Equal(t, "8", b.String("damage.value"))
}

func TestDraftValidate(t *testing.T) {
	require.NoError(t, NewDraft(Talent, "Grit", "GRIT").Validate())

	err := NewDraft(Weapon, "  ", "BLASTPIST").Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	err = (&DraftRecord{Name: "Grit"}).Validate()
	assert.True(t, errors.IsValidationError(err))
}

func TestCanonicalSkill(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Piloting (Space)", "Piloting: Space"},
		{"RANGED - LIGHT", "Ranged: Light"},
		{"Knowledge (Core Worlds)", ""},
		{"Core Worlds", "Core Worlds"},
		{"cool", "Cool"},
		{"", ""},
		{"!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalSkill(tt.in, DefaultSkills))
		})
	}
}

func TestTypeLabels(t *testing.T) {
	assert.Equal(t, "Talents", Talent.Label())
	assert.Equal(t, "ForcePowers", ForcePower.Label())
	assert.Equal(t, "armour", Armor.String())
	assert.Equal(t, "force power", ForcePower.Noun())
	assert.Len(t, Types, 6)
}

func TestAttributesFlatten(t *testing.T) {
	a := Attributes{}
	a.Set("price.value", "150")
	a.Set("upgrades.upgrade0.links-top-1", true)
	a["careerskills"] = Attributes{}

	assert.Equal(t, map[string]any{
		"data.price.value":                   "150",
		"data.upgrades.upgrade0.links-top-1": true,
		"data.careerskills":                  Attributes{},
	}, a.Flatten("data"))

	round := Attributes{}
	for k, v := range a.Flatten("") {
		round.Set(k, v)
	}
	assert.Equal(t, a, round)
}

func TestAttributesSetIntoDecodedMaps(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"price":{"value":"10"},"rarity":{"value":"1"}}`), &decoded))

	a := Attributes(decoded)
	a.Set("price.value", "20")
	assert.Equal(t, "20", a.String("price.value"))
	assert.Equal(t, "1", a.String("rarity.value"), "siblings are kept")

	a.Delete("rarity.value")
	_, ok := a.Get("rarity.value")
	assert.False(t, ok)
	a.Delete("missing.path")
}
