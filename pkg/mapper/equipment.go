package mapper

import (
	"context"
	"strings"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/sourcexml"
)

var weaponSkills = map[string]string{
	"RANGLT":  "Ranged: Light",
	"RANGHVY": "Ranged: Heavy",
	"GUNN":    "Gunnery",
	"BRAWL":   "Brawl",
	"MELEE":   "Melee",
	"LTSABER": "Lightsaber",
}

// WeaponSkill maps a weapon skill code to the skill name, or "" when unknown.
func WeaponSkill(code string) string {
	return weaponSkills[code]
}

// QualityList joins qualities as "KEY COUNT" tokens separated by commas.
// The count is left out when absent.
func QualityList(qualities []sourcexml.Quality) string {
	tokens := make([]string, 0, len(qualities))
	for _, q := range qualities {
		tokens = append(tokens, strings.TrimSpace(q.Key+" "+q.Count))
	}
	return strings.Join(tokens, ",")
}

func setCommon(d *content.DraftRecord, description, encumbrance, price, rarity string) {
	d.Attributes.Set("description", description)
	d.Attributes.Set("encumbrance.value", encumbrance)
	d.Attributes.Set("price.value", price)
	d.Attributes.Set("rarity.value", rarity)
}

// GearItems yields one draft per <Gear> element.
func GearItems(ctx context.Context, doc *sourcexml.Document, images ImageResolver) Sequence {
	return func(yield func(*content.DraftRecord, error) bool) {
		for _, g := range doc.Gear {
			d := Gear(g)
			resolveImage(ctx, images, d, "Gear")
			if !emit(yield, d) {
				return
			}
		}
	}
}

// Gear projects a single gear element.
func Gear(g sourcexml.Gear) *content.DraftRecord {
	d := content.NewDraft(content.Gear, g.Name, g.Key)
	setCommon(d, g.Description, g.Encumbrance, g.Price, g.Rarity)
	return d
}

// Weapons yields one draft per <Weapon> element.
func Weapons(ctx context.Context, doc *sourcexml.Document, images ImageResolver) Sequence {
	return func(yield func(*content.DraftRecord, error) bool) {
		for _, w := range doc.Weapons {
			d := Weapon(w)
			resolveImage(ctx, images, d, "Weapon")
			if !emit(yield, d) {
				return
			}
		}
	}
}

// Weapon projects a single weapon element. A blank damage shows the damage
// add value instead; a non-empty damage add is also recorded as a weapon
// stat modifier.
func Weapon(w sourcexml.Weapon) *content.DraftRecord {
	d := content.NewDraft(content.Weapon, w.Name, w.Key)
	setCommon(d, w.Description, w.Encumbrance, w.Price, w.Rarity)

	damage := w.Damage
	if damage == "" {
		damage = w.DamageAdd
	}
	d.Attributes.Set("damage.value", damage)
	d.Attributes.Set("crit.value", w.Crit)
	d.Attributes.Set("special.value", QualityList(w.Qualities))
	d.Attributes.Set("skill.value", WeaponSkill(w.SkillKey))
	d.Attributes.Set("range.value", w.Range)
	d.Attributes.Set("hardpoints.value", w.HP)

	if w.DamageAdd != "" {
		d.Attributes.Set("attributes.attr1", content.Attributes{
			"isCheckbox": false,
			"mod":        "damage",
			"modtype":    "Weapon Stat",
			"value":      w.DamageAdd,
		})
	}
	return d
}

// ArmorItems yields one draft per <Armor> element.
func ArmorItems(ctx context.Context, doc *sourcexml.Document, images ImageResolver) Sequence {
	return func(yield func(*content.DraftRecord, error) bool) {
		for _, a := range doc.Armor {
			d := Armor(a)
			resolveImage(ctx, images, d, "Armor")
			if !emit(yield, d) {
				return
			}
		}
	}
}

// Armor projects a single armor element.
func Armor(a sourcexml.Armor) *content.DraftRecord {
	d := content.NewDraft(content.Armor, a.Name, a.Key)
	setCommon(d, a.Description, a.Encumbrance, a.Price, a.Rarity)
	d.Attributes.Set("defence.value", a.Defense)
	d.Attributes.Set("soak.value", a.Soak)
	d.Attributes.Set("hardpoints.value", a.HP)
	return d
}
