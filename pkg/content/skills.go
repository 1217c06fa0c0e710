package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultSkills is the canonical skill list career skills are matched against.
var DefaultSkills = []string{
	"Astrogation",
	"Athletics",
	"Brawl",
	"Charm",
	"Coercion",
	"Computers",
	"Cool",
	"Coordination",
	"Core Worlds",
	"Deception",
	"Discipline",
	"Education",
	"Gunnery",
	"Leadership",
	"Lightsaber",
	"Lore",
	"Mechanics",
	"Medicine",
	"Melee",
	"Negotiation",
	"Outer Rim",
	"Perception",
	"Piloting: Planetary",
	"Piloting: Space",
	"Ranged: Heavy",
	"Ranged: Light",
	"Resilience",
	"Skulduggery",
	"Stealth",
	"Streetwise",
	"Survival",
	"Underworld",
	"Vigilance",
	"Xenology",
	"Warfare",
}

// SkillFold reduces a skill name to its comparison form: case folded with
// every non-letter removed, so "Piloting (Space)" and "piloting: space" agree.
func SkillFold(name string) string {
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, name)
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(letters)
}

// CanonicalSkill returns the entry of canonical that matches name under
// SkillFold, or "" when none does.
func CanonicalSkill(name string, canonical []string) string {
	want := SkillFold(name)
	if want == "" {
		return ""
	}
	for _, c := range canonical {
		if SkillFold(c) == want {
			return c
		}
	}
	return ""
}
