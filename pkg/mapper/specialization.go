package mapper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/gridlayout"
	"github.com/daezeri/ffgimport/pkg/sourcexml"
)

// SpecializationFiles lists the per-specialization documents in archive order.
func SpecializationFiles(src Source) []string {
	return src.XMLFilesIn(SpecializationsDir)
}

// Specializations yields one draft per specialization document.
func Specializations(ctx context.Context, src Source, skills SkillMap, talents TalentFinder) Sequence {
	return func(yield func(*content.DraftRecord, error) bool) {
		for _, file := range SpecializationFiles(src) {
			if ctx.Err() != nil {
				return
			}
			text, err := src.ReadText(file)
			if err != nil {
				if !yield(nil, &RecordError{Type: content.Specialization, Key: file, Err: err}) {
					return
				}
				continue
			}
			spec, err := sourcexml.ParseSpecialization(file, strings.NewReader(text))
			if err != nil {
				if !yield(nil, &RecordError{Type: content.Specialization, Key: file, Err: err}) {
					return
				}
				continue
			}
			if !emit(yield, Specialization(ctx, spec, skills, talents)) {
				return
			}
		}
	}
}

// Specialization projects a parsed specialization. Career skills that cannot
// be resolved are left out, as are talent cells whose talent is not found in
// any store.
func Specialization(ctx context.Context, spec *sourcexml.Specialization, skills SkillMap, talents TalentFinder) *content.DraftRecord {
	d := content.NewDraft(content.Specialization, spec.Name, spec.Key)
	d.Attributes.Set("description", spec.Description)
	d.Attributes.Set("careerskills", careerSkills(ctx, d, spec.CareerSkills, skills))

	rows := make([]gridlayout.Row, len(spec.TalentRows))
	for i, r := range spec.TalentRows {
		rows[i] = gridlayout.Row{
			Keys:       r.Talents,
			Directions: directions(r.Directions),
		}
	}

	grid, missing := gridlayout.Specialization(rows, func(key string) (*gridlayout.TalentRef, bool) {
		if talents == nil {
			return nil, false
		}
		ref, ok, err := talents.FindTalent(ctx, key)
		if err != nil {
			d.Notes = append(d.Notes, fmt.Sprintf("talent %s lookup failed: %v", key, err))
			return nil, false
		}
		return ref, ok
	})
	for _, key := range missing {
		d.Notes = append(d.Notes, fmt.Sprintf("talent %s not found, cell omitted", key))
	}
	d.Attributes.Set("talents", grid.Attributes())
	return d
}

func careerSkills(ctx context.Context, d *content.DraftRecord, keys []string, skills SkillMap) content.Attributes {
	out := content.Attributes{}
	if skills == nil || len(keys) == 0 {
		return out
	}
	table, err := skills(ctx)
	if err != nil {
		d.Notes = append(d.Notes, fmt.Sprintf("career skills skipped: %v", err))
		return out
	}
	for _, key := range keys {
		name, ok := table[key]
		if !ok || name == "" {
			d.Notes = append(d.Notes, fmt.Sprintf("career skill %s has no canonical name", key))
			continue
		}
		out[strconv.Itoa(len(out))] = name
	}
	return out
}

// SkillTable maps each catalog skill key to the canonical skill its name
// matches. Skills without a canonical match map to "".
func SkillTable(catalog []sourcexml.Skill, canonical []string) map[string]string {
	table := make(map[string]string, len(catalog))
	for _, s := range catalog {
		if _, seen := table[s.Key]; seen {
			continue
		}
		table[s.Key] = content.CanonicalSkill(s.Name, canonical)
	}
	return table
}
