package mapper

import (
	"context"
	"fmt"
	"strings"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/gridlayout"
	"github.com/daezeri/ffgimport/pkg/sourcexml"
)

// ForcePowerFiles lists the per-power documents in archive order.
func ForcePowerFiles(src Source) []string {
	return src.XMLFilesIn(ForcePowersDir)
}

// ForcePowers yields one draft per force power document in the archive. It
// is driven by a catalog document: when catalog holds no ForceAbility
// elements the sequence is empty.
func ForcePowers(ctx context.Context, catalog *sourcexml.Document, src Source) Sequence {
	return func(yield func(*content.DraftRecord, error) bool) {
		if len(catalog.ForceAbilities) == 0 {
			return
		}
		for _, file := range ForcePowerFiles(src) {
			if ctx.Err() != nil {
				return
			}
			text, err := src.ReadText(file)
			if err != nil {
				if !yield(nil, &RecordError{Type: content.ForcePower, Key: file, Err: err}) {
					return
				}
				continue
			}
			fp, err := sourcexml.ParseForcePower(file, strings.NewReader(text))
			if err != nil {
				if !yield(nil, &RecordError{Type: content.ForcePower, Key: file, Err: err}) {
					return
				}
				continue
			}
			if !emit(yield, ForcePower(fp, catalog)) {
				return
			}
		}
	}
}

// ForcePower projects a parsed power against the abilities catalog. Row 0's
// first key supplies the description; a missing base ability leaves it
// empty. Rows with unresolvable keys are dropped and noted.
func ForcePower(fp *sourcexml.ForcePower, catalog *sourcexml.Document) *content.DraftRecord {
	d := content.NewDraft(content.ForcePower, fp.Name, fp.Key)

	description := ""
	if len(fp.AbilityRows) > 0 && len(fp.AbilityRows[0].Abilities) > 0 {
		base := fp.AbilityRows[0].Abilities[0]
		if ability, ok := catalog.FindAbility(base); ok {
			description = ability.Description
		} else {
			d.Notes = append(d.Notes, errors.NewLookupMissError("ability", base).Error())
		}
	} else {
		d.Notes = append(d.Notes, errors.NewSourceFormatError(fp.Key, "AbilityRows", "no base ability row").Error())
	}
	d.Attributes.Set("description", description)

	rows := make([]gridlayout.Row, len(fp.AbilityRows))
	for i, r := range fp.AbilityRows {
		rows[i] = gridlayout.Row{
			Keys:       r.Abilities,
			Costs:      r.Costs,
			Spans:      r.Spans,
			Directions: directions(r.Directions),
		}
	}

	grid, skipped := gridlayout.ForcePower(rows, func(key string) (*gridlayout.Ability, bool) {
		a, ok := catalog.FindAbility(key)
		if !ok {
			return nil, false
		}
		return &gridlayout.Ability{Name: a.Name, Description: a.Description}, true
	})
	for _, err := range skipped {
		d.Notes = append(d.Notes, fmt.Sprintf("force power %s: %v", fp.Name, err))
	}
	d.Attributes.Set("upgrades", grid.Attributes())
	return d
}

func directions(in []sourcexml.Direction) []gridlayout.Direction {
	out := make([]gridlayout.Direction, len(in))
	for i, dir := range in {
		out[i] = gridlayout.Direction{
			Up:    content.ParseSourceBool(dir.Up),
			Right: content.ParseSourceBool(dir.Right),
		}
	}
	return out
}
