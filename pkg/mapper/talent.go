package mapper

import (
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/sourcexml"
)

// Passive is the activation label for any unknown or missing code.
const Passive = "Passive"

var activationLabels = map[string]string{
	"taManeuver":      "Active (Maneuver)",
	"taAction":        "Active (Action)",
	"taIncidental":    "Active (Incidental)",
	"taIncidentalOOT": "Active (Incidental, Out of Turn)",
}

// ActivationLabel maps a source activation code to its label.
func ActivationLabel(code string) string {
	if label, ok := activationLabels[code]; ok {
		return label
	}
	return Passive
}

// Talents yields one draft per <Talent> element.
func Talents(doc *sourcexml.Document) Sequence {
	return func(yield func(*content.DraftRecord, error) bool) {
		for _, t := range doc.Talents {
			if !emit(yield, Talent(t)) {
				return
			}
		}
	}
}

// Talent projects a single talent element.
func Talent(t sourcexml.Talent) *content.DraftRecord {
	d := content.NewDraft(content.Talent, t.Name, t.Key)
	d.Attributes.Set("description", t.Description)
	d.Attributes.Set("ranks.ranked", content.ParseSourceBool(t.Ranked))
	d.Attributes.Set("activation.value", ActivationLabel(t.ActivationValue))
	d.Attributes.Set("isForceTalent", content.ParseSourceBool(t.ForceTalent))
	return d
}
