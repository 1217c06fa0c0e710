package reconcile

import (
	"encoding/json"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/library"
)

// Kind is the write an instruction performs.
type Kind string

// Write kinds.
const (
	Create Kind = "create"
	Update Kind = "update"
)

// WriteInstruction is the outcome of reconciling one draft.
type WriteInstruction struct {
	Kind Kind         `json:"kind" yaml:"kind"`
	Type content.Type `json:"type" yaml:"type"`
	Name string       `json:"name" yaml:"name"`

	// TargetID is the matched record for updates.
	TargetID string `json:"target_id,omitempty" yaml:"target_id,omitempty"`

	// Record is the full payload of a create.
	Record *library.Record `json:"record,omitempty" yaml:"record,omitempty"`

	// Patch is the dotted path payload of an update, including "_id".
	Patch library.Patch `json:"patch,omitempty" yaml:"patch,omitempty"`
}

// Payload returns the record for creates and the patch for updates.
func (w *WriteInstruction) Payload() any {
	if w.Kind == Create {
		return w.Record
	}
	return w.Patch
}

// PayloadJSON renders the payload for the import log.
func (w *WriteInstruction) PayloadJSON() string {
	data, err := json.Marshal(w.Payload())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// NewRecord builds the full record a create writes.
func NewRecord(d *content.DraftRecord) library.Record {
	rec := library.Record{
		Name:  d.Name,
		Type:  d.Type,
		Flags: content.Attributes{library.ImportIDFlag: d.ImportKey},
		Data:  d.Attributes.Clone(),
	}
	if rec.Data == nil {
		rec.Data = content.Attributes{}
	}
	if d.Image != nil {
		rec.Img = d.Image.Path
	}
	return rec
}

// BuildUpdateData flattens a draft into a dotted path patch: "name", "type",
// "flags.importid", "img" when an image was staged, and one "data.<path>"
// entry per attribute leaf. Empty maps are left out so an update never
// clears a subtree the draft could not resolve.
func BuildUpdateData(d *content.DraftRecord) library.Patch {
	patch := library.Patch{
		"name": d.Name,
		"type": string(d.Type),
	}
	patch["flags."+library.ImportIDFlag] = d.ImportKey
	if d.Image != nil {
		patch["img"] = d.Image.Path
	}
	for path, value := range d.Attributes.Flatten("data") {
		if isEmptyMap(value) {
			continue
		}
		patch[path] = value
	}
	return patch
}

func isEmptyMap(v any) bool {
	switch m := v.(type) {
	case content.Attributes:
		return len(m) == 0
	case map[string]any:
		return len(m) == 0
	}
	return false
}
