// Package content defines the normalized records produced by an import run.
//
// A DraftRecord is store-agnostic: mappers produce it from source documents,
// the reconcile package turns it into a write against a library collection.
package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/daezeri/ffgimport/pkg/errors"
)

// Type identifies the kind of rules content a record describes.
type Type string

// Content types.
const (
	Talent         Type = "talent"
	Gear           Type = "gear"
	Weapon         Type = "weapon"
	Armor          Type = "armour"
	ForcePower     Type = "forcepower"
	Specialization Type = "specialization"
)

// Types lists every content type in import order.
var Types = []Type{Talent, ForcePower, Gear, Weapon, Armor, Specialization}

// String returns the stored item type.
func (t Type) String() string {
	return string(t)
}

// Label returns the human readable plural used for collections and log lines.
func (t Type) Label() string {
	switch t {
	case Talent:
		return "Talents"
	case Gear:
		return "Gear"
	case Weapon:
		return "Weapons"
	case Armor:
		return "Armor"
	case ForcePower:
		return "ForcePowers"
	case Specialization:
		return "Specializations"
	default:
		return string(t)
	}
}

// Noun returns the singular word used in import log lines.
func (t Type) Noun() string {
	switch t {
	case ForcePower:
		return "force power"
	case Armor:
		return "armor"
	case Specialization:
		return "Specialization"
	default:
		return string(t)
	}
}

// ParseType parses a content type from a flag value such as "talents",
// "force-powers" or "armour". Matching ignores case and punctuation.
func ParseType(s string) (Type, error) {
	norm := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(s))
	switch norm {
	case "talent", "talents":
		return Talent, nil
	case "gear":
		return Gear, nil
	case "weapon", "weapons":
		return Weapon, nil
	case "armor", "armour", "armors", "armours":
		return Armor, nil
	case "forcepower", "forcepowers", "forceabilities", "force":
		return ForcePower, nil
	case "specialization", "specializations", "specs":
		return Specialization, nil
	}
	return "", errors.NewValidationError("type", s, "unknown content type")
}

// Attributes holds content-type-specific fields. Values are string, float64,
// bool or nested Attributes.
type Attributes map[string]any

// Set assigns value at a dotted path, creating intermediate maps.
func (a Attributes) Set(path string, value any) {
	parts := strings.Split(path, ".")
	cur := a
	for _, p := range parts[:len(parts)-1] {
		next, ok := asAttributes(cur[p])
		if !ok {
			next = Attributes{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Delete removes the value at a dotted path. Missing paths are ignored.
func (a Attributes) Delete(path string) {
	parts := strings.Split(path, ".")
	cur := a
	for _, p := range parts[:len(parts)-1] {
		next, ok := asAttributes(cur[p])
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

// Flatten returns every leaf value keyed by its dotted path, prefixed with
// prefix when non-empty. Empty nested maps are kept as leaves so they survive
// a round trip through Set.
func (a Attributes) Flatten(prefix string) map[string]any {
	out := map[string]any{}
	a.flattenInto(prefix, out)
	return out
}

func (a Attributes) flattenInto(prefix string, out map[string]any) {
	for k, v := range a {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := asAttributes(v); ok && len(m) > 0 {
			m.flattenInto(key, out)
			continue
		}
		out[key] = v
	}
}

// Get returns the value at a dotted path.
func (a Attributes) Get(path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = a
	for _, p := range parts {
		m, ok := asAttributes(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at path as a string, or "" when absent.
func (a Attributes) String(path string) string {
	v, ok := a.Get(path)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the value at path as a bool. Stored strings go through
// ParseSourceBool.
func (a Attributes) Bool(path string) bool {
	v, ok := a.Get(path)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return ParseSourceBool(b)
	}
	return false
}

// Keys returns the top level keys in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		if m, ok := asAttributes(v); ok {
			out[k] = m.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// asAttributes accepts both Attributes and plain maps, which is what JSON
// and YAML decoding produce.
func asAttributes(v any) (Attributes, bool) {
	switch m := v.(type) {
	case Attributes:
		return m, true
	case map[string]any:
		return Attributes(m), true
	}
	return nil, false
}

// StagedAssetRef points at an image copied out of the archive.
type StagedAssetRef struct {
	// Path is where the asset was staged, relative to the assets root.
	Path string `json:"path" yaml:"path"`

	// Source is the archive entry it was read from.
	Source string `json:"source" yaml:"source"`
}

// DraftRecord is one importable content item before reconciliation.
type DraftRecord struct {
	Name       string          `json:"name" yaml:"name"`
	Type       Type            `json:"type" yaml:"type"`
	ImportKey  string          `json:"importKey" yaml:"importKey"`
	Attributes Attributes      `json:"data" yaml:"data"`
	Image      *StagedAssetRef `json:"img,omitempty" yaml:"img,omitempty"`

	// Notes are diagnostics gathered while mapping. They are logged, never stored.
	Notes []string `json:"-" yaml:"-"`
}

// NewDraft returns a draft with an empty attribute map.
func NewDraft(t Type, name, importKey string) *DraftRecord {
	return &DraftRecord{
		Name:       name,
		Type:       t,
		ImportKey:  importKey,
		Attributes: Attributes{},
	}
}

// Validate checks the draft invariants.
func (d *DraftRecord) Validate() error {
	if d == nil {
		return errors.NewValidationError("draft", nil, "cannot be nil")
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewValidationError("name", d.ImportKey, fmt.Sprintf("%s record has no name", d.Type))
	}
	if d.Type == "" {
		return errors.NewValidationError("type", d.Name, "record has no content type")
	}
	return nil
}

// ParseSourceBool coerces source text to a bool. Only the literal "true"
// is true; anything else, including empty, is false.
func ParseSourceBool(text string) bool {
	return text == "true"
}
