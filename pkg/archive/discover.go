package archive

import (
	"path"
	"strings"

	"github.com/daezeri/ffgimport/pkg/content"
)

// Selection is one importable entry found in an archive.
type Selection struct {
	// Label is the source name, e.g. "Talents" or "Force Abilities".
	Label string `json:"label" yaml:"label"`

	// Entry is the archive path. For directories it has no trailing slash.
	Entry string `json:"entry" yaml:"entry"`

	// IsDir marks a directory selection. Directory selections defer to the
	// specialization pass.
	IsDir bool `json:"is_dir" yaml:"is_dir"`

	// Type is the content type this entry primarily carries. A document may
	// still contain other types mixed in.
	Type content.Type `json:"type" yaml:"type"`
}

type selectable struct {
	label string
	dir   bool
	typ   content.Type
}

var selectables = []selectable{
	{label: "Talents", typ: content.Talent},
	{label: "Force Abilities", typ: content.ForcePower},
	{label: "Gear", typ: content.Gear},
	{label: "Weapons", typ: content.Weapon},
	{label: "Armor", typ: content.Armor},
	{label: "Specializations", dir: true, typ: content.Specialization},
}

// Discover finds the selectable entries: Talents.xml, Force Abilities.xml,
// Gear.xml, Weapons.xml, Armor.xml and the Specializations directory. The
// first match in archive order wins for each label.
func (a *Archive) Discover() []Selection {
	var out []Selection
	for _, s := range selectables {
		if s.dir {
			if dir, ok := a.findDir(s.label); ok {
				out = append(out, Selection{Label: s.label, Entry: dir, IsDir: true, Type: s.typ})
			}
			continue
		}
		if entry, ok := a.FindFile(s.label + ".xml"); ok {
			out = append(out, Selection{Label: s.label, Entry: entry, Type: s.typ})
		}
	}
	return out
}

// findDir returns the path of the first directory named base.
func (a *Archive) findDir(base string) (string, bool) {
	for _, e := range a.entries {
		trimmed := strings.TrimSuffix(e, "/")
		for dir := trimmed; dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
			if path.Base(dir) == base && a.IsDir(dir) {
				return dir, true
			}
		}
	}
	return "", false
}
