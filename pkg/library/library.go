// Package library defines the indexed content library imports write into.
//
// A library is a Store holding one Collection per (StoreKind, content.Type)
// pair. Collections are created on first use. Records are matched by name
// and carry the source key as the importid flag.
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
)

// StoreKind separates user owned items from imported compendium packs.
type StoreKind string

// Store kinds.
const (
	// Local holds items created by hand. Talent cross references look here first.
	Local StoreKind = "local"

	// Compendium holds imported packs. Imports write here.
	Compendium StoreKind = "compendium"
)

// ParseStoreKind validates a store kind name.
func ParseStoreKind(s string) (StoreKind, error) {
	switch StoreKind(strings.ToLower(strings.TrimSpace(s))) {
	case Local:
		return Local, nil
	case Compendium:
		return Compendium, nil
	}
	return "", errors.NewValidationError("kind", s, "unknown store kind")
}

// LabelPrefix prefixes compendium collection labels.
const LabelPrefix = "oggdude"

// Label returns the display label of the collection holding t in kind,
// e.g. "oggdude.Talents".
func Label(kind StoreKind, t content.Type) string {
	if kind == Compendium {
		return LabelPrefix + "." + t.Label()
	}
	return t.Label()
}

// ImportIDFlag is the flag carrying the source key.
const ImportIDFlag = "importid"

// Record is a stored item.
type Record struct {
	ID    string             `json:"_id" yaml:"_id"`
	Name  string             `json:"name" yaml:"name"`
	Type  content.Type       `json:"type" yaml:"type"`
	Img   string             `json:"img,omitempty" yaml:"img,omitempty"`
	Flags content.Attributes `json:"flags,omitempty" yaml:"flags,omitempty"`
	Data  content.Attributes `json:"data" yaml:"data"`
}

// ImportID returns the importid flag, or "".
func (r *Record) ImportID() string {
	return r.Flags.String(ImportIDFlag)
}

// IndexEntry is the lightweight view returned by Collection.Index.
type IndexEntry struct {
	ID       string `json:"_id" yaml:"_id"`
	Name     string `json:"name" yaml:"name"`
	ImportID string `json:"importid,omitempty" yaml:"importid,omitempty"`
}

// Patch is a partial update keyed by dotted path ("name", "img",
// "flags.importid", "data.price.value").
type Patch map[string]any

// Collection is one indexed set of records. Index order is creation order.
type Collection interface {
	Kind() StoreKind
	Type() content.Type
	Label() string

	Index(ctx context.Context) ([]IndexEntry, error)
	Get(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, rec Record) (string, error)
	Update(ctx context.Context, id string, patch Patch) error
	FindByImportID(ctx context.Context, importID string) (*Record, bool, error)
	Records(ctx context.Context) ([]Record, error)
}

// Store hands out collections.
type Store interface {
	// Collection returns the collection for kind and t, creating it if absent.
	Collection(ctx context.Context, kind StoreKind, t content.Type) (Collection, error)

	// Find returns the collection for kind and t only if it already exists.
	Find(ctx context.Context, kind StoreKind, t content.Type) (Collection, bool, error)

	// Collections lists the collections that exist.
	Collections(ctx context.Context) ([]Collection, error)

	Close() error
}

// PackName is how a record found in a compendium collection is referenced
// from other records.
func PackName(c Collection) string {
	return fmt.Sprintf("%s.%s", c.Kind(), c.Label())
}

// ApplyPatch applies a dotted path patch to rec. The "_id" key is ignored;
// unknown top level keys are rejected.
func ApplyPatch(rec *Record, patch Patch) error {
	for path, value := range patch {
		head, rest, _ := strings.Cut(path, ".")
		switch head {
		case "_id":
		case "name":
			s, ok := value.(string)
			if !ok || rest != "" {
				return errors.NewValidationError(path, value, "name must be a string")
			}
			rec.Name = s
		case "type":
			s, ok := value.(string)
			if !ok {
				if t, isType := value.(content.Type); isType {
					s, ok = string(t), true
				}
			}
			if !ok || rest != "" {
				return errors.NewValidationError(path, value, "type must be a string")
			}
			rec.Type = content.Type(s)
		case "img":
			s, _ := value.(string)
			if rest != "" {
				return errors.NewValidationError(path, value, "img has no sub fields")
			}
			rec.Img = s
		case "flags", "data":
			if rest == "" {
				m, ok := value.(content.Attributes)
				if !ok {
					if plain, isMap := value.(map[string]any); isMap {
						m, ok = content.Attributes(plain), true
					}
				}
				if !ok {
					return errors.NewValidationError(path, value, "must be a map")
				}
				if head == "flags" {
					rec.Flags = m.Clone()
				} else {
					rec.Data = m.Clone()
				}
				continue
			}
			target := &rec.Data
			if head == "flags" {
				target = &rec.Flags
			}
			if *target == nil {
				*target = content.Attributes{}
			}
			if m, ok := value.(content.Attributes); ok {
				value = m.Clone()
			}
			target.Set(rest, value)
		default:
			return errors.NewValidationError(path, value, "unknown field")
		}
	}
	return nil
}
