// Package mapper projects parsed source documents into draft records.
//
// Every mapper returns a lazy, single-use sequence in document order. A
// record that cannot be built is yielded as an error and the sequence moves
// on to its siblings. Problems that only drop a piece of a record (a missing
// image, a skipped grid row) are attached to the draft as notes.
package mapper

import (
	"context"
	"fmt"
	"iter"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/gridlayout"
)

// Archive locations consulted by the file based mappers.
const (
	ForcePowersDir     = "Force Powers"
	SpecializationsDir = "Specializations"
	SkillsFile         = "Skills.xml"
	ImageCategory      = "Equipment"
)

// Source is the part of an archive the file based mappers read.
type Source interface {
	XMLFilesIn(dir string) []string
	ReadText(name string) (string, error)
}

// ImageResolver stages an illustration out of the archive. A nil ref with a
// nil error means no image exists.
type ImageResolver interface {
	Resolve(ctx context.Context, category, subcategory, key string) (*content.StagedAssetRef, error)
}

// SkillMap returns the session's skill key to canonical name table.
type SkillMap func(ctx context.Context) (map[string]string, error)

// TalentFinder resolves a talent import key to an existing talent record.
// A miss is reported as ok false with a nil error.
type TalentFinder interface {
	FindTalent(ctx context.Context, importKey string) (ref *gridlayout.TalentRef, ok bool, err error)
}

// Sequence is what every mapper returns.
type Sequence = iter.Seq2[*content.DraftRecord, error]

// RecordError identifies the source item a per-record failure belongs to.
type RecordError struct {
	Type content.Type
	Key  string
	Name string
	Err  error
}

func (e *RecordError) Error() string {
	label := e.Name
	if label == "" {
		label = e.Key
	}
	return fmt.Sprintf("%s %q: %v", e.Type.Noun(), label, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// emit validates d and hands it to yield. It reports whether iteration
// should continue.
func emit(yield func(*content.DraftRecord, error) bool, d *content.DraftRecord) bool {
	if err := d.Validate(); err != nil {
		return yield(nil, &RecordError{Type: d.Type, Key: d.ImportKey, Name: d.Name, Err: err})
	}
	return yield(d, nil)
}

func resolveImage(ctx context.Context, images ImageResolver, d *content.DraftRecord, subcategory string) {
	if images == nil || d.ImportKey == "" {
		return
	}
	ref, err := images.Resolve(ctx, ImageCategory, subcategory, d.ImportKey)
	if err != nil {
		d.Notes = append(d.Notes, fmt.Sprintf("image for %s not staged: %v", d.ImportKey, err))
		return
	}
	d.Image = ref
}
