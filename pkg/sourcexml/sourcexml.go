// Package sourcexml decodes the XML documents found in a content export into
// typed trees. It only parses; projection into records lives in the mapper
// package.
//
// Mixed documents are read in a single streaming pass. Each element whose
// local name is importable is decoded whole, so an importable element nested
// inside another importable element is not reported separately.
package sourcexml

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/daezeri/ffgimport/pkg/errors"
)

func newDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = charsetReader
	return d
}

// charsetReader handles documents that declare a non UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// Parse scans a mixed document and collects every Talent, Gear, Weapon,
// Armor and ForceAbility element in document order.
func Parse(source string, r io.Reader) (*Document, error) {
	doc := &Document{Source: source}
	err := scan(source, r, func(d *xml.Decoder, start xml.StartElement) (bool, error) {
		switch start.Name.Local {
		case "Talent":
			return decodeInto(d, start, &doc.Talents)
		case "Gear":
			return decodeInto(d, start, &doc.Gear)
		case "Weapon":
			return decodeInto(d, start, &doc.Weapons)
		case "Armor":
			return decodeInto(d, start, &doc.Armor)
		case "ForceAbility":
			return decodeInto(d, start, &doc.ForceAbilities)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(source, text string) (*Document, error) {
	return Parse(source, strings.NewReader(text))
}

// ParseForcePower decodes the first <ForcePower> element of a per-power document.
func ParseForcePower(source string, r io.Reader) (*ForcePower, error) {
	return decodeFirst[ForcePower](source, r, "ForcePower")
}

// ParseSpecialization decodes the first <Specialization> element.
func ParseSpecialization(source string, r io.Reader) (*Specialization, error) {
	return decodeFirst[Specialization](source, r, "Specialization")
}

// ParseSkills decodes every <Skill> element of the skills catalog.
func ParseSkills(source string, r io.Reader) ([]Skill, error) {
	var skills []Skill
	err := scan(source, r, func(d *xml.Decoder, start xml.StartElement) (bool, error) {
		if start.Name.Local != "Skill" {
			return false, nil
		}
		return decodeInto(d, start, &skills)
	})
	if err != nil {
		return nil, err
	}
	return skills, nil
}

// visitFunc handles one start element. It returns true when it consumed the
// element, false to keep descending.
type visitFunc func(d *xml.Decoder, start xml.StartElement) (bool, error)

func scan(source string, r io.Reader, visit visitFunc) error {
	d := newDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.WrapParse("xml", source, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if _, err := visit(d, start); err != nil {
			return errors.WrapParse("xml", source, err)
		}
	}
}

func decodeInto[T any](d *xml.Decoder, start xml.StartElement, into *[]T) (bool, error) {
	var v T
	if err := d.DecodeElement(&v, &start); err != nil {
		return false, err
	}
	*into = append(*into, v)
	return true, nil
}

func decodeFirst[T any](source string, r io.Reader, local string) (*T, error) {
	var found []T
	errStop := errors.New("stop")
	err := scan(source, r, func(d *xml.Decoder, start xml.StartElement) (bool, error) {
		if start.Name.Local != local {
			return false, nil
		}
		if _, err := decodeInto(d, start, &found); err != nil {
			return false, err
		}
		return true, errStop
	})
	if len(found) > 0 {
		return &found[0], nil
	}
	if err != nil {
		return nil, err
	}
	return nil, errors.NewSourceFormatError(source, local, "element not found")
}
