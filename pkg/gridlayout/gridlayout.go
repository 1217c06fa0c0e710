// Package gridlayout resolves force power and specialization trees into the
// flat, densely keyed cell maps stored on records.
//
// A tree is a list of rows, each up to four columns wide. Force power cells
// are keyed upgrade{(row-1)*4+col} because row 0 only names the base power;
// specialization cells are keyed talent{row*4+col}.
package gridlayout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/daezeri/ffgimport/pkg/constants"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
)

// Size is how many of the row's column slots a cell covers.
type Size string

// Cell sizes.
const (
	Single Size = "single"
	Double Size = "double"
	Triple Size = "triple"
	Full   Size = "full"
)

// Span returns the number of columns covered.
func (s Size) Span() int {
	switch s {
	case Double:
		return 2
	case Triple:
		return 3
	case Full:
		return 4
	default:
		return 1
	}
}

// ParseSpan maps a source span code to a size. Unknown or missing codes give
// Single with ok false; such cells are placeholders.
func ParseSpan(code string) (Size, bool) {
	switch strings.TrimSpace(code) {
	case "1":
		return Single, true
	case "2":
		return Double, true
	case "3":
		return Triple, true
	case "4":
		return Full, true
	}
	return Single, false
}

// Direction holds the adjacency flags of one column.
type Direction struct {
	Up    bool
	Right bool
}

// Row is one source row; its slices are parallel and indexed by column.
type Row struct {
	Keys       []string
	Costs      []string
	Spans      []string
	Directions []Direction
}

func (r Row) direction(col int) Direction {
	if col < 0 || col >= len(r.Directions) {
		return Direction{}
	}
	return r.Directions[col]
}

func at(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}

func (r Row) width() int {
	return min(len(r.Keys), constants.GridColumns)
}

// Links are the adjacency flags recorded on a cell. Top[k] is links-top-{k+1}.
type Links struct {
	Top   [constants.GridColumns]bool
	Right bool
}

// resolveLinks records the top link at the cell's own column, then re-checks
// each further column the cell spans using that column's own Up flag. The
// extra columns are only checked when the whole span fits in the grid.
func resolveLinks(row Row, col int, size Size) Links {
	var l Links
	dir := row.direction(col)
	l.Top[0] = dir.Up
	l.Right = dir.Right

	span := size.Span()
	if col+span > constants.GridColumns {
		return l
	}
	for k := 1; k < span; k++ {
		l.Top[k] = row.direction(col + k).Up
	}
	return l
}

// Ability is the descriptive text of a force power upgrade.
type Ability struct {
	Name        string
	Description string
}

// TalentRef is the resolved talent a specialization cell points at.
type TalentRef struct {
	Name            string
	Description     string
	Activation      string
	ActivationLabel string
	IsForceTalent   bool
	IsRanked        bool
	ItemID          string
	// Pack names the compendium collection the talent was found in; empty
	// for local items.
	Pack string
}

// Cell is one resolved grid node.
type Cell struct {
	Key     string
	Row     int
	Column  int
	Size    Size
	Visible bool
	Links   Links
	Cost    string
	Ability *Ability
	Talent  *TalentRef

	// Padding cells only carry visible=false.
	Padding bool
}

// Attributes renders the cell in the stored record layout.
func (c Cell) Attributes() content.Attributes {
	if c.Padding {
		return content.Attributes{"visible": false}
	}

	a := content.Attributes{}
	switch {
	case c.Talent != nil:
		a["name"] = c.Talent.Name
		a["description"] = c.Talent.Description
		a["activation"] = c.Talent.Activation
		a["activationLabel"] = c.Talent.ActivationLabel
		a["isForceTalent"] = c.Talent.IsForceTalent
		a["isRanked"] = c.Talent.IsRanked
		a["itemId"] = c.Talent.ItemID
		if c.Talent.Pack != "" {
			a["pack"] = c.Talent.Pack
		}
	default:
		if c.Ability != nil {
			a["name"] = c.Ability.Name
			a["description"] = c.Ability.Description
		}
		a["cost"] = c.Cost
		a["visible"] = c.Visible
		a["size"] = string(c.Size)
	}

	for k, up := range c.Links.Top {
		if up {
			a[fmt.Sprintf("links-top-%d", k+1)] = true
		}
	}
	if c.Links.Right {
		a["links-right"] = true
	}
	return a
}

// Grid is a resolved tree keyed by flat cell key.
type Grid map[string]Cell

// Keys returns the cell keys ordered by their numeric suffix.
func (g Grid) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := keyIndex(keys[i]), keyIndex(keys[j])
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Attributes renders every cell in the stored record layout.
func (g Grid) Attributes() content.Attributes {
	out := make(content.Attributes, len(g))
	for k, c := range g {
		out[k] = c.Attributes()
	}
	return out
}

func keyIndex(key string) int {
	i := strings.IndexFunc(key, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(key[i:])
	if err != nil {
		return -1
	}
	return n
}

// UpgradeKey is the flat key of a force power cell.
func UpgradeKey(row, col int) string {
	return "upgrade" + strconv.Itoa((row-1)*constants.GridColumns+col)
}

// TalentKey is the flat key of a specialization cell.
func TalentKey(row, col int) string {
	return "talent" + strconv.Itoa(row*constants.GridColumns+col)
}

// AbilityLookup resolves an ability key against the abilities catalog.
type AbilityLookup func(key string) (*Ability, bool)

// RowError reports a row that was skipped.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d skipped: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ForcePower resolves a force power tree. Row 0 is excluded. A row holding a
// key the lookup cannot resolve is skipped as a whole and reported; the
// remaining rows are unaffected. The grid is then padded with invisible
// cells up to five rows.
func ForcePower(rows []Row, lookup AbilityLookup) (Grid, []error) {
	grid := Grid{}
	var skipped []error

	for i := 1; i < len(rows); i++ {
		cells, err := forcePowerRow(i, rows[i], lookup)
		if err != nil {
			skipped = append(skipped, &RowError{Row: i, Err: err})
			continue
		}
		for _, c := range cells {
			grid[c.Key] = c
		}
	}

	for i := max(len(rows), 1); i < constants.ForcePowerGridRows; i++ {
		for col := 0; col < constants.GridColumns; col++ {
			key := UpgradeKey(i, col)
			grid[key] = Cell{Key: key, Row: i, Column: col, Size: Single, Padding: true}
		}
	}
	return grid, skipped
}

func forcePowerRow(i int, row Row, lookup AbilityLookup) ([]Cell, error) {
	cells := make([]Cell, 0, row.width())
	for col := 0; col < row.width(); col++ {
		key := row.Keys[col]
		ability, ok := lookup(key)
		if !ok {
			return nil, errors.NewLookupMissError("ability", key)
		}
		size, known := ParseSpan(at(row.Spans, col))
		cell := Cell{
			Key:     UpgradeKey(i, col),
			Row:     i,
			Column:  col,
			Size:    size,
			Visible: known,
			Cost:    at(row.Costs, col),
			Ability: ability,
			Links:   resolveLinks(row, col, size),
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// TalentLookup resolves a talent key to an existing talent record.
type TalentLookup func(key string) (*TalentRef, bool)

// Specialization resolves a specialization tree. Every row is part of the
// grid and nothing is padded. A cell whose talent cannot be resolved is
// omitted and its key reported in missing.
func Specialization(rows []Row, lookup TalentLookup) (grid Grid, missing []string) {
	grid = Grid{}
	for i, row := range rows {
		for col := 0; col < row.width(); col++ {
			key := row.Keys[col]
			talent, ok := lookup(key)
			if !ok {
				missing = append(missing, key)
				continue
			}
			d := row.direction(col)
			cell := Cell{
				Key:     TalentKey(i, col),
				Row:     i,
				Column:  col,
				Size:    Single,
				Visible: true,
				Talent:  talent,
			}
			cell.Links.Top[0] = d.Up
			cell.Links.Right = d.Right
			grid[cell.Key] = cell
		}
	}
	return grid, missing
}
