// Package table converts command results into rows for tabular output.
package table

import (
	"context"
	"strconv"
	"time"

	"github.com/daezeri/ffgimport/pkg/archive"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/importer"
	"github.com/daezeri/ffgimport/pkg/library"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// SelectionsToTableData lists the importable entries of an archive.
func SelectionsToTableData(selections []archive.Selection) Data {
	rows := make([][]string, 0, len(selections))
	for _, s := range selections {
		kind := "file"
		if s.IsDir {
			kind = "directory"
		}
		rows = append(rows, []string{s.Label, s.Entry, kind, s.Type.Label()})
	}
	return Data{
		Headers: []string{"Source", "Entry", "Kind", "Content"},
		Rows:    rows,
	}
}

// ResultToTableData summarizes an import run, one row per content type that
// saw any records.
func ResultToTableData(result *importer.Result) Data {
	var rows [][]string
	total := importer.Counts{}
	for _, t := range content.Types {
		c := result.Get(t)
		if c.Total() == 0 {
			continue
		}
		rows = append(rows, countsRow(t.Label(), c))
		total.Created += c.Created
		total.Updated += c.Updated
		total.Failed += c.Failed
		total.Skipped += c.Skipped
	}
	rows = append(rows, countsRow("Total", total))
	return Data{
		Headers:         []string{"Content", "Created", "Updated", "Failed", "Skipped"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight},
	}
}

func countsRow(label string, c importer.Counts) []string {
	return []string{
		label,
		strconv.Itoa(c.Created),
		strconv.Itoa(c.Updated),
		strconv.Itoa(c.Failed),
		strconv.Itoa(c.Skipped),
	}
}

// CollectionSummary is one line of the library listing.
type CollectionSummary struct {
	Pack    string       `json:"pack" yaml:"pack"`
	Kind    string       `json:"kind" yaml:"kind"`
	Type    content.Type `json:"type" yaml:"type"`
	Records int          `json:"records" yaml:"records"`
}

// SummarizeCollections counts the records of every collection.
func SummarizeCollections(ctx context.Context, collections []library.Collection) ([]CollectionSummary, error) {
	out := make([]CollectionSummary, 0, len(collections))
	for _, c := range collections {
		index, err := c.Index(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, CollectionSummary{
			Pack:    library.PackName(c),
			Kind:    string(c.Kind()),
			Type:    c.Type(),
			Records: len(index),
		})
	}
	return out, nil
}

// CollectionsToTableData renders collection summaries.
func CollectionsToTableData(summaries []CollectionSummary) Data {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{s.Pack, s.Kind, string(s.Type), FormatNumber(int64(s.Records))})
	}
	return Data{
		Headers:         []string{"Pack", "Kind", "Type", "Records"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
}

// FormatNumber formats a number with thousands separators.
func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if len(str) <= 3 {
		return str
	}
	var out []byte
	for i, ch := range []byte(str) {
		if i > 0 && (len(str)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	return string(out)
}

// FormatDuration rounds a run duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
