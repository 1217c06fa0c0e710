// Package importer runs an import of a source archive into a library.
//
// Each selected document is scanned once and its talents, gear, weapons,
// armor and force powers are imported concurrently, one goroutine per
// content type. Documents are processed one after another. Selecting a
// directory defers a single specialization pass until every document is
// done, so that the talents a specialization tree points at already exist.
package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/daezeri/ffgimport/pkg/archive"
	"github.com/daezeri/ffgimport/pkg/assets"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/logging"
	"github.com/daezeri/ffgimport/pkg/mapper"
	"github.com/daezeri/ffgimport/pkg/reconcile"
	"github.com/daezeri/ffgimport/pkg/sourcexml"
)

// Archive is what a run reads from. *archive.Archive implements it.
type Archive interface {
	mapper.Source
	assets.Archive
	Name() string
	IsDir(name string) bool
	FindFile(base string) (string, bool)
}

// Importer imports archives into a library store.
type Importer struct {
	store library.Store
	opts  *options
}

// New creates an importer writing into store.
func New(store library.Store, opts ...Option) (*Importer, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "store cannot be nil")
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.engine == nil {
		if o.engine, err = reconcile.New(); err != nil {
			return nil, err
		}
	}
	return &Importer{store: store, opts: o}, nil
}

// run is the state of one Run call.
type run struct {
	*Importer
	archive Archive
	session *Session
	images  *assets.Resolver
	result  *Result

	// pending is set in dry runs only.
	pending *pendingTalents
}

// Run imports the selected entries of a. Per-record failures are logged,
// counted and skipped; Run only returns an error when the context is
// canceled, and even then the partial result is returned.
func (im *Importer) Run(ctx context.Context, a Archive, selections []archive.Selection) (*Result, error) {
	if a == nil {
		return nil, errors.NewValidationError("archive", nil, "archive cannot be nil")
	}
	logger := logging.FromContext(ctx)

	assetsDir := im.opts.assetsDir
	if im.opts.dryRun {
		assetsDir = ""
	}
	r := &run{
		Importer: im,
		archive:  a,
		session:  newSession(a, im.opts.skills, im.opts.logSink != nil, im.opts.now),
		images:   assets.New(a, assetsDir),
		result:   newResult(a.Name(), im.opts.dryRun, im.opts.now()),
	}
	if im.opts.dryRun {
		r.pending = newPendingTalents()
	}

	logger.Info().
		Str("archive", a.Name()).
		Int("selections", len(selections)).
		Bool("dry_run", im.opts.dryRun).
		Msg("Starting import")

	deferSpecializations := false
	for _, sel := range selections {
		if ctx.Err() != nil {
			break
		}
		if sel.IsDir || a.IsDir(sel.Entry) {
			deferSpecializations = true
			continue
		}
		r.importDocument(ctx, sel.Entry)
	}

	if deferSpecializations && ctx.Err() == nil && im.enabled(content.Specialization) {
		r.importSpecializations(ctx)
	}

	r.session.Logf("Import completed")
	r.result.Log = r.session.Lines()
	if im.opts.logSink != nil {
		if _, err := r.session.WriteTo(im.opts.logSink); err != nil {
			logger.Warn().Err(err).Msg("Failed to write import log")
		}
	}
	r.result.Finalize(im.opts.now())

	logger.Info().
		Int("written", r.result.Written()).
		Int("failed", len(r.result.Errors)).
		Dur("duration", r.result.Metadata.Duration).
		Msg("Import completed")

	if err := ctx.Err(); err != nil {
		return r.result, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}
	return r.result, nil
}

func (im *Importer) enabled(t content.Type) bool {
	return im.opts.only == nil || im.opts.only[t]
}

// importDocument scans one document and runs the per-type tasks against it.
func (r *run) importDocument(ctx context.Context, entry string) {
	ctx = logging.WithDocument(ctx, entry)
	logger := logging.FromContext(ctx)

	r.result.Metadata.Documents = append(r.result.Metadata.Documents, entry)

	text, err := r.archive.ReadText(entry)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read document")
		r.session.Logf("Error reading %s: %v", entry, err)
		return
	}
	doc, err := sourcexml.ParseString(entry, text)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse document")
		r.session.Logf("Error parsing %s: %v", entry, err)
		return
	}

	tasks := []struct {
		typ   content.Type
		total int
		seq   func(context.Context) mapper.Sequence
	}{
		{content.Talent, len(doc.Talents), func(context.Context) mapper.Sequence {
			return mapper.Talents(doc)
		}},
		{content.Gear, len(doc.Gear), func(ctx context.Context) mapper.Sequence {
			return mapper.GearItems(ctx, doc, r.images)
		}},
		{content.Weapon, len(doc.Weapons), func(ctx context.Context) mapper.Sequence {
			return mapper.Weapons(ctx, doc, r.images)
		}},
		{content.Armor, len(doc.Armor), func(ctx context.Context) mapper.Sequence {
			return mapper.ArmorItems(ctx, doc, r.images)
		}},
		{content.ForcePower, forcePowerTotal(doc, r.archive), func(ctx context.Context) mapper.Sequence {
			return mapper.ForcePowers(ctx, doc, r.archive)
		}},
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		if task.total == 0 || !r.enabled(task.typ) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			tctx := logging.WithContentType(ctx, string(task.typ))
			r.importType(tctx, task.typ, task.total, task.seq(tctx))
		}()
	}
	wg.Wait()
}

// forcePowerTotal is the number of force power documents, or zero when the
// catalog document defines no abilities.
func forcePowerTotal(doc *sourcexml.Document, src mapper.Source) int {
	if len(doc.ForceAbilities) == 0 {
		return 0
	}
	return len(mapper.ForcePowerFiles(src))
}

func (r *run) importSpecializations(ctx context.Context) {
	ctx = logging.WithContentType(ctx, string(content.Specialization))
	total := len(mapper.SpecializationFiles(r.archive))
	seq := mapper.Specializations(ctx, r.archive, r.session.SkillMap, talentFinder{store: r.store, pending: r.pending})
	r.importType(ctx, content.Specialization, total, seq)
}

// importType drains seq into the compendium collection for t.
func (r *run) importType(ctx context.Context, t content.Type, total int, seq mapper.Sequence) {
	logger := logging.FromContext(ctx)
	title := cases.Title(language.English).String(t.Noun())

	r.session.Logf("Starting %s Import", title)
	defer r.session.Logf("Completed %s Import", title)

	r.session.Logf("Beginning import of %d %s", total, plural(t))
	r.session.Logf("Checking for existing compendium pack %s", library.Label(library.Compendium, t))
	coll, err := r.store.Collection(ctx, library.Compendium, t)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open compendium pack")
		r.session.Logf("Error opening compendium pack %s: %v", library.Label(library.Compendium, t), err)
		r.result.recordSkip(t, total, err)
		return
	}

	current := 0
	for draft, err := range seq {
		if ctx.Err() != nil {
			break
		}
		current++
		if err != nil {
			logger.Warn().Err(err).Msg("Skipping record")
			r.session.Logf("Error importing %s: %v", t.Noun(), err)
			r.result.recordFailure(t, err)
			r.progress(t, current, total)
			continue
		}
		r.importRecord(ctx, coll, draft)
		r.progress(t, current, total)
	}
	if remaining := total - current; remaining > 0 {
		r.result.recordSkip(t, remaining, nil)
	}
}

func (r *run) importRecord(ctx context.Context, coll library.Collection, draft *content.DraftRecord) {
	ctx = logging.WithRecord(ctx, draft.Name)
	logger := logging.FromContext(ctx)
	noun := draft.Type.Noun()

	r.session.Logf("Start importing %s %s", noun, draft.Name)
	for _, note := range draft.Notes {
		logger.Debug().Str("note", note).Msg("Partial record")
		r.session.Logf("Warning %s %s: %s", noun, draft.Name, note)
	}

	instr, err := r.opts.engine.Reconcile(ctx, draft, coll)
	if err == nil && !r.opts.dryRun {
		_, err = r.opts.engine.Apply(ctx, instr, coll)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to import record")
		r.session.Logf("Error importing %s %s: %v", noun, draft.Name, err)
		r.result.recordFailure(draft.Type, &mapper.RecordError{
			Type: draft.Type,
			Key:  draft.ImportKey,
			Name: draft.Name,
			Err:  err,
		})
		return
	}

	if instr.Kind == reconcile.Create {
		if draft.Type == content.Talent {
			r.pending.add(instr.Record)
		}
		r.session.Logf("New %s %s : %s", noun, draft.Name, instr.PayloadJSON())
	} else {
		r.session.Logf("Updating %s %s : %s", noun, draft.Name, instr.PayloadJSON())
	}
	r.result.recordWrite(instr)
	r.session.Logf("End importing %s %s", noun, draft.Name)
}

func (r *run) progress(t content.Type, current, total int) {
	if r.opts.progress != nil {
		r.opts.progress(t, current, total)
	}
}

func plural(t content.Type) string {
	switch t {
	case content.ForcePower:
		return "force powers"
	case content.Gear, content.Armor:
		return t.Noun()
	}
	return strings.ToLower(t.Label())
}
