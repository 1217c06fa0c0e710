package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/gridlayout"
	"github.com/daezeri/ffgimport/pkg/library"
)

// talentFinder resolves specialization talent keys against the library,
// local items first and then the compendium. In a dry run, talents the run
// would have created are found in pending.
type talentFinder struct {
	store   library.Store
	pending *pendingTalents
}

var talentSearchOrder = []library.StoreKind{library.Local, library.Compendium}

func (f talentFinder) FindTalent(ctx context.Context, key string) (*gridlayout.TalentRef, bool, error) {
	for _, kind := range talentSearchOrder {
		coll, ok, err := f.store.Find(ctx, kind, content.Talent)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		rec, ok, err := coll.FindByImportID(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		ref := talentRef(rec)
		if kind == library.Compendium {
			ref.Pack = library.PackName(coll)
		}
		return ref, true, nil
	}
	if rec, ok := f.pending.get(key); ok {
		ref := talentRef(rec)
		ref.Pack = fmt.Sprintf("%s.%s", library.Compendium, library.Label(library.Compendium, content.Talent))
		return ref, true, nil
	}
	return nil, false, nil
}

// pendingTalents holds the talent records a dry run decided to create but
// did not write, keyed by import id. They have no id yet.
type pendingTalents struct {
	mu      sync.Mutex
	records map[string]*library.Record
}

func newPendingTalents() *pendingTalents {
	return &pendingTalents{records: make(map[string]*library.Record)}
}

func (p *pendingTalents) add(rec *library.Record) {
	if p == nil || rec == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if key := rec.ImportID(); key != "" {
		p.records[key] = rec
	}
}

func (p *pendingTalents) get(key string) (*library.Record, bool) {
	if p == nil {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.records[key]
	return rec, ok
}

func talentRef(rec *library.Record) *gridlayout.TalentRef {
	return &gridlayout.TalentRef{
		Name:            rec.Name,
		Description:     rec.Data.String("description"),
		Activation:      rec.Data.String("activation.value"),
		ActivationLabel: rec.Data.String("activation.label"),
		IsForceTalent:   rec.Data.Bool("isForceTalent"),
		IsRanked:        rec.Data.Bool("ranks.ranked"),
		ItemID:          rec.ID,
	}
}
