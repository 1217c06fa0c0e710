// Package reconcile decides, per draft record, whether an import creates a
// new library record or updates an existing one.
//
// The engine reloads the collection index before every decision, so records
// written earlier in the same run are visible to later matches.
package reconcile

import (
	"context"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/library"
	"github.com/daezeri/ffgimport/pkg/logging"
)

// Engine matches drafts against collections.
type Engine struct {
	policy MatchPolicy
}

// New creates an engine.
func New(opts ...Option) (*Engine, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{policy: o.policy}, nil
}

// Policy returns the configured match policy.
func (e *Engine) Policy() MatchPolicy {
	return e.policy
}

// Reconcile returns the write that brings collection in line with draft.
// It does not write.
func (e *Engine) Reconcile(ctx context.Context, draft *content.DraftRecord, collection library.Collection) (*WriteInstruction, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	index, err := collection.Index(ctx)
	if err != nil {
		return nil, wrapStore("index", collection, "", err)
	}

	entry, ok := e.match(ctx, draft, collection, index)
	if !ok {
		rec := NewRecord(draft)
		return &WriteInstruction{
			Kind:   Create,
			Type:   draft.Type,
			Name:   draft.Name,
			Record: &rec,
		}, nil
	}

	patch := BuildUpdateData(draft)
	patch["_id"] = entry.ID
	return &WriteInstruction{
		Kind:     Update,
		Type:     draft.Type,
		Name:     draft.Name,
		TargetID: entry.ID,
		Patch:    patch,
	}, nil
}

// match finds the index entry a draft corresponds to. With duplicate names
// the first entry in index order wins and a warning is logged.
func (e *Engine) match(ctx context.Context, draft *content.DraftRecord, collection library.Collection, index []library.IndexEntry) (library.IndexEntry, bool) {
	if e.policy == MatchByImportIDThenName && draft.ImportKey != "" {
		for _, entry := range index {
			if entry.ImportID == draft.ImportKey {
				return entry, true
			}
		}
	}

	var found library.IndexEntry
	matches := 0
	for _, entry := range index {
		if entry.Name == draft.Name {
			if matches == 0 {
				found = entry
			}
			matches++
		}
	}
	if matches > 1 {
		logging.FromContext(ctx).Warn().
			Str("collection", collection.Label()).
			Str("name", draft.Name).
			Int("matches", matches).
			Str("id", found.ID).
			Msg("Duplicate names in collection, updating the first")
	}
	return found, matches > 0
}

// Apply performs the write and returns the affected record id.
func (e *Engine) Apply(ctx context.Context, instr *WriteInstruction, collection library.Collection) (string, error) {
	switch instr.Kind {
	case Create:
		id, err := collection.Create(ctx, *instr.Record)
		if err != nil {
			return "", wrapStore("create", collection, "", err)
		}
		return id, nil
	case Update:
		if err := collection.Update(ctx, instr.TargetID, instr.Patch); err != nil {
			return "", wrapStore("update", collection, instr.TargetID, err)
		}
		return instr.TargetID, nil
	}
	return "", errors.NewValidationError("kind", instr.Kind, "unknown write kind")
}

// Sync reconciles draft and applies the result.
func (e *Engine) Sync(ctx context.Context, draft *content.DraftRecord, collection library.Collection) (*WriteInstruction, string, error) {
	instr, err := e.Reconcile(ctx, draft, collection)
	if err != nil {
		return nil, "", err
	}
	id, err := e.Apply(ctx, instr, collection)
	if err != nil {
		return instr, "", err
	}
	return instr, id, nil
}

func wrapStore(op string, c library.Collection, id string, err error) error {
	if errors.IsStoreError(err) {
		return err
	}
	return errors.WrapStore(op, c.Label(), id, err)
}
