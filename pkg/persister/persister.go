// Package persister implements the Observation Persister (spec.md §4.E):
// it renders a resolved GHAP entry to per-axis text templates and embeds
// and upserts each axis under the entry's shared id.
package persister

import (
	"context"
	"log/slog"

	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// Persister writes a resolved GHAP entry's axes to the vector store.
type Persister struct {
	store    vectorstore.Store
	registry *embedding.Registry
}

// New builds a Persister over store and registry.
func New(store vectorstore.Store, registry *embedding.Registry) *Persister {
	return &Persister{store: store, registry: registry}
}

// Persist writes 2-4 points — ghap_full, ghap_strategy, and (iff FALSIFIED
// with non-empty fields) ghap_surprise and ghap_root_cause — all sharing
// entry.ID. The full axis must succeed or the whole operation fails; the
// other axes are best-effort: an upsert failure on one of them is logged
// and does not abort the others (spec.md §4.E).
func (p *Persister) Persist(ctx context.Context, entry *ghap.Entry) error {
	shared := sharedPayload(entry)

	fullPayload := vectorstore.Payload{}
	for k, v := range shared {
		fullPayload[k] = v
	}
	fullPayload["axis"] = string(ghap.AxisFull)
	fullPayload["content"] = renderFull(entry)
	fullPayload["goal"] = entry.Goal
	fullPayload["hypothesis"] = entry.Current.Hypothesis
	fullPayload["action"] = entry.Current.Action
	fullPayload["prediction"] = entry.Current.Prediction
	if entry.Outcome != nil {
		fullPayload["result"] = entry.Outcome.Result
	}
	if entry.Surprise != "" {
		fullPayload["surprise"] = entry.Surprise
	}
	if entry.RootCause != nil {
		fullPayload["root_cause_category"] = entry.RootCause.Category
		fullPayload["root_cause_description"] = entry.RootCause.Description
	}
	if entry.Lesson != nil {
		fullPayload["lesson_what_worked"] = entry.Lesson.WhatWorked
		fullPayload["lesson_takeaway"] = entry.Lesson.Takeaway
	}
	if err := p.upsert(ctx, vectorstore.CollectionGHAPFull, entry.ID, fullPayload); err != nil {
		return err
	}

	p.bestEffortUpsert(ctx, vectorstore.CollectionGHAPStrategy, entry.ID, axisPayload(shared, ghap.AxisStrategy, renderStrategy(entry)))

	falsified := entry.Outcome != nil && entry.Outcome.Status == ghap.OutcomeFalsified
	if falsified && entry.Surprise != "" {
		p.bestEffortUpsert(ctx, vectorstore.CollectionGHAPSurprise, entry.ID, axisPayload(shared, ghap.AxisSurprise, renderSurprise(entry)))
	}
	if falsified && entry.RootCause != nil {
		p.bestEffortUpsert(ctx, vectorstore.CollectionGHAPRootCause, entry.ID, axisPayload(shared, ghap.AxisRootCause, renderRootCause(entry)))
	}

	return nil
}

func sharedPayload(e *ghap.Entry) vectorstore.Payload {
	p := vectorstore.Payload{
		"entry_id":        e.ID,
		"session_id":      e.SessionID,
		"domain":          string(e.Domain),
		"strategy":        string(e.Strategy),
		"iteration_count": e.IterationCount,
		"created_at":      e.CreatedAt.Unix(),
		"confidence_tier": string(e.ConfidenceTier),
	}
	if e.Outcome != nil {
		p["outcome_status"] = string(e.Outcome.Status)
	}
	if !e.CapturedAt.IsZero() {
		p["captured_at"] = e.CapturedAt.Unix()
	}
	return p
}

func axisPayload(shared vectorstore.Payload, axis ghap.Axis, content string) vectorstore.Payload {
	p := vectorstore.Payload{"axis": string(axis), "content": content}
	for k, v := range shared {
		p[k] = v
	}
	return p
}

func (p *Persister) upsert(ctx context.Context, collection, id string, payload vectorstore.Payload) error {
	vec, err := p.registry.EmbedOne(ctx, embedding.RoleSemantic, payload["content"].(string))
	if err != nil {
		return err
	}
	return p.store.Upsert(ctx, collection, vectorstore.Point{ID: id, Vector: vec, Payload: payload})
}

func (p *Persister) bestEffortUpsert(ctx context.Context, collection, id string, payload vectorstore.Payload) {
	if err := p.upsert(ctx, collection, id, payload); err != nil {
		slog.Error("persister: axis upsert failed", "entry_id", id, "axis", payload["axis"], "collection", collection, "error", err)
	}
}
