package planner

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"pantry/internal/toolregistry"
)

// ToolRelevancePredicate narrows the full tool catalogue down to the
// subset worth spending prompt tokens on for a given utterance. Per
// SPEC_FULL.md's Open Question decision, the default is pass-all: every
// registered tool catalogue is small enough that filtering buys
// nothing and risks hiding a tool the planner needed.
type ToolRelevancePredicate func(utterance string, tools []toolregistry.ToolDefinition) []toolregistry.ToolDefinition

// PassAllTools is the default predicate: no filtering.
func PassAllTools(_ string, tools []toolregistry.ToolDefinition) []toolregistry.ToolDefinition {
	return tools
}

// EmbeddingRelevanceFilter ranks tools by embedding similarity to the
// utterance using an in-process chromem-go collection, keeping only the
// topK closest matches. Built for deployments with a large, multi-tenant
// tool catalogue where prompt budget pressure outweighs recall risk;
// not wired as the default (see PassAllTools).
type EmbeddingRelevanceFilter struct {
	collection *chromem.Collection
	topK       int
}

// NewEmbeddingRelevanceFilter builds a filter backed by an in-memory
// chromem-go vector store, embedding every tool's name and description
// once at construction time.
func NewEmbeddingRelevanceFilter(ctx context.Context, tools []toolregistry.ToolDefinition, embed chromem.EmbeddingFunc, topK int) (*EmbeddingRelevanceFilter, error) {
	db := chromem.NewDB()
	coll, err := db.CreateCollection("tools", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create tool collection: %w", err)
	}
	docs := make([]chromem.Document, 0, len(tools))
	for _, t := range tools {
		docs = append(docs, chromem.Document{
			ID:      t.Name,
			Content: t.Name + ": " + t.Description,
		})
	}
	if len(docs) > 0 {
		if err := coll.AddDocuments(ctx, docs, 4); err != nil {
			return nil, fmt.Errorf("index tools: %w", err)
		}
	}
	return &EmbeddingRelevanceFilter{collection: coll, topK: topK}, nil
}

// Filter implements ToolRelevancePredicate semantics but needs ctx, so
// it is adapted via Predicate.
func (f *EmbeddingRelevanceFilter) Predicate(ctx context.Context) ToolRelevancePredicate {
	return func(utterance string, tools []toolregistry.ToolDefinition) []toolregistry.ToolDefinition {
		k := f.topK
		if k > f.collection.Count() {
			k = f.collection.Count()
		}
		if k == 0 {
			return tools
		}
		results, err := f.collection.Query(ctx, utterance, k, nil, nil)
		if err != nil {
			return tools
		}
		byName := make(map[string]toolregistry.ToolDefinition, len(tools))
		for _, t := range tools {
			byName[t.Name] = t
		}
		out := make([]toolregistry.ToolDefinition, 0, len(results))
		for _, r := range results {
			if t, ok := byName[r.ID]; ok {
				out = append(out, t)
			}
		}
		return out
	}
}
