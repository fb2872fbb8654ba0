// Package store provides interfaces and implementations for durable storage
// of profile and article embeddings with their metadata.
package store

import (
	"context"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
)

// Store handles persistence of profiles and articles.
//
// Writes are durable before the call returns; no implementation defers or
// batches writes in a way visible to callers.
type Store interface {
	// PutProfile stores a new profile. Returns ErrAlreadyExists if the
	// user already has one — existing profiles are never overwritten.
	// The uniqueness check and the insert are atomic, so two concurrent
	// onboarding attempts for the same user cannot both succeed.
	PutProfile(ctx context.Context, profile feed.Profile) error

	// GetProfile retrieves a profile by user ID.
	// Returns ErrNotFound if the user has no profile.
	GetProfile(ctx context.Context, userID string) (feed.Profile, error)

	// PutArticle stores an article. Re-ingesting an existing article ID
	// replaces the stored record.
	PutArticle(ctx context.Context, article feed.Article) error

	// ListArticles returns all articles, or when tagFilter is non-empty
	// only those whose tag set intersects it (an article matches if it
	// carries any requested tag). Order is stable across calls with
	// unchanged data.
	ListArticles(ctx context.Context, tagFilter []string) ([]feed.Article, error)

	// Close releases any resources held by the store.
	Close() error
}

// Match pairs an article with the cosine similarity reported by an index.
type Match struct {
	feed.Article

	// Score is the cosine similarity to the query embedding
	// (higher = more similar).
	Score float64
}

// SimilaritySearcher is an optional capability for stores that can answer
// nearest-neighbor queries with an index instead of a full scan. The
// ranking engine uses it when available and falls back to scanning
// ListArticles otherwise.
type SimilaritySearcher interface {
	// SearchArticles returns up to topK articles most similar to the
	// embedding, ordered by descending cosine similarity, restricted to
	// articles intersecting tagFilter when it is non-empty.
	SearchArticles(ctx context.Context, embedding []float32, topK int, tagFilter []string) ([]Match, error)
}
