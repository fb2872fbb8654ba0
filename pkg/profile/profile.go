// Package profile mediates profile creation and lookup, preserving the
// one-profile-per-user invariant.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/embeddings"
	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/store"
)

const (
	// MinTags is the minimum number of topic tags required at onboarding.
	MinTags = 5

	// MaxTags is the maximum number of topic tags accepted at onboarding.
	MaxTags = 15

	// DefaultEmbedTimeout bounds the call to the embedding provider.
	DefaultEmbedTimeout = 10 * time.Second
)

// Manager creates and looks up user profiles. It composes a storage
// capability and an embedding capability rather than owning either.
type Manager struct {
	store        store.Store
	embedder     embeddings.Embedder
	embedTimeout time.Duration
	logger       *zap.Logger
}

// Config holds configuration for the profile manager.
type Config struct {
	// EmbedTimeout bounds calls to the embedding provider.
	// Defaults to DefaultEmbedTimeout if zero.
	EmbedTimeout time.Duration
}

// NewManager creates a profile manager over the given store and embedder.
func NewManager(c Config, s store.Store, embedder embeddings.Embedder, logger *zap.Logger) *Manager {
	timeout := c.EmbedTimeout
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}

	return &Manager{
		store:        s,
		embedder:     embedder,
		embedTimeout: timeout,
		logger:       logger,
	}
}

// Create builds and stores a profile for userID from the selected tags.
//
// Input is validated before any external call. The tag list is embedded
// through the embedding provider under a timeout; a provider failure or
// timeout surfaces as feed.ErrEmbeddingUnavailable and is safe to retry.
// If the user already has a profile the stored one is left untouched and
// feed.ErrProfileAlreadyExists is returned — retrying sign-up must not
// silently reset an interest profile.
func (m *Manager) Create(ctx context.Context, userID string, tags []string) (feed.Profile, error) {
	if userID == "" {
		return feed.Profile{}, fmt.Errorf("%w: user ID is required", feed.ErrInvalidArgument)
	}

	tags = normalizeTags(tags)
	if len(tags) < MinTags {
		return feed.Profile{}, fmt.Errorf("%w: at least %d tags are required, got %d",
			feed.ErrInvalidArgument, MinTags, len(tags))
	}
	if len(tags) > MaxTags {
		return feed.Profile{}, fmt.Errorf("%w: at most %d tags are allowed, got %d",
			feed.ErrInvalidArgument, MaxTags, len(tags))
	}

	embedding, err := m.embedTags(ctx, tags)
	if err != nil {
		return feed.Profile{}, err
	}

	profile := feed.Profile{
		UserID:    userID,
		Tags:      tags,
		Embedding: embedding,
	}

	if err := m.store.PutProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return feed.Profile{}, feed.ErrProfileAlreadyExists
		}
		return feed.Profile{}, fmt.Errorf("storing profile for user %s: %w", userID, err)
	}

	m.logger.Info("profile created",
		zap.String("user_id", userID),
		zap.Int("tags", len(tags)),
		zap.Int("dimensions", len(embedding)),
	)

	return profile, nil
}

// Get retrieves the stored profile for userID.
// Returns store.ErrNotFound if the user has not completed onboarding.
func (m *Manager) Get(ctx context.Context, userID string) (feed.Profile, error) {
	return m.store.GetProfile(ctx, userID)
}

// Embedding returns only the stored profile embedding for userID.
// Returns store.ErrNotFound if the user has not completed onboarding.
func (m *Manager) Embedding(ctx context.Context, userID string) ([]float32, error) {
	profile, err := m.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	return profile.Embedding, nil
}

// embedTags serializes the tag list and requests its embedding under the
// configured timeout. The serialized form is the JSON encoding of the
// list, so the same tags always produce the same provider input.
func (m *Manager) embedTags(ctx context.Context, tags []string) ([]float32, error) {
	payload, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("%w: serializing tags: %v", feed.ErrEmbeddingUnavailable, err)
	}

	embedCtx, cancel := context.WithTimeout(ctx, m.embedTimeout)
	defer cancel()

	embedding, err := m.embedder.Embed(embedCtx, string(payload))
	if err != nil {
		if errors.Is(err, feed.ErrEmbeddingUnavailable) {
			return nil, err
		}
		// A timeout or transport fault is transient, not terminal.
		return nil, fmt.Errorf("%w: %v", feed.ErrEmbeddingUnavailable, err)
	}

	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: provider returned an empty vector", feed.ErrEmbeddingUnavailable)
	}

	return embedding, nil
}

// normalizeTags trims whitespace and drops empty and duplicate entries,
// preserving first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}

	return normalized
}
