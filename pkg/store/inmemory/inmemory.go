// Package inmemory provides an in-memory Store used for tests and local
// development. It is also the brute-force correctness baseline the ranking
// specs compare the indexed stores against.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/store"
)

// Store implements store.Store using in-process maps.
type Store struct {
	// mu guards profiles, articles and order.
	mu sync.RWMutex

	// profiles maps user ID to the stored profile.
	profiles map[string]feed.Profile

	// articles maps article ID to the stored article.
	articles map[string]feed.Article

	// order holds article IDs in insertion order so ListArticles is
	// reproducible across calls with unchanged data.
	order []string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]feed.Profile),
		articles: make(map[string]feed.Article),
	}
}

// PutProfile stores a new profile. The check and insert happen under one
// lock, so concurrent onboarding attempts for the same user cannot both
// succeed.
func (s *Store) PutProfile(_ context.Context, profile feed.Profile) error {
	if profile.UserID == "" {
		return errors.New("cannot store profile without user ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.UserID]; ok {
		return store.ErrAlreadyExists
	}

	s.profiles[profile.UserID] = profile
	return nil
}

// GetProfile retrieves a profile by user ID.
func (s *Store) GetProfile(_ context.Context, userID string) (feed.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return feed.Profile{}, store.ErrNotFound
	}

	return profile, nil
}

// PutArticle stores an article; re-ingesting an existing ID replaces the
// record in place without disturbing its position in the listing order.
func (s *Store) PutArticle(_ context.Context, article feed.Article) error {
	if article.ID == "" {
		return errors.New("cannot store article without ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[article.ID]; !ok {
		s.order = append(s.order, article.ID)
	}

	s.articles[article.ID] = article
	return nil
}

// ListArticles returns articles in insertion order, restricted to those
// intersecting tagFilter when it is non-empty.
func (s *Store) ListArticles(_ context.Context, tagFilter []string) ([]feed.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	articles := make([]feed.Article, 0, len(s.order))
	for _, id := range s.order {
		article := s.articles[id]
		if !article.HasAnyTag(tagFilter) {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)
