// Package ranking produces deterministic, bounded, relevance-ordered
// article lists for a user's profile embedding.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/profile"
	"github.com/scrollpedia/scrollfeed/pkg/store"
)

const (
	// DefaultTopK is the result size used when the caller does not
	// override it.
	DefaultTopK = 10

	// tieTolerance is the score difference below which two candidates are
	// considered tied and keep their listing order.
	tieTolerance = 1e-9

	// scoreWorkers bounds the goroutines scoring candidates in one call.
	scoreWorkers = 8
)

// Engine ranks candidate articles against a user's profile embedding.
// It is stateless across calls; each Rank invocation is an independent
// read-only pass over the store snapshot visible at call time.
type Engine struct {
	store    store.Store
	profiles *profile.Manager
	logger   *zap.Logger
}

// NewEngine creates a ranking engine over the given store and profile
// manager.
func NewEngine(s store.Store, profiles *profile.Manager, logger *zap.Logger) *Engine {
	return &Engine{
		store:    s,
		profiles: profiles,
		logger:   logger,
	}
}

// Rank returns up to topK articles ordered by descending cosine
// similarity to userID's profile embedding, restricted to articles
// intersecting tagFilter when it is non-empty. topK values <= 0 fall back
// to DefaultTopK.
//
// A user without a profile gets feed.ErrProfileRequired — a distinct
// "needs onboarding" signal, never an empty feed. A zero-candidate corpus
// returns an empty slice, not an error. A zero-norm profile embedding
// fails the whole request with feed.ErrDegenerateVector; a zero-norm or
// wrong-sized article embedding only skips that article.
func (e *Engine) Rank(ctx context.Context, userID string, tagFilter []string, topK int) ([]feed.RankedArticle, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := e.profiles.Embedding(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, feed.ErrProfileRequired
		}
		return nil, fmt.Errorf("fetching profile embedding for user %s: %w", userID, err)
	}

	if zeroNorm(embedding) {
		return nil, fmt.Errorf("%w: profile embedding for user %s has zero norm", feed.ErrDegenerateVector, userID)
	}

	if searcher, ok := e.store.(store.SimilaritySearcher); ok {
		return e.rankIndexed(ctx, searcher, embedding, tagFilter, topK)
	}

	return e.rankScan(ctx, embedding, tagFilter, topK)
}

// rankIndexed delegates candidate selection to the store's
// nearest-neighbor index, then re-applies the ordering contract: stable
// descending sort with the tie tolerance, capped at topK.
func (e *Engine) rankIndexed(ctx context.Context, searcher store.SimilaritySearcher, embedding []float32, tagFilter []string, topK int) ([]feed.RankedArticle, error) {
	matches, err := searcher.SearchArticles(ctx, embedding, topK, tagFilter)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}

	ranked := make([]feed.RankedArticle, 0, len(matches))
	for _, match := range matches {
		// A NaN score would float arbitrarily through the sort.
		// One bad record must not fail the whole feed.
		if math.IsNaN(match.Score) {
			e.logger.Warn("skipping unscorable article",
				zap.String("article_id", match.ID),
			)
			continue
		}
		ranked = append(ranked, feed.RankedArticle{
			Article: match.Article,
			Score:   match.Score,
		})
	}

	sortRanked(ranked)

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	e.logger.Debug("ranked feed via index",
		zap.Int("results", len(ranked)),
		zap.Int("top_k", topK),
		zap.Strings("tag_filter", tagFilter),
	)

	return ranked, nil
}

// rankScan is the brute-force baseline: score every candidate, stable-sort
// descending, truncate. Scoring is an independent map over candidates and
// runs on a small worker set writing into index-addressed slots; the sort
// stays sequential so the stable tie-break is preserved.
func (e *Engine) rankScan(ctx context.Context, embedding []float32, tagFilter []string, topK int) ([]feed.RankedArticle, error) {
	candidates, err := e.store.ListArticles(ctx, tagFilter)
	if err != nil {
		return nil, fmt.Errorf("listing candidate articles: %w", err)
	}

	if len(candidates) == 0 {
		return []feed.RankedArticle{}, nil
	}

	type slot struct {
		score float64
		ok    bool
	}
	scores := make([]slot, len(candidates))

	workers := scoreWorkers
	if len(candidates) < workers {
		workers = len(candidates)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < len(candidates); i += workers {
				score, err := CosineSimilarity(embedding, candidates[i].Embedding)
				if err != nil {
					// One bad record must not fail the whole feed.
					e.logger.Warn("skipping unscorable article",
						zap.String("article_id", candidates[i].ID),
						zap.Error(err),
					)
					continue
				}
				scores[i] = slot{score: score, ok: true}
			}
		}(w)
	}
	wg.Wait()

	ranked := make([]feed.RankedArticle, 0, len(candidates))
	for i, candidate := range candidates {
		if !scores[i].ok {
			continue
		}
		ranked = append(ranked, feed.RankedArticle{
			Article: candidate,
			Score:   scores[i].score,
		})
	}

	sortRanked(ranked)

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	e.logger.Debug("ranked feed via scan",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(ranked)),
		zap.Int("top_k", topK),
		zap.Strings("tag_filter", tagFilter),
	)

	return ranked, nil
}

// sortRanked orders entries by descending score. Scores within
// tieTolerance of each other are tied and keep their relative order, so
// repeated calls over unchanged data return identical feeds.
//
// The tolerance makes the comparison non-transitive: across a chain of
// near-ties (a~b, b~c, a-c > tieTolerance) two entries further apart
// than the tolerance can stay in listing order. The contract here is
// determinism, not total strictness over such chains.
func sortRanked(ranked []feed.RankedArticle) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score-ranked[j].Score > tieTolerance
	})
}

func zeroNorm(embedding []float32) bool {
	for _, v := range embedding {
		if v != 0 {
			return false
		}
	}
	return true
}
