// Package feed defines the core domain types shared across the scrollfeed system.
package feed

// Profile is the stored representation of one user's interest embedding
// plus the tags it was derived from. A user has at most one profile; it
// is created once at onboarding and never mutated afterward.
type Profile struct {
	// UserID is the stable external identifier supplied by the
	// authentication layer.
	UserID string `json:"user_id"`

	// Tags are the topic tags the user selected at onboarding, in
	// selection order.
	Tags []string `json:"tags"`

	// Embedding is the vector representation of the tag list.
	Embedding []float32 `json:"embedding"`
}

// Article is a feed candidate as stored by the ingestion pipeline.
// The display payload (heading, summary, link, image) is opaque to the
// ranking core; only Tags and Embedding participate in ranking.
type Article struct {
	// ID is a unique identifier for the article.
	ID string `json:"article_id"`

	// Heading is the article headline.
	Heading string `json:"heading"`

	// Summary is the short display summary.
	Summary string `json:"summary"`

	// Link is the canonical article URL.
	Link string `json:"link"`

	// Image is an optional image reference.
	Image string `json:"image,omitempty"`

	// Tags is the article's topic tag set.
	Tags []string `json:"tags"`

	// Embedding is the vector representation of the article content.
	// It must have the same dimensionality as every profile embedding.
	Embedding []float32 `json:"embedding,omitempty"`
}

// RankedArticle pairs an article with the similarity score computed for
// one feed request. Ranked results are ephemeral and never persisted.
type RankedArticle struct {
	Article

	// Score is the cosine similarity between the requesting user's
	// profile embedding and the article embedding.
	Score float64 `json:"score"`
}

// HasAnyTag reports whether the article's tag set intersects filter.
// An empty filter matches every article.
func (a Article) HasAnyTag(filter []string) bool {
	if len(filter) == 0 {
		return true
	}

	for _, want := range filter {
		for _, tag := range a.Tags {
			if tag == want {
				return true
			}
		}
	}

	return false
}
