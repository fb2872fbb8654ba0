package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
)

// FeedEntry is one ranked article in a feed response.
type FeedEntry struct {
	ArticleID string   `json:"article_id"`
	Score     float64  `json:"score"`
	Heading   string   `json:"heading"`
	Summary   string   `json:"summary"`
	Link      string   `json:"link"`
	Image     string   `json:"image,omitempty"`
	Tags      []string `json:"tags"`
}

// handleFeed handles GET /v1/feed requests.
// Query parameters:
//   - tags (optional): comma-separated topic tags restricting candidates
//   - top_k (optional): result-count override, 1..MaxTopK
func (s *Server) handleFeed(c *fiber.Ctx) error {
	userID := requestUserID(c)

	tagFilter := parseTags(c.Query("tags"))

	topK := s.config.DefaultTopK
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 || parsed > s.config.MaxTopK {
			return c.Status(fiber.StatusBadRequest).JSON(StatusResponse{
				Status:  "invalid_argument",
				Message: "top_k must be a positive integer no greater than " + strconv.Itoa(s.config.MaxTopK),
			})
		}
		topK = parsed
	}

	ranked, err := s.ranker.Rank(c.Context(), userID, tagFilter, topK)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrProfileRequired):
			return c.Status(fiber.StatusPreconditionFailed).JSON(StatusResponse{
				Status:  "profile_required",
				Message: "complete onboarding before requesting a feed",
			})
		default:
			s.logger.Error("ranking feed failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(StatusResponse{
				Status:  "error",
				Message: "failed to build feed",
			})
		}
	}

	// An empty feed is a valid outcome, distinct from a missing profile.
	entries := make([]FeedEntry, 0, len(ranked))
	for _, r := range ranked {
		entries = append(entries, FeedEntry{
			ArticleID: r.ID,
			Score:     r.Score,
			Heading:   r.Heading,
			Summary:   r.Summary,
			Link:      r.Link,
			Image:     r.Image,
			Tags:      r.Tags,
		})
	}

	return c.JSON(StatusResponse{
		Status: "ok",
		Data:   entries,
	})
}

// parseTags splits a comma-separated tag list, dropping empty entries.
func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}

	return tags
}
