package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/profile"
	"github.com/scrollpedia/scrollfeed/pkg/ranking"
	"github.com/scrollpedia/scrollfeed/pkg/store/inmemory"
)

// stubEmbedder returns a fixed vector, or fails when down is set,
// standing in for the provider during handler specs.
type stubEmbedder struct {
	vector []float32
	down   bool
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if e.down {
		return nil, errors.New("connection refused")
	}
	return e.vector, nil
}

func (e *stubEmbedder) Close() error { return nil }

var _ = Describe("Handlers", func() {
	var (
		ctx      context.Context
		server   *Server
		articles *inmemory.Store
		embedder *stubEmbedder
	)

	onboardingTags := []string{"ai", "space", "history", "music", "film"}

	BeforeEach(func() {
		ctx = context.Background()
		articles = inmemory.NewStore()
		embedder = &stubEmbedder{vector: []float32{1, 0, 0}}

		logger := zap.NewNop()
		profiles := profile.NewManager(profile.Config{}, articles, embedder, logger)
		ranker := ranking.NewEngine(articles, profiles, logger)
		server = NewServer(Config{
			ListenAddr:  ":0",
			DefaultTopK: 10,
			MaxTopK:     50,
		}, profiles, ranker, logger)
	})

	do := func(method, target, userID string, body any) (*http.Response, StatusResponse) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequest(method, target, reader)
		Expect(err).NotTo(HaveOccurred())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if userID != "" {
			req.Header.Set(userIDHeader, userID)
		}

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())

		var status StatusResponse
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		if len(raw) > 0 && raw[0] == '{' {
			Expect(json.Unmarshal(raw, &status)).To(Succeed())
		}
		return resp, status
	}

	onboard := func(userID string) {
		resp, _ := do(http.MethodPost, "/v1/profile", userID, CreateProfileRequest{Tags: onboardingTags})
		Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
	}

	seedArticle := func(id string, tags []string, embedding []float32) {
		Expect(articles.PutArticle(ctx, feed.Article{
			ID:        id,
			Heading:   "heading " + id,
			Summary:   "summary " + id,
			Link:      "https://example.com/" + id,
			Tags:      tags,
			Embedding: embedding,
		})).To(Succeed())
	}

	Describe("GET /ping", func() {
		It("responds without requiring a user", func() {
			resp, _ := do(http.MethodGet, "/ping", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("identity middleware", func() {
		It("rejects v1 requests without the user header", func() {
			resp, _ := do(http.MethodGet, "/v1/feed", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})
	})

	Describe("POST /v1/profile", func() {
		It("creates a profile and returns its tags", func() {
			resp, status := do(http.MethodPost, "/v1/profile", "alice", CreateProfileRequest{Tags: onboardingTags})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
			Expect(status.Status).To(Equal("created"))

			data, err := json.Marshal(status.Data)
			Expect(err).NotTo(HaveOccurred())
			var got ProfileData
			Expect(json.Unmarshal(data, &got)).To(Succeed())
			Expect(got.UserID).To(Equal("alice"))
			Expect(got.Tags).To(Equal(onboardingTags))
		})

		It("rejects too few tags", func() {
			resp, status := do(http.MethodPost, "/v1/profile", "alice", CreateProfileRequest{
				Tags: []string{"ai", "space"},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(status.Status).To(Equal("invalid_argument"))
		})

		It("rejects a non-JSON body", func() {
			req, err := http.NewRequest(http.MethodPost, "/v1/profile", bytes.NewReader([]byte("not json")))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(userIDHeader, "alice")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects a second onboarding for the same user", func() {
			onboard("alice")

			resp, status := do(http.MethodPost, "/v1/profile", "alice", CreateProfileRequest{Tags: onboardingTags})
			Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))
			Expect(status.Status).To(Equal("already_exists"))
		})

		It("maps an unavailable embedding provider to 503", func() {
			embedder.down = true

			resp, status := do(http.MethodPost, "/v1/profile", "alice", CreateProfileRequest{Tags: onboardingTags})
			Expect(resp.StatusCode).To(Equal(fiber.StatusServiceUnavailable))
			Expect(status.Status).To(Equal("embedding_unavailable"))
		})
	})

	Describe("GET /v1/profile", func() {
		It("returns the stored tags", func() {
			onboard("alice")

			resp, status := do(http.MethodGet, "/v1/profile", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(status.Status).To(Equal("ok"))
		})

		It("returns 404 before onboarding", func() {
			resp, status := do(http.MethodGet, "/v1/profile", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			Expect(status.Status).To(Equal("not_found"))
		})
	})

	Describe("GET /v1/feed", func() {
		decodeEntries := func(status StatusResponse) []FeedEntry {
			data, err := json.Marshal(status.Data)
			Expect(err).NotTo(HaveOccurred())
			var entries []FeedEntry
			Expect(json.Unmarshal(data, &entries)).To(Succeed())
			return entries
		}

		BeforeEach(func() {
			seedArticle("near", []string{"ai"}, []float32{1, 0, 0})
			seedArticle("far", []string{"space"}, []float32{0, 1, 0})
			seedArticle("mid", []string{"ai", "space"}, []float32{0.7, 0.7, 0})
		})

		It("requires a completed onboarding", func() {
			resp, status := do(http.MethodGet, "/v1/feed", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusPreconditionFailed))
			Expect(status.Status).To(Equal("profile_required"))
		})

		It("returns articles in descending similarity order", func() {
			onboard("alice")

			resp, status := do(http.MethodGet, "/v1/feed", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(status.Status).To(Equal("ok"))

			entries := decodeEntries(status)
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].ArticleID).To(Equal("near"))
			Expect(entries[1].ArticleID).To(Equal("mid"))
			Expect(entries[2].ArticleID).To(Equal("far"))
			Expect(entries[0].Score).To(BeNumerically(">", entries[1].Score))
		})

		It("restricts candidates to the requested tags", func() {
			onboard("alice")

			_, status := do(http.MethodGet, "/v1/feed?tags=space", "alice", nil)
			entries := decodeEntries(status)
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].ArticleID).To(Equal("mid"))
			Expect(entries[1].ArticleID).To(Equal("far"))
		})

		It("honors a top_k override", func() {
			onboard("alice")

			_, status := do(http.MethodGet, "/v1/feed?top_k=1", "alice", nil)
			entries := decodeEntries(status)
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ArticleID).To(Equal("near"))
		})

		It("rejects a non-positive top_k", func() {
			onboard("alice")

			resp, status := do(http.MethodGet, "/v1/feed?top_k=0", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(status.Status).To(Equal("invalid_argument"))
		})

		It("rejects a top_k above the configured maximum", func() {
			onboard("alice")

			resp, _ := do(http.MethodGet, "/v1/feed?top_k=51", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects a non-numeric top_k", func() {
			onboard("alice")

			resp, _ := do(http.MethodGet, "/v1/feed?top_k=many", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns an empty feed when no candidates match the filter", func() {
			onboard("alice")

			resp, status := do(http.MethodGet, "/v1/feed?tags=sports", "alice", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(status.Status).To(Equal("ok"))
			Expect(decodeEntries(status)).To(BeEmpty())
		})
	})
})
