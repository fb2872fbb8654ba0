package ranking_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/ranking"
)

var _ = Describe("CosineSimilarity", func() {
	It("scores a vector against itself as 1.0", func() {
		v := []float32{0.3, -1.2, 4.5, 0.01}

		score, err := ranking.CosineSimilarity(v, v)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("is symmetric", func() {
		u := []float32{1, 2, 3}
		a := []float32{-2, 0.5, 7}

		uv, err := ranking.CosineSimilarity(u, a)
		Expect(err).NotTo(HaveOccurred())

		vu, err := ranking.CosineSimilarity(a, u)
		Expect(err).NotTo(HaveOccurred())

		Expect(uv).To(Equal(vu))
	})

	It("scores orthogonal vectors as 0", func() {
		score, err := ranking.CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(BeNumerically("~", 0, 1e-9))
	})

	It("scores opposite vectors as -1", func() {
		score, err := ranking.CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(BeNumerically("~", -1.0, 1e-6))
	})

	It("is independent of magnitude", func() {
		small, err := ranking.CosineSimilarity([]float32{1, 1}, []float32{2, 0})
		Expect(err).NotTo(HaveOccurred())

		large, err := ranking.CosineSimilarity([]float32{100, 100}, []float32{0.5, 0})
		Expect(err).NotTo(HaveOccurred())

		Expect(small).To(BeNumerically("~", large, 1e-9))
	})

	It("rejects vectors of different dimensionality", func() {
		_, err := ranking.CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
		Expect(err).To(MatchError(feed.ErrDimensionMismatch))
	})

	It("rejects empty vectors", func() {
		_, err := ranking.CosineSimilarity(nil, nil)
		Expect(err).To(MatchError(feed.ErrDimensionMismatch))
	})

	It("rejects zero-norm vectors", func() {
		_, err := ranking.CosineSimilarity([]float32{1, 0}, []float32{0, 0})
		Expect(err).To(MatchError(feed.ErrDegenerateVector))

		_, err = ranking.CosineSimilarity([]float32{0, 0}, []float32{1, 0})
		Expect(err).To(MatchError(feed.ErrDegenerateVector))
	})
})
