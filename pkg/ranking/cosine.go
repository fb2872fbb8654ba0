package ranking

import (
	"fmt"
	"math"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
)

// CosineSimilarity returns the cosine of the angle between u and a, a
// score in [-1, 1] independent of vector magnitude. Accumulation runs in
// float64 so tie comparisons at the 1e-9 tolerance are meaningful.
//
// Returns feed.ErrDimensionMismatch when the vectors differ in length or
// either is empty, and feed.ErrDegenerateVector when either has zero norm.
func CosineSimilarity(u, a []float32) (float64, error) {
	if len(u) == 0 || len(a) == 0 || len(u) != len(a) {
		return 0, fmt.Errorf("%w: %d vs %d dimensions", feed.ErrDimensionMismatch, len(u), len(a))
	}

	var dot, nu, na float64
	for i := range u {
		dot += float64(u[i]) * float64(a[i])
		nu += float64(u[i]) * float64(u[i])
		na += float64(a[i]) * float64(a[i])
	}

	if nu == 0 || na == 0 {
		return 0, feed.ErrDegenerateVector
	}

	return dot / (math.Sqrt(nu) * math.Sqrt(na)), nil
}
