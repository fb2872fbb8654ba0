package feed

import "errors"

var (
	// ErrInvalidArgument is returned for malformed caller input, e.g.
	// too few onboarding tags. Rejected before any external call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProfileAlreadyExists is returned when onboarding is attempted
	// for a user who already has a profile. The stored profile is never
	// overwritten.
	ErrProfileAlreadyExists = errors.New("profile already exists")

	// ErrProfileRequired is returned when a feed is requested for a user
	// with no stored profile. The caller should route the user through
	// onboarding rather than treat this as an empty feed.
	ErrProfileRequired = errors.New("profile required")

	// ErrEmbeddingUnavailable is returned when the embedding provider
	// fails or times out. Transient; safe for the caller to retry.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrDegenerateVector is returned when a zero-norm embedding makes
	// cosine similarity undefined.
	ErrDegenerateVector = errors.New("degenerate embedding vector")

	// ErrDimensionMismatch is returned when two embeddings of different
	// dimensionality are compared. A wrong-sized vector is a
	// data-integrity fault, not an input to be coerced.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
