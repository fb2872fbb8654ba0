package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// DefaultTopK is the feed size when the request does not override it.
	DefaultTopK int

	// MaxTopK caps the per-request top_k override.
	MaxTopK int
}
