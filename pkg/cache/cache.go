// Package cache stores rendered artifacts keyed by content.
//
// Rendering the same description with the same format and resolution always
// produces the same bytes, so graphcp keeps rendered output in a [Cache] and
// skips the renderer on a hit. Keys are derived from the description hash,
// never from a caller-supplied name or path.
//
// Backends:
//   - [FileCache]: sharded JSON files under the user cache directory (CLI default)
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: caching disabled
//
// Cache failures are never fatal to a render; callers log and continue.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts identifies one rendering of a description.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	DPI    float64 `json:"dpi"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey returns the key for descriptionHash rendered with opts.
	ArtifactKey(descriptionHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes the description hash together with the render options.
func (DefaultKeyer) ArtifactKey(descriptionHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", descriptionHash, opts)
}
