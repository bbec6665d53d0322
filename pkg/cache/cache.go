// Package cache stores rendered SVG documents keyed by source content.
//
// Converting a bitmap is a pure function of its bytes and the scale, so a
// document can be reused whenever the same bytes are converted again with the
// same scale. The [Cache] interface has three backends:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: stores nothing (--no-cache)
//
// Keys are built by a [Keyer] so callers never assemble key strings by hand.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is the default lifetime of a cached document.
const TTLArtifact = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the rendering parameters that change the document.
type ArtifactKeyOpts struct {
	Scale int `json:"scale"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey returns the key of the document rendered from a source
	// with the given content hash.
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "svg:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes the source hash together with opts.
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("svg", sourceHash, opts)
}
