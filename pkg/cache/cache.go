// Package cache provides content-addressed caching for rendered graph
// artifacts (DOT text, SVG output) with file, Redis, and null backends.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement.
// Get returns (data, hit, error): a miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GraphKeyOpts captures the rendering options that affect DOT output.
// Different options must produce different cache keys.
type GraphKeyOpts struct {
	Detailed     bool
	IncludePlain bool
}

// ArtifactKeyOpts captures the options that affect rasterized output.
type ArtifactKeyOpts struct {
	Format string // "svg", "dot"
}

// Keyer generates cache keys for the rendering pipeline stages.
type Keyer interface {
	// GraphKey generates a key for cached DOT text. sceneHash is a
	// content hash of the exported scene document.
	GraphKey(sceneHash string, opts GraphKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact derived from
	// the DOT text with the given hash.
	ArtifactKey(dotHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates globally-scoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a keyer with no prefix.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for cached DOT text.
func (k *DefaultKeyer) GraphKey(sceneHash string, opts GraphKeyOpts) string {
	return hashKey("graph", sceneHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", dotHash, opts)
}
