package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data. It keys file cache entries
// and the service's parsed-source cache.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey joins prefix and the digest of the JSON encoding of parts.
// Parts that fail to encode hash as null.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// DirStamp identifies one scanned directory together with its modification
// time, so that an index keyed by stamps goes stale when a package is
// installed or removed.
type DirStamp struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mtime"`
}

// Keyer generates keys for persisted reqcheck data.
type Keyer interface {
	// SiteIndexKey generates a key for the host site-packages index.
	SiteIndexKey(dirs []DirStamp) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key generator.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SiteIndexKey generates a key for the host site-packages index.
func (DefaultKeyer) SiteIndexKey(dirs []DirStamp) string {
	return hashKey("site-index", dirs)
}

// ScopedKeyer wraps a Keyer with a prefix, isolating the keys of one
// deployment when a backend such as Redis is shared.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "reqcheck:ci:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SiteIndexKey generates a prefixed key for the host site-packages index.
func (k *ScopedKeyer) SiteIndexKey(dirs []DirStamp) string {
	return k.prefix + k.inner.SiteIndexKey(dirs)
}
