package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/matzehuels/guji/pkg/layout"
)

// Hash returns the hex SHA-256 of data. Pages are hashed by their compact
// JSON, so byte-identical pages share cache entries.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns kind + ":" + Hash of the JSON of parts. Parts are structs
// with fixed field order, so the encoding is stable.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Keyer derives cache keys. Implementations must be deterministic: equal
// inputs always yield equal keys.
type Keyer interface {
	// PageKey keys an ordered page by the hash of its input JSON.
	PageKey(pageHash string, opts PageKeyOpts) string

	// GraphKey keys a rendered reading-order diagram by the hash of the
	// ordered page.
	GraphKey(orderHash string, opts GraphKeyOpts) string
}

// PageKeyOpts are the options that change an ordering result.
type PageKeyOpts struct {
	Layout layout.Config `json:"layout"`

	// Orientation is the forced orientation, or empty when classified.
	Orientation string `json:"orientation,omitempty"`
}

// GraphKeyOpts are the options that change a rendered diagram.
type GraphKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer builds keys of the form "<kind>:<sha256 of inputs>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PageKey returns "page:<hash>".
func (DefaultKeyer) PageKey(pageHash string, opts PageKeyOpts) string {
	return hashKey("page", pageHash, opts)
}

// GraphKey returns "graph:<hash>".
func (DefaultKeyer) GraphKey(orderHash string, opts GraphKeyOpts) string {
	return hashKey("graph", orderHash, opts)
}

var _ Keyer = DefaultKeyer{}
