package cache

// ScopedKeyer wraps a Keyer with a prefix so several workspaces or
// deployments can share one backend without colliding.
//
// Example usage:
//
//	// Keys for one storage directory
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ws:"+Hash([]byte(dir))[:12]+":")
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

// PageKey generates a prefixed key for ordered-page caching.
func (k *ScopedKeyer) PageKey(pageHash string, opts PageKeyOpts) string {
	return k.prefix + k.inner.PageKey(pageHash, opts)
}

// GraphKey generates a prefixed key for diagram caching.
func (k *ScopedKeyer) GraphKey(orderHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(orderHash, opts)
}
