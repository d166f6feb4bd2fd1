package reactive

// Tag is a type-safe key for metadata on nodes and sessions.
type Tag[T any] struct {
	key string
}

// NewTag creates a new tag with the given key.
func NewTag[T any](key string) Tag[T] {
	return Tag[T]{key: key}
}

// Key returns the tag's key (for debugging).
func (t Tag[T]) Key() string {
	return t.key
}

// Get retrieves the tag value from a node.
func (t Tag[T]) Get(n Node) (T, bool) {
	val, ok := n.GetTag(t)
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// MustGet retrieves the tag value or panics if not found.
func (t Tag[T]) MustGet(n Node) T {
	val, ok := t.Get(n)
	if !ok {
		panic("tag " + t.key + " not found")
	}
	return val
}

// GetOrDefault retrieves the tag value or returns a default.
func (t Tag[T]) GetOrDefault(n Node, defaultVal T) T {
	if val, ok := t.Get(n); ok {
		return val
	}
	return defaultVal
}

// Set stores the tag value on a node.
func (t Tag[T]) Set(n Node, val T) {
	n.SetTag(t, val)
}

// GetFromSession retrieves the tag value from a session.
func (t Tag[T]) GetFromSession(s *Session) (T, bool) {
	val, ok := s.GetTag(t)
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// SetOnSession stores the tag value on a session.
func (t Tag[T]) SetOnSession(s *Session, val T) {
	s.SetTag(t, val)
}

var nodeNameTag = NewTag[string]("node.name")

// NodeName returns the tag under which display names are stored.
func NodeName() Tag[string] { return nodeNameTag }
