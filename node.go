package reactive

// NodeKind identifies the role of a node in the graph.
type NodeKind string

const (
	// KindValue is a mutable cell, the entry point for external mutation.
	KindValue NodeKind = "value"
	// KindExpression is a derived, lazily computed, memoized node.
	KindExpression NodeKind = "expression"
	// KindObserver is a side-effecting consumer scheduled by a flush.
	KindObserver NodeKind = "observer"
)

// Node is the type-erased handle for graph nodes.
type Node interface {
	ID() uint64
	Kind() NodeKind
	GetTag(tag any) (any, bool)
	SetTag(tag any, val any)
}

// node is the internal view of a graph node.
type node interface {
	Node
	owner() *Session
	// invalidateNode marks the node stale. It returns false when the node
	// was already stale (or is inactive), which stops the invalidation
	// walk from revisiting its subtree.
	invalidateNode() bool
}

// NodeOption is a modifier for values, expressions, and observers.
type NodeOption func(Node)

// WithNodeTag returns an option that sets a tag on a node.
func WithNodeTag[T any](tag Tag[T], val T) NodeOption {
	return func(n Node) {
		tag.Set(n, val)
	}
}

// WithName returns an option that sets the node's display name, used by
// debug output and flush records.
func WithName(name string) NodeOption {
	return func(n Node) {
		nodeNameTag.Set(n, name)
	}
}

// NameOf returns a node's display name, if one was set.
func NameOf(n Node) (string, bool) {
	return nodeNameTag.Get(n)
}
