package reactive

import "fmt"

// Value is a named mutable cell. It is the only entry point for external
// mutation; everything downstream reacts to Set through invalidation.
type Value[T any] struct {
	id        uint64
	sess      *Session
	tags      map[any]any
	val       T
	changedAt Tick
}

// NewValue creates a mutable cell owned by the session, holding initial.
func NewValue[T any](s *Session, initial T, opts ...NodeOption) *Value[T] {
	v := &Value[T]{
		id:   s.nextNodeID(),
		sess: s,
		tags: make(map[any]any),
		val:  initial,
	}
	for _, opt := range opts {
		opt(v)
	}
	s.register(v)
	return v
}

func (v *Value[T]) ID() uint64     { return v.id }
func (v *Value[T]) Kind() NodeKind { return KindValue }

func (v *Value[T]) GetTag(tag any) (any, bool) {
	val, ok := v.tags[tag]
	return val, ok
}

func (v *Value[T]) SetTag(tag any, val any) {
	v.tags[tag] = val
}

func (v *Value[T]) String() string {
	return nodeLabel(v)
}

// Get returns the current value. Called with a non-nil EvalCtx it records
// a dependency edge from the current reader to this cell; called with nil
// it is an isolated read.
func (v *Value[T]) Get(ctx *EvalCtx) (T, error) {
	var zero T
	if err := v.sess.checkHandle(v, ctx); err != nil {
		return zero, err
	}
	if ctx != nil {
		if err := v.sess.graph.recordRead(v); err != nil {
			return zero, err
		}
	}
	return v.val, nil
}

// Peek returns the current value without establishing a dependency.
func (v *Value[T]) Peek() T {
	return v.val
}

// ChangedAt returns the tick at which the value last changed.
func (v *Value[T]) ChangedAt() Tick {
	return v.changedAt
}

// Set replaces the stored value, marks every transitive dependent stale,
// and schedules stale observers for the next flush. A Set issued while a
// flush is in progress is deferred whole to the next tick.
func (v *Value[T]) Set(newVal T) error {
	s := v.sess
	if err := s.checkHandle(v, nil); err != nil {
		return err
	}
	if s.flushing {
		s.deferred = append(s.deferred, func() error {
			return v.apply(newVal)
		})
		return nil
	}
	return v.apply(newVal)
}

func (v *Value[T]) apply(newVal T) error {
	s := v.sess
	op := &Operation{Kind: OpWrite, Node: v, Session: s}
	_, err := s.wrap(op, func() (any, error) {
		v.val = newVal
		v.changedAt = s.tick + 1
		s.schedule(s.graph.invalidateFrom(v))
		return nil, nil
	})
	if err != nil {
		s.notifyError(err, op)
	}
	return err
}

func (v *Value[T]) owner() *Session { return v.sess }

// Values hold no cache: they are invalidation sources, never dependents.
func (v *Value[T]) invalidateNode() bool { return false }

func nodeLabel(n Node) string {
	if name, ok := NameOf(n); ok {
		return fmt.Sprintf("%s#%d(%s)", n.Kind(), n.ID(), name)
	}
	return fmt.Sprintf("%s#%d", n.Kind(), n.ID())
}
