package reactive

import (
	"fmt"
	"runtime/debug"
)

type exprState uint8

const (
	exprStale exprState = iota
	exprFresh
	exprPoisoned
)

// Expression is a derived, lazily computed, memoized node. Its derivation
// runs only when the node is read while stale; the reads the derivation
// performs become the node's new upstream edge set.
type Expression[T any] struct {
	id     uint64
	sess   *Session
	tags   map[any]any
	derive func(*EvalCtx) (T, error)
	state  exprState
	cached T
	poison error
}

// NewExpression creates a memoized derived node owned by the session. The
// derivation must be pure apart from reads of other reactive nodes.
func NewExpression[T any](s *Session, derive func(*EvalCtx) (T, error), opts ...NodeOption) *Expression[T] {
	e := &Expression[T]{
		id:     s.nextNodeID(),
		sess:   s,
		tags:   make(map[any]any),
		derive: derive,
		state:  exprStale,
	}
	for _, opt := range opts {
		opt(e)
	}
	s.register(e)
	return e
}

func (e *Expression[T]) ID() uint64     { return e.id }
func (e *Expression[T]) Kind() NodeKind { return KindExpression }

func (e *Expression[T]) GetTag(tag any) (any, bool) {
	val, ok := e.tags[tag]
	return val, ok
}

func (e *Expression[T]) SetTag(tag any, val any) {
	e.tags[tag] = val
}

func (e *Expression[T]) String() string {
	return nodeLabel(e)
}

// Get returns the expression's value, recomputing only if the node is
// stale. A fresh node returns the cached value directly; a poisoned node
// re-raises its stored error without re-invoking the derivation.
func (e *Expression[T]) Get(ctx *EvalCtx) (T, error) {
	var zero T
	s := e.sess
	if err := s.checkHandle(e, ctx); err != nil {
		return zero, err
	}
	if ctx != nil {
		if err := s.graph.recordRead(e); err != nil {
			return zero, err
		}
	}

	switch e.state {
	case exprFresh:
		return e.cached, nil
	case exprPoisoned:
		return zero, e.poison
	}

	op := &Operation{Kind: OpCompute, Node: e, Session: s}
	result, err := s.wrap(op, e.compute)
	if err != nil {
		e.state = exprPoisoned
		e.poison = err
		s.notifyError(err, op)
		return zero, err
	}
	e.cached = result.(T)
	e.state = exprFresh
	return e.cached, nil
}

// compute runs the derivation under tracking. The new edge set is
// committed even when the derivation fails, so that fixing an upstream
// cause invalidates this node and clears the poison.
func (e *Expression[T]) compute() (result any, err error) {
	s := e.sess
	s.graph.beginTracking(e)
	ctx := s.pool.acquire(s, e)
	defer func() {
		if r := recover(); r != nil {
			err = &DerivationError{
				Node:       e,
				Cause:      fmt.Errorf("panic in derivation: %v", r),
				StackTrace: debug.Stack(),
			}
		}
		s.graph.endTracking(e)
		s.commitCleanups(e, ctx)
		s.pool.release(ctx)
	}()

	val, deriveErr := e.derive(ctx)
	if deriveErr != nil {
		return nil, &DerivationError{Node: e, Cause: deriveErr}
	}
	return val, nil
}

// Peek returns the cached value without recomputing or subscribing.
func (e *Expression[T]) Peek() (T, bool) {
	if e.state == exprFresh {
		return e.cached, true
	}
	var zero T
	return zero, false
}

// Fresh reports whether the cached value is currently trustworthy.
func (e *Expression[T]) Fresh() bool {
	return e.state == exprFresh
}

// Invalidate marks the node and its transitive dependents stale without
// recomputing anything, scheduling affected observers for the next flush.
func (e *Expression[T]) Invalidate() error {
	s := e.sess
	if err := s.checkHandle(e, nil); err != nil {
		return err
	}
	if s.flushing {
		s.deferred = append(s.deferred, func() error {
			return e.Invalidate()
		})
		return nil
	}
	e.invalidateNode()
	s.schedule(s.graph.invalidateFrom(e))
	return nil
}

func (e *Expression[T]) owner() *Session { return e.sess }

func (e *Expression[T]) invalidateNode() bool {
	if e.state == exprStale {
		return false
	}
	e.state = exprStale
	e.poison = nil
	e.sess.runNodeCleanups(e, "invalidate")
	return true
}
