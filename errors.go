package reactive

import (
	"errors"
	"fmt"
)

// ErrSessionDisposed is returned by session-level operations after Dispose.
var ErrSessionDisposed = errors.New("reactive: session disposed")

// UnknownNodeError reports an operation on a handle that is not registered
// in the session it was used with. Fatal to the calling operation, not to
// the graph.
type UnknownNodeError struct {
	Node    Node
	Session string
	Reason  string
}

func (e *UnknownNodeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unknown node %v in session %s: %s", e.Node, e.Session, e.Reason)
	}
	return fmt.Sprintf("unknown node %v in session %s", e.Node, e.Session)
}

// CycleError reports a node that transitively depends on itself, detected
// during tracking when a read targets a node already on the active
// evaluation stack.
type CycleError struct {
	Node  Node
	Stack []Node
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle through node %v (evaluation stack depth %d)", e.Node, len(e.Stack))
}

// DerivationError wraps a failure raised by a user-supplied derivation or
// action. The failing node is poisoned with this error and every dependent
// read re-raises it until the node is successfully recomputed.
type DerivationError struct {
	Node       Node
	Cause      error
	StackTrace []byte
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("derivation error in node %v: %v", e.Node, e.Cause)
}

func (e *DerivationError) Unwrap() error {
	return e.Cause
}

// ObserverError wraps a single observer's failure during a flush. Flush
// aggregates these without aborting the remaining pending observers.
type ObserverError struct {
	Observer *Observer
	Tick     Tick
	Err      error
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer %v failed at tick %d: %v", e.Observer, e.Tick, e.Err)
}

func (e *ObserverError) Unwrap() error {
	return e.Err
}

// CleanupError contains information about a cleanup failure.
type CleanupError struct {
	Node    Node
	Err     error
	Context string // "invalidate" or "dispose"
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup error for node %v during %s: %v", e.Node, e.Context, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
