package reactive

import "context"

// Extension provides hooks into the evaluation lifecycle
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a session
	Init(s *Session) error

	// Wrap intercepts operations (write, compute, observe)
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnError handles errors during computation or observer execution
	OnError(err error, op *Operation, s *Session)

	// OnCleanupError handles cleanup failures
	// Returns true if the error was handled, false to use default behavior
	OnCleanupError(err *CleanupError) bool

	// Flush lifecycle hooks
	OnFlushStart(s *Session, tick Tick) error
	OnFlushEnd(s *Session, tick Tick, err error) error

	// Dispose is called when the session is disposed
	Dispose(s *Session) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(s *Session) error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation, s *Session) {
}

func (e *BaseExtension) OnCleanupError(err *CleanupError) bool {
	return false
}

func (e *BaseExtension) OnFlushStart(s *Session, tick Tick) error {
	return nil
}

func (e *BaseExtension) OnFlushEnd(s *Session, tick Tick, err error) error {
	return nil
}

func (e *BaseExtension) Dispose(s *Session) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind    OperationKind
	Node    Node
	Session *Session
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpWrite indicates a value mutation
	OpWrite OperationKind = "write"
	// OpCompute indicates an expression recomputation
	OpCompute OperationKind = "compute"
	// OpObserve indicates an observer execution
	OpObserve OperationKind = "observe"
)
