package reactive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Tick is a logical recomputation pass. All mutations that occur before a
// flush are observed together by that flush.
type Tick uint64

// Session is an isolated graph instance: it owns the value store, the
// dependency graph, the pending-observer set, and the flush scheduler.
// Sessions share no mutable state with each other.
type Session struct {
	id        string
	tick      Tick
	graph     *depGraph
	nodes     *registry[uint64, node]
	tags      sync.Map
	idCounter atomic.Uint64

	extensions []Extension
	extMu      sync.RWMutex

	cleanupRegistry map[node][]cleanupEntry
	cleanupMu       sync.RWMutex

	pending  []*Observer
	deferred []func() error
	flushing bool
	disposed bool

	pool *ctxPool
	log  *FlushLog
}

// SessionOption is a modifier for sessions
type SessionOption func(*Session)

// WithSessionTag returns an option that sets a tag on a session
func WithSessionTag[T any](tag Tag[T], val T) SessionOption {
	return func(s *Session) {
		tag.SetOnSession(s, val)
	}
}

// WithExtension returns an option that registers an extension to a session
func WithExtension(ext Extension) SessionOption {
	return func(s *Session) {
		if err := s.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// WithFlushLogLimit returns an option that bounds the session's flush log.
func WithFlushLogLimit(limit int) SessionOption {
	return func(s *Session) {
		s.log = newFlushLog(limit)
	}
}

// NewSession creates a new session with optional configuration
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:              uuid.NewString(),
		graph:           newDepGraph(),
		nodes:           newRegistry[uint64, node](),
		extensions:      []Extension{},
		cleanupRegistry: make(map[node][]cleanupEntry),
		pool:            newCtxPool(),
		log:             newFlushLog(1000),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID returns the session's unique identity.
func (s *Session) ID() string {
	return s.id
}

// CurrentTick returns the tick of the most recent flush.
func (s *Session) CurrentTick() Tick {
	return s.tick
}

// Pending returns the number of observers scheduled for the next flush.
func (s *Session) Pending() int {
	return len(s.pending)
}

// FlushLog returns the session's flush history for querying.
func (s *Session) FlushLog() *FlushLog {
	return s.log
}

// GetTag retrieves a tag value from the session
func (s *Session) GetTag(tag any) (any, bool) {
	return s.tags.Load(tag)
}

// SetTag stores a tag value on the session
func (s *Session) SetTag(tag any, val any) {
	s.tags.Store(tag, val)
}

// UseExtension registers an extension to the session
func (s *Session) UseExtension(ext Extension) error {
	s.extMu.Lock()
	s.extensions = append(s.extensions, ext)
	sort.Slice(s.extensions, func(i, j int) bool {
		return s.extensions[i].Order() < s.extensions[j].Order()
	})
	s.extMu.Unlock()

	return ext.Init(s)
}

// Flush drains the pending-observer set accumulated since the last flush
// and executes each still-stale active observer exactly once, in creation
// order. Upstream expressions resolve by pull during each run, so an
// observer only executes after everything it depends on is fresh for this
// tick. Observer failures are isolated from each other and aggregated
// into the returned error. Flush is idempotent with nothing pending.
func (s *Session) Flush() error {
	if s.disposed {
		return ErrSessionDisposed
	}
	if s.flushing {
		return nil
	}
	if len(s.pending) == 0 {
		return nil
	}

	s.tick++
	s.flushing = true

	rec := &FlushRecord{Tick: s.tick, Start: time.Now()}

	exts := s.extensionsSnapshot()
	for _, ext := range exts {
		if err := ext.OnFlushStart(s, s.tick); err != nil {
			s.flushing = false
			return err
		}
	}

	batch := s.pending
	s.pending = nil
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].id < batch[j].id
	})

	var errs []error
	for _, obs := range batch {
		if !obs.stale || !obs.active {
			continue
		}
		obs.stale = false

		start := time.Now()
		err := obs.run()
		rec.Runs = append(rec.Runs, ObserverRun{
			Observer: obs.id,
			Name:     nodeNameTag.GetOrDefault(obs, ""),
			Err:      err,
			Duration: time.Since(start),
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	flushErr := errors.Join(errs...)
	for i := len(exts) - 1; i >= 0; i-- {
		if extErr := exts[i].OnFlushEnd(s, s.tick, flushErr); extErr != nil && flushErr == nil {
			flushErr = extErr
		}
	}

	s.flushing = false

	// Writes made by observer side effects during the flush re-enter here,
	// scheduling their dependents for the next tick.
	deferred := s.deferred
	s.deferred = nil
	for _, apply := range deferred {
		if err := apply(); err != nil {
			flushErr = errors.Join(flushErr, err)
		}
	}

	rec.End = time.Now()
	rec.Err = flushErr
	s.log.add(rec)

	return flushErr
}

// Dispose runs all registered cleanups in reverse registration order,
// disposes extensions, and marks the session disposed. Handle operations
// on a disposed session fail with UnknownNodeError.
func (s *Session) Dispose() error {
	if s.disposed {
		return ErrSessionDisposed
	}
	s.disposed = true

	s.cleanupMu.Lock()
	all := make([]struct {
		n       node
		entries []cleanupEntry
	}, 0, len(s.cleanupRegistry))
	for n, entries := range s.cleanupRegistry {
		all = append(all, struct {
			n       node
			entries []cleanupEntry
		}{n, entries})
	}
	s.cleanupRegistry = make(map[node][]cleanupEntry)
	s.cleanupMu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].n.ID() > all[j].n.ID()
	})
	for _, item := range all {
		s.runCleanups(item.entries, item.n, "dispose")
	}

	for _, ext := range s.extensionsSnapshot() {
		if err := ext.Dispose(s); err != nil {
			return fmt.Errorf("disposing extension %s: %w", ext.Name(), err)
		}
	}

	s.nodes.Clear()
	s.pending = nil
	return nil
}

// NodeCount returns the number of nodes registered in the session.
func (s *Session) NodeCount() int {
	return s.nodes.Size()
}

// ExportDependencyGraph returns a copy of the current downstream edges,
// keyed by node with its direct dependents as values.
func (s *Session) ExportDependencyGraph() map[Node][]Node {
	out := make(map[Node][]Node, len(s.graph.downstream))
	for n := range s.graph.downstream {
		deps := s.graph.directDependents(n)
		list := make([]Node, len(deps))
		for i, d := range deps {
			list[i] = d
		}
		out[n] = list
	}
	return out
}

func (s *Session) nextNodeID() uint64 {
	return s.idCounter.Add(1)
}

func (s *Session) register(n node) {
	s.nodes.Store(n.ID(), n)
}

// checkHandle validates a handle operation: the session must not be
// disposed, the node must be registered here, and a supplied evaluation
// context must belong to this session (no cross-session aliasing).
func (s *Session) checkHandle(n node, ctx *EvalCtx) error {
	if s.disposed {
		return &UnknownNodeError{Node: n, Session: s.id, Reason: "session disposed"}
	}
	if got, ok := s.nodes.Load(n.ID()); !ok || got != n {
		return &UnknownNodeError{Node: n, Session: s.id, Reason: "not registered"}
	}
	if ctx != nil && ctx.sess != s {
		return &UnknownNodeError{Node: n, Session: s.id, Reason: "evaluation context belongs to a different session"}
	}
	return nil
}

func (s *Session) schedule(observers []*Observer) {
	s.pending = append(s.pending, observers...)
}

func (s *Session) extensionsSnapshot() []Extension {
	s.extMu.RLock()
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.extMu.RUnlock()
	return exts
}

// wrap chains extensions around an operation (middleware pattern); the
// last registered extension wraps first.
func (s *Session) wrap(op *Operation, next func() (any, error)) (any, error) {
	exts := s.extensionsSnapshot()
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(context.Background(), currentNext, op)
		}
	}
	return next()
}

func (s *Session) notifyError(err error, op *Operation) {
	for _, ext := range s.extensionsSnapshot() {
		ext.OnError(err, op, s)
	}
}

// commitCleanups moves cleanups registered during an evaluation into the
// session registry, replacing whatever the node's previous run left.
func (s *Session) commitCleanups(n node, ctx *EvalCtx) {
	if len(ctx.cleanups) == 0 {
		return
	}

	entries := make([]cleanupEntry, len(ctx.cleanups))
	copy(entries, ctx.cleanups)

	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	s.cleanupRegistry[n] = entries
}

// runNodeCleanups runs and discards a node's registered cleanups; called
// when the node is invalidated, before its next evaluation.
func (s *Session) runNodeCleanups(n node, cleanupContext string) {
	s.cleanupMu.Lock()
	entries := s.cleanupRegistry[n]
	delete(s.cleanupRegistry, n)
	s.cleanupMu.Unlock()

	if len(entries) == 0 {
		return
	}

	s.runCleanups(entries, n, cleanupContext)
}

func (s *Session) runCleanups(entries []cleanupEntry, n node, cleanupContext string) {
	exts := s.extensionsSnapshot()

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]

		if err := entry.fn(); err != nil {
			cleanupErr := &CleanupError{
				Node:    n,
				Err:     err,
				Context: cleanupContext,
			}

			handled := false
			for _, ext := range exts {
				if ext.OnCleanupError(cleanupErr) {
					handled = true
					break
				}
			}
			//nolint:staticcheck
			if !handled {
				// Future: could log or handle unhandled cleanup errors
			}
		}
	}
}
