package reactive

import (
	"fmt"
	"runtime/debug"
)

// Observer is a side-effecting consumer of reactive state, the unit
// scheduled by a flush. An ungated observer re-runs whenever anything it
// read changes; a gated observer re-runs only when a declared trigger
// changes, while still reading other state without subscribing to it.
type Observer struct {
	id       uint64
	sess     *Session
	tags     map[any]any
	action   func(*EvalCtx) error
	triggers []node
	initial  bool
	stale    bool
	active   bool
	runs     uint64
	lastErr  error
}

// NewObserver creates an observer owned by the session. An ungated
// observer is scheduled for the first flush, since its dependencies are
// discovered by running it. A gated observer performs no work until a
// trigger changes, unless WithInitialRun is given.
func NewObserver(s *Session, action func(*EvalCtx) error, opts ...NodeOption) *Observer {
	o := &Observer{
		id:     s.nextNodeID(),
		sess:   s,
		tags:   make(map[any]any),
		action: action,
		active: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	s.register(o)

	if o.gated() {
		for _, trigger := range o.triggers {
			if trigger.owner() != s {
				panic(fmt.Sprintf("reactive: trigger %v belongs to a different session", trigger))
			}
			s.graph.addStaticEdge(o, trigger)
		}
		if o.initial {
			o.stale = true
			s.schedule([]*Observer{o})
		}
	} else {
		o.stale = true
		s.schedule([]*Observer{o})
	}
	return o
}

// Gated returns an option that restricts an observer's re-execution to an
// explicit trigger set. Trigger edges are permanent; the action's own
// reads are isolated and never subscribe.
func Gated(triggers ...Node) NodeOption {
	return func(n Node) {
		o, ok := n.(*Observer)
		if !ok {
			panic("reactive: Gated applies only to observers")
		}
		for _, t := range triggers {
			o.triggers = append(o.triggers, t.(node))
		}
	}
}

// WithInitialRun returns an option that schedules a gated observer for one
// execution at the first flush, before any trigger has changed.
func WithInitialRun() NodeOption {
	return func(n Node) {
		o, ok := n.(*Observer)
		if !ok {
			panic("reactive: WithInitialRun applies only to observers")
		}
		o.initial = true
	}
}

func (o *Observer) ID() uint64     { return o.id }
func (o *Observer) Kind() NodeKind { return KindObserver }

func (o *Observer) GetTag(tag any) (any, bool) {
	val, ok := o.tags[tag]
	return val, ok
}

func (o *Observer) SetTag(tag any, val any) {
	o.tags[tag] = val
}

func (o *Observer) String() string {
	return nodeLabel(o)
}

// Runs returns how many times the observer has executed.
func (o *Observer) Runs() uint64 {
	return o.runs
}

// Active reports whether the observer participates in scheduling.
func (o *Observer) Active() bool {
	return o.active
}

// LastError returns the error from the observer's most recent run, if any.
func (o *Observer) LastError() error {
	return o.lastErr
}

// Deactivate removes the observer from scheduling. Observers are never
// destroyed mid-run, only deactivated; a deactivated observer keeps its
// identity and can be reactivated.
func (o *Observer) Deactivate() {
	if !o.active {
		return
	}
	o.active = false
	o.stale = false
	if !o.gated() {
		o.sess.graph.forget(o)
	}
}

// Activate re-enables scheduling. An ungated observer is scheduled to
// rebuild its edge set at the next flush; a gated observer stays idle
// until its next trigger change.
func (o *Observer) Activate() {
	if o.active {
		return
	}
	o.active = true
	if !o.gated() {
		o.stale = true
		o.sess.schedule([]*Observer{o})
	}
}

func (o *Observer) gated() bool {
	return len(o.triggers) > 0
}

// run executes the observer through the extension chain and wraps any
// failure in an ObserverError for the flush to aggregate.
func (o *Observer) run() error {
	s := o.sess
	op := &Operation{Kind: OpObserve, Node: o, Session: s}
	_, err := s.wrap(op, func() (any, error) {
		return nil, o.execute()
	})
	o.lastErr = err
	if err != nil {
		s.notifyError(err, op)
		return &ObserverError{Observer: o, Tick: s.tick, Err: err}
	}
	return nil
}

func (o *Observer) execute() (err error) {
	s := o.sess
	// A gated observer's trigger edges are permanent; its action runs with
	// an empty tracking stack, so every read inside it is isolated.
	tracked := !o.gated()
	if tracked {
		s.graph.beginTracking(o)
	}
	ctx := s.pool.acquire(s, o)
	defer func() {
		if r := recover(); r != nil {
			err = &DerivationError{
				Node:       o,
				Cause:      fmt.Errorf("panic in observer action: %v", r),
				StackTrace: debug.Stack(),
			}
		}
		if tracked {
			s.graph.endTracking(o)
		}
		s.commitCleanups(o, ctx)
		s.pool.release(ctx)
	}()

	o.runs++
	return o.action(ctx)
}

func (o *Observer) owner() *Session { return o.sess }

func (o *Observer) invalidateNode() bool {
	if !o.active || o.stale {
		return false
	}
	o.stale = true
	o.sess.runNodeCleanups(o, "invalidate")
	return true
}
