// Package reactive provides a dependency-tracked reactive evaluation core:
// mutable values, lazily memoized expressions, and flush-scheduled observers.
//
// # Overview
//
// Reactive organizes state around four core concepts:
//
//  1. Values: named mutable cells, the only entry point for external mutation
//  2. Expressions: derived, lazily computed, memoized nodes
//  3. Observers: side-effecting consumers scheduled by a flush
//  4. Sessions: isolated graph instances that own all of the above
//
// # Basic Usage
//
// Build a graph inside a session:
//
//	session := reactive.NewSession()
//
//	count := reactive.NewValue(session, 0)
//
//	doubled := reactive.NewExpression(session, func(ctx *reactive.EvalCtx) (int, error) {
//	    n, err := count.Get(ctx)
//	    if err != nil {
//	        return 0, err
//	    }
//	    return n * 2, nil
//	})
//
//	reactive.NewObserver(session, func(ctx *reactive.EvalCtx) error {
//	    n, err := doubled.Get(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println("doubled is", n)
//	    return nil
//	})
//
//	session.Flush() // first pass: observer runs, dependencies are recorded
//	count.Set(5)
//	session.Flush() // observer runs again, doubled recomputes once
//
// Dependencies are captured from whatever a derivation or action actually
// reads through its EvalCtx. Edge sets are rebuilt from scratch on every
// evaluation, so conditional reads re-subscribe correctly between runs.
//
// # Reads
//
// Get records a dependency edge from the currently evaluating node to the
// node being read. Peek reads without subscribing:
//
//	v, err := cell.Get(ctx) // tracked: the reader re-runs when cell changes
//	v := cell.Peek()        // isolated: no edge, no re-run
//
// # Event Gating
//
// An observer can be gated on an explicit trigger set. A gated observer
// reads whatever it wants without subscribing; only a change to a declared
// trigger schedules it:
//
//	run := reactive.NewValue(session, false)
//
//	reactive.NewObserver(session, func(ctx *reactive.EvalCtx) error {
//	    rows, err := filtered.Get(ctx) // read, but not subscribed
//	    if err != nil {
//	        return err
//	    }
//	    return render(rows)
//	}, reactive.Gated(run))
//
// A gated observer performs no work until a trigger changes at least once;
// WithInitialRun opts into one execution at the first flush.
//
// # Flushing
//
// Mutations batch up between flushes. Flush runs each pending observer at
// most once against a single consistent snapshot of the graph; writes made
// by an observer during a flush are deferred whole to the next tick.
//
// # Errors
//
// A failing derivation poisons its node: every dependent read re-raises the
// same error until the node is successfully recomputed. A cycle is detected
// at evaluation time and reported as a CycleError. Observer failures are
// isolated from each other and aggregated into the Flush return value.
//
// # Extensions
//
// Extensions hook into writes, computations, observer runs, and flush
// boundaries for cross-cutting concerns:
//
//	session := reactive.NewSession(
//	    reactive.WithExtension(extensions.NewLoggingExtension(handler)),
//	)
//
// # Concurrency
//
// A session is confined to a single goroutine: evaluation is cooperative
// and a flush runs to completion before the next mutation batch. Separate
// sessions share no mutable state and may live on separate goroutines.
package reactive
