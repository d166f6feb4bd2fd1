package reactive

import (
	"context"
	"errors"
	"testing"
)

type recordingExtension struct {
	BaseExtension
	order       int
	events      *[]string
	label       string
	flushStarts int
	flushEnds   int
	errs        []error
}

func newRecordingExtension(label string, order int, events *[]string) *recordingExtension {
	return &recordingExtension{
		BaseExtension: NewBaseExtension(label),
		order:         order,
		events:        events,
		label:         label,
	}
}

func (e *recordingExtension) Order() int { return e.order }

func (e *recordingExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	*e.events = append(*e.events, e.label+":before:"+string(op.Kind))
	result, err := next()
	*e.events = append(*e.events, e.label+":after:"+string(op.Kind))
	return result, err
}

func (e *recordingExtension) OnError(err error, op *Operation, s *Session) {
	e.errs = append(e.errs, err)
}

func (e *recordingExtension) OnFlushStart(s *Session, tick Tick) error {
	e.flushStarts++
	return nil
}

func (e *recordingExtension) OnFlushEnd(s *Session, tick Tick, err error) error {
	e.flushEnds++
	return nil
}

func TestExtensionWrapOrder(t *testing.T) {
	var events []string
	outer := newRecordingExtension("outer", 1, &events)
	inner := newRecordingExtension("inner", 2, &events)

	sess := NewSession(WithExtension(inner), WithExtension(outer))
	defer sess.Dispose()

	e := NewExpression(sess, func(ctx *EvalCtx) (int, error) {
		return 1, nil
	})
	if _, err := e.Get(nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := []string{
		"outer:before:compute",
		"inner:before:compute",
		"inner:after:compute",
		"outer:after:compute",
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestExtensionOnError(t *testing.T) {
	var events []string
	ext := newRecordingExtension("ext", 1, &events)

	sess := NewSession(WithExtension(ext))
	defer sess.Dispose()

	failing := NewExpression(sess, func(ctx *EvalCtx) (int, error) {
		return 0, errors.New("derive failed")
	})
	if _, err := failing.Get(nil); err == nil {
		t.Fatal("expected error")
	}
	if len(ext.errs) != 1 {
		t.Fatalf("expected 1 OnError call, got %d", len(ext.errs))
	}
	var derivErr *DerivationError
	if !errors.As(ext.errs[0], &derivErr) {
		t.Errorf("expected DerivationError in OnError, got %T", ext.errs[0])
	}
}

func TestExtensionFlushHooks(t *testing.T) {
	var events []string
	ext := newRecordingExtension("ext", 1, &events)

	sess := NewSession(WithExtension(ext))
	defer sess.Dispose()

	count := NewValue(sess, 0)
	NewObserver(sess, func(ctx *EvalCtx) error {
		_, err := count.Get(ctx)
		return err
	})

	if err := sess.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	// No-op flush must not invoke hooks
	if err := sess.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if ext.flushStarts != 1 || ext.flushEnds != 1 {
		t.Errorf("expected one flush hook pair, got starts=%d ends=%d", ext.flushStarts, ext.flushEnds)
	}
}

type abortingExtension struct {
	BaseExtension
	abort error
}

func (e *abortingExtension) OnFlushStart(s *Session, tick Tick) error {
	return e.abort
}

func TestExtensionFlushStartAbortKeepsPending(t *testing.T) {
	abort := errors.New("maintenance window")
	ext := &abortingExtension{BaseExtension: NewBaseExtension("aborting"), abort: abort}

	sess := NewSession(WithExtension(ext))
	defer sess.Dispose()

	count := NewValue(sess, 0)
	runs := 0
	NewObserver(sess, func(ctx *EvalCtx) error {
		runs++
		_, err := count.Get(ctx)
		return err
	})

	err := sess.Flush()
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if runs != 0 {
		t.Error("expected no observer runs on aborted flush")
	}
	if sess.Pending() == 0 {
		t.Error("expected pending set preserved after aborted flush")
	}
}

type cleanupHandlerExtension struct {
	BaseExtension
	handled []*CleanupError
}

func (e *cleanupHandlerExtension) OnCleanupError(err *CleanupError) bool {
	e.handled = append(e.handled, err)
	return true
}

func TestExtensionOnCleanupError(t *testing.T) {
	ext := &cleanupHandlerExtension{BaseExtension: NewBaseExtension("cleanup-handler")}
	sess := NewSession(WithExtension(ext))

	broken := NewExpression(sess, func(ctx *EvalCtx) (int, error) {
		ctx.OnInvalidate(func() error {
			return errors.New("release failed")
		})
		return 1, nil
	})
	if _, err := broken.Get(nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if err := sess.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if len(ext.handled) != 1 {
		t.Fatalf("expected 1 cleanup error handled, got %d", len(ext.handled))
	}
	if ext.handled[0].Context != "dispose" {
		t.Errorf("expected dispose context, got %s", ext.handled[0].Context)
	}
}

func TestUseExtensionAfterConstruction(t *testing.T) {
	sess := NewSession()
	defer sess.Dispose()

	var events []string
	ext := newRecordingExtension("late", 1, &events)
	if err := sess.UseExtension(ext); err != nil {
		t.Fatalf("UseExtension failed: %v", err)
	}

	e := NewExpression(sess, func(ctx *EvalCtx) (int, error) {
		return 1, nil
	})
	if _, err := e.Get(nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected wrap events from late extension, got %v", events)
	}
}
