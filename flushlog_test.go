package reactive

import (
	"errors"
	"testing"
)

func TestFlushLogRecordsRuns(t *testing.T) {
	sess := NewSession()
	defer sess.Dispose()

	count := NewValue(sess, 0)
	NewObserver(sess, func(ctx *EvalCtx) error {
		_, err := count.Get(ctx)
		return err
	}, WithName("renderer"))

	if err := sess.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	rec := sess.FlushLog().Last()
	if rec == nil {
		t.Fatal("expected a flush record")
	}
	if rec.Tick != 1 {
		t.Errorf("expected tick 1, got %d", rec.Tick)
	}
	if len(rec.Runs) != 1 {
		t.Fatalf("expected 1 observer run, got %d", len(rec.Runs))
	}
	if rec.Runs[0].Name != "renderer" {
		t.Errorf("expected observer name in record, got %q", rec.Runs[0].Name)
	}
	if rec.Runs[0].Err != nil {
		t.Errorf("expected no run error, got %v", rec.Runs[0].Err)
	}
	if rec.End.Before(rec.Start) {
		t.Error("expected End >= Start")
	}
}

func TestFlushLogEviction(t *testing.T) {
	sess := NewSession(WithFlushLogLimit(2))
	defer sess.Dispose()

	count := NewValue(sess, 0)
	NewObserver(sess, func(ctx *EvalCtx) error {
		_, err := count.Get(ctx)
		return err
	})

	for i := 1; i <= 3; i++ {
		_ = count.Set(i)
		if err := sess.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
	}

	log := sess.FlushLog()
	if log.Len() != 2 {
		t.Fatalf("expected 2 retained records, got %d", log.Len())
	}
	records := log.Records()
	if records[0].Tick != 2 || records[1].Tick != 3 {
		t.Errorf("expected oldest record evicted, got ticks %d and %d", records[0].Tick, records[1].Tick)
	}
}

func TestFlushLogFilter(t *testing.T) {
	sess := NewSession()
	defer sess.Dispose()

	count := NewValue(sess, 0)
	NewObserver(sess, func(ctx *EvalCtx) error {
		c, err := count.Get(ctx)
		if err != nil {
			return err
		}
		if c == 2 {
			return errors.New("bad input")
		}
		return nil
	})

	for i := 1; i <= 3; i++ {
		_ = count.Set(i)
		_ = sess.Flush()
	}

	failed := sess.FlushLog().Filter(func(rec *FlushRecord) bool {
		return rec.Err != nil
	})
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed flush, got %d", len(failed))
	}
	if failed[0].Tick != 2 {
		t.Errorf("expected failure at tick 2, got %d", failed[0].Tick)
	}
}
