package extensions

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	reactive "github.com/reactive-fn/reactive-go"
)

func TestLoggingExtension_LogsOperations(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	sess := reactive.NewSession(
		reactive.WithExtension(NewLoggingExtension(handler)),
	)
	defer sess.Dispose()

	count := reactive.NewValue(sess, 0, reactive.WithName("Count"))
	doubled := reactive.NewExpression(sess, func(ctx *reactive.EvalCtx) (int, error) {
		c, err := count.Get(ctx)
		return c * 2, err
	}, reactive.WithName("Doubled"))

	if err := count.Set(5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := doubled.Get(nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "operation=write") {
		t.Error("Expected a write operation log")
	}
	if !strings.Contains(output, "operation=compute") {
		t.Error("Expected a compute operation log")
	}
	if !strings.Contains(output, "node=Doubled") {
		t.Error("Expected node name in compute log")
	}
}

func TestLoggingExtension_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	sess := reactive.NewSession(
		reactive.WithExtension(NewLoggingExtension(handler)),
	)
	defer sess.Dispose()

	broken := reactive.NewExpression(sess, func(ctx *reactive.EvalCtx) (int, error) {
		return 0, fmt.Errorf("upstream unavailable")
	}, reactive.WithName("Broken"))

	if _, err := broken.Get(nil); err == nil {
		t.Fatal("Expected error")
	}

	output := buf.String()
	if !strings.Contains(output, "operation failed") {
		t.Error("Expected failure log line")
	}
	if !strings.Contains(output, "upstream unavailable") {
		t.Error("Expected error text in failure log")
	}
}

func TestLoggingExtension_LogsFlushBoundaries(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	sess := reactive.NewSession(
		reactive.WithExtension(NewLoggingExtension(handler)),
	)
	defer sess.Dispose()

	count := reactive.NewValue(sess, 0, reactive.WithName("Count"))
	reactive.NewObserver(sess, func(ctx *reactive.EvalCtx) error {
		_, err := count.Get(ctx)
		return err
	}, reactive.WithName("Printer"))

	if err := sess.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "flush started") {
		t.Error("Expected flush start log")
	}
	if !strings.Contains(output, "flush finished") {
		t.Error("Expected flush end log")
	}
	if !strings.Contains(output, "operation=observe") {
		t.Error("Expected observe operation log")
	}
}
