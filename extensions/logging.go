package extensions

import (
	"context"
	"log/slog"
	"time"

	reactive "github.com/reactive-fn/reactive-go"
)

// LoggingExtension logs writes, recomputations, observer runs, and flush
// boundaries through slog.
type LoggingExtension struct {
	reactive.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension backed by the given
// slog handler.
func NewLoggingExtension(handler slog.Handler) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: reactive.NewBaseExtension("logging"),
		logger:        slog.New(handler),
	}
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *reactive.Operation) (any, error) {
	start := time.Now()
	result, err := next()

	duration := time.Since(start)
	if err != nil {
		e.logger.Error("operation failed",
			"operation", string(op.Kind),
			"node", nodeName(op.Node),
			"duration", duration,
			"error", err.Error(),
		)
	} else {
		e.logger.Debug("operation completed",
			"operation", string(op.Kind),
			"node", nodeName(op.Node),
			"duration", duration,
		)
	}

	return result, err
}

func (e *LoggingExtension) OnFlushStart(s *reactive.Session, tick reactive.Tick) error {
	e.logger.Debug("flush started",
		"session", s.ID(),
		"tick", uint64(tick),
		"pending", s.Pending(),
	)
	return nil
}

func (e *LoggingExtension) OnFlushEnd(s *reactive.Session, tick reactive.Tick, err error) error {
	if err != nil {
		e.logger.Error("flush finished with errors",
			"session", s.ID(),
			"tick", uint64(tick),
			"error", err.Error(),
		)
		return nil
	}
	e.logger.Debug("flush finished",
		"session", s.ID(),
		"tick", uint64(tick),
	)
	return nil
}
