package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/m1gwings/treedrawer/tree"
	reactive "github.com/reactive-fn/reactive-go"
)

// GraphDebugExtension logs a dependency graph drawing when evaluation fails.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Silent (for testing)
//	ext := extensions.NewGraphDebugExtension(extensions.NewSilentHandler())
//
// The extension logs at ERROR level for derivation errors and observer
// failures.
type GraphDebugExtension struct {
	reactive.BaseExtension

	// Track expressions as they recompute
	computedNodes map[reactive.Node]bool
	failedNodes   map[reactive.Node]error
	logger        *slog.Logger
}

// NewGraphDebugExtension creates a new graph debug extension.
// logHandler: slog.Handler for logging (use HumanHandler for formatted output, or any other slog.Handler)
func NewGraphDebugExtension(logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: reactive.NewBaseExtension("graph-debug"),
		computedNodes: make(map[reactive.Node]bool),
		failedNodes:   make(map[reactive.Node]error),
		logger:        slog.New(logHandler),
	}
}

// Wrap tracks recomputation outcomes for later rendering
func (e *GraphDebugExtension) Wrap(ctx context.Context, next func() (any, error), op *reactive.Operation) (any, error) {
	result, err := next()

	if op.Kind == reactive.OpCompute || op.Kind == reactive.OpObserve {
		if err == nil {
			e.computedNodes[op.Node] = true
			delete(e.failedNodes, op.Node)
		} else {
			delete(e.computedNodes, op.Node)
			e.failedNodes[op.Node] = err
		}
	}

	return result, err
}

// OnError logs the dependency graph when an evaluation fails
func (e *GraphDebugExtension) OnError(err error, op *reactive.Operation, s *reactive.Session) {
	e.logger.Error("Reactive Evaluation Error",
		"node", nodeName(op.Node),
		"error", err.Error(),
		"operation", string(op.Kind),
		"dependency_graph", e.formatDependencyGraph(s, op.Node, err),
	)
}

// formatDependencyGraph draws the current downstream edges as a forest,
// one tree per invalidation source, with status markers per node.
func (e *GraphDebugExtension) formatDependencyGraph(s *reactive.Session, failedNode reactive.Node, failedErr error) string {
	var sb strings.Builder
	graph := s.ExportDependencyGraph()

	if len(graph) == 0 {
		sb.WriteString("\n(empty - no reactive dependencies tracked)")
		return sb.String()
	}

	// Roots are the nodes that appear only as edge sources, never as
	// someone's dependent.
	dependents := make(map[reactive.Node]bool)
	for _, children := range graph {
		for _, child := range children {
			dependents[child] = true
		}
	}
	var roots []reactive.Node
	for n := range graph {
		if !dependents[n] {
			roots = append(roots, n)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].ID() < roots[j].ID()
	})

	sb.WriteString("\n")
	for _, root := range roots {
		t := tree.NewTree(tree.NodeString(e.nodeLabel(root, failedNode)))
		e.drawDependents(t, root, graph, failedNode, map[reactive.Node]bool{root: true})
		sb.WriteString(fmt.Sprint(t))
		sb.WriteString("\n")
	}

	// Show error details for the failed node
	if failedErr != nil {
		sb.WriteString("\nError Details:\n")
		sb.WriteString(fmt.Sprintf("  Node: %s\n", nodeName(failedNode)))
		sb.WriteString(fmt.Sprintf("  Error: %v\n", failedErr))
	}

	return sb.String()
}

// drawDependents adds a node's direct dependents as children of t,
// recursing into each. A node reachable through two parents is drawn
// under both but expanded only once.
func (e *GraphDebugExtension) drawDependents(t *tree.Tree, n reactive.Node, graph map[reactive.Node][]reactive.Node, failedNode reactive.Node, seen map[reactive.Node]bool) {
	children := graph[n]
	for i, child := range children {
		t.AddChild(tree.NodeString(e.nodeLabel(child, failedNode)))
		sub, err := t.Child(i)
		if err != nil {
			continue
		}
		if seen[child] {
			continue
		}
		seen[child] = true
		e.drawDependents(sub, child, graph, failedNode, seen)
	}
}

func (e *GraphDebugExtension) nodeLabel(n reactive.Node, failedNode reactive.Node) string {
	label := nodeName(n)
	switch {
	case n == failedNode:
		return label + " ❌ FAILED"
	case e.computedNodes[n]:
		return label + " ✓"
	case e.failedNodes[n] != nil:
		return fmt.Sprintf("%s ❌ (error: %v)", label, e.failedNodes[n])
	case n.Kind() == reactive.KindValue:
		return label
	default:
		return label + " (pending)"
	}
}

func nodeName(n reactive.Node) string {
	if n == nil {
		return "<nil>"
	}
	if name, ok := reactive.NameOf(n); ok {
		return name
	}
	return fmt.Sprintf("%s#%d", n.Kind(), n.ID())
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false // Never enabled, discards everything
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil // Do nothing
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h // Return self, no state to modify
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h // Return self, no state to modify
}

// HumanHandler is a slog.Handler that formats logs for human readability
// with proper line breaks and visual formatting (especially for dependency graphs)
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	// Special formatting for GraphDebug messages
	if record.Message == "Reactive Evaluation Error" {
		return h.handleEvaluationError(record)
	}

	// Default formatting for other messages
	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleEvaluationError(record slog.Record) error {
	var node, errorMsg, operation, dependencyGraph string

	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "node":
			node = a.Value.String()
		case "error":
			errorMsg = a.Value.String()
		case "operation":
			operation = a.Value.String()
		case "dependency_graph":
			dependencyGraph = a.Value.String()
		}
		return true
	})

	writes := []func() error{
		func() error { _, err := fmt.Fprintln(h.writer); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintln(h.writer, "[GraphDebug] Reactive Evaluation Error"); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nFailed Node: %s\n", node); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Error: %s\n", errorMsg); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Operation: %s\n", operation); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nDependency Graph:%s", dependencyGraph); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintln(h.writer); return err },
	}

	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}

	return nil
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// For simplicity, return self (could create new handler with attrs if needed)
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
