package reactive

type cleanupEntry struct {
	fn    func() error
	order int
}

// EvalCtx is the explicit evaluation context handed to derivation and
// action functions. Reads performed through a node handle with a non-nil
// EvalCtx are tracked; reads with a nil EvalCtx are isolated.
type EvalCtx struct {
	sess     *Session
	reader   node
	cleanups []cleanupEntry
}

// Session returns the session that owns the current evaluation.
func (ctx *EvalCtx) Session() *Session {
	return ctx.sess
}

// Tick returns the session's current tick.
func (ctx *EvalCtx) Tick() Tick {
	return ctx.sess.tick
}

// Reader returns the node being evaluated.
func (ctx *EvalCtx) Reader() Node {
	return ctx.reader
}

// OnInvalidate registers a cleanup function to run the next time the
// evaluated node is invalidated, or at session dispose, whichever comes
// first. Cleanups registered during one evaluation run in reverse order.
func (ctx *EvalCtx) OnInvalidate(fn func() error) {
	entry := cleanupEntry{
		fn:    fn,
		order: len(ctx.cleanups),
	}
	ctx.cleanups = append(ctx.cleanups, entry)
}

// GetTag retrieves a tag value from the session
func (ctx *EvalCtx) GetTag(tag any) (any, bool) {
	return ctx.sess.GetTag(tag)
}

// GetTag retrieves a typed tag value from the session
func GetTag[T any](ctx *EvalCtx, tag Tag[T]) (T, bool) {
	return tag.GetFromSession(ctx.sess)
}

// GetTagOrDefault retrieves a typed tag or returns a default value
func GetTagOrDefault[T any](ctx *EvalCtx, tag Tag[T], defaultVal T) T {
	if val, ok := tag.GetFromSession(ctx.sess); ok {
		return val
	}
	return defaultVal
}
