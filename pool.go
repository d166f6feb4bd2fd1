package reactive

import (
	"sync"
	"sync/atomic"
)

// ctxPool reuses EvalCtx allocations across evaluations.
type ctxPool struct {
	pool     sync.Pool
	acquires atomic.Uint64
	misses   atomic.Uint64
}

func newCtxPool() *ctxPool {
	p := &ctxPool{}
	p.pool.New = func() any {
		p.misses.Add(1)
		return &EvalCtx{
			cleanups: make([]cleanupEntry, 0, 8),
		}
	}
	return p
}

func (p *ctxPool) acquire(s *Session, reader node) *EvalCtx {
	p.acquires.Add(1)
	ctx := p.pool.Get().(*EvalCtx)
	ctx.sess = s
	ctx.reader = reader
	ctx.cleanups = ctx.cleanups[:0]
	return ctx
}

func (p *ctxPool) release(ctx *EvalCtx) {
	if ctx == nil {
		return
	}
	ctx.sess = nil
	ctx.reader = nil
	ctx.cleanups = ctx.cleanups[:0]
	p.pool.Put(ctx)
}

// PoolMetrics tracks evaluation-context pool usage statistics.
type PoolMetrics struct {
	Hits   uint64
	Misses uint64
}

// PoolMetrics returns a snapshot of the session's evaluation-context pool
// statistics.
func (s *Session) PoolMetrics() PoolMetrics {
	acquires := s.pool.acquires.Load()
	misses := s.pool.misses.Load()
	return PoolMetrics{
		Hits:   acquires - misses,
		Misses: misses,
	}
}
