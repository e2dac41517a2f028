package store

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// AfterCommit runs fn once the outermost RunInTx carrying ctx commits. It is
// dropped when that transaction rolls back. Outside a transaction fn runs
// immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if fn == nil {
		return
	}
	hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		fn()
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}

func withCommitHooks(ctx context.Context) (context.Context, *commitHooks) {
	hooks := &commitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

func (h *commitHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
