package service

import (
	"context"
	"sync"

	"github.com/SunnyMondal53778/pastport-history/pkg/models"

	"golang.org/x/sync/singleflight"
)

// callGroup collapses concurrent identical upstream calls into one.
// The shared call runs on its own context, which is cancelled once every
// waiter has left. An abandoned key is forgotten so later callers start fresh.
type callGroup struct {
	group singleflight.Group

	mu    sync.Mutex
	calls map[string]*sharedCall
}

type sharedCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func newCallGroup() *callGroup {
	return &callGroup{calls: make(map[string]*sharedCall)}
}

// Do runs fn at most once per key among concurrent callers. joined reports
// whether this caller attached to a call another request had started.
// fn runs to completion even if the caller that started it leaves early.
func (g *callGroup) Do(ctx context.Context, key string, fn func(context.Context) (*models.MonumentRecord, error)) (record *models.MonumentRecord, joined bool, err error) {
	call, joined := g.join(ctx, key)

	ch := g.group.DoChan(key, func() (interface{}, error) {
		return fn(call.ctx)
	})

	select {
	case res := <-ch:
		g.leave(key, call, false)
		if res.Err != nil {
			return nil, joined, res.Err
		}
		return res.Val.(*models.MonumentRecord), joined, nil
	case <-ctx.Done():
		g.leave(key, call, true)
		return nil, joined, ctx.Err()
	}
}

// waiters reports how many callers are attached to key
func (g *callGroup) waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if call, ok := g.calls[key]; ok {
		return call.waiters
	}
	return 0
}

func (g *callGroup) join(ctx context.Context, key string) (*sharedCall, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call, ok := g.calls[key]
	if !ok {
		sharedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &sharedCall{ctx: sharedCtx, cancel: cancel}
		g.calls[key] = call
	}
	call.waiters++
	return call, ok
}

func (g *callGroup) leave(key string, call *sharedCall, abandoned bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call.waiters--
	if call.waiters > 0 {
		return
	}

	call.cancel()
	if g.calls[key] == call {
		delete(g.calls, key)
	}
	if abandoned {
		g.group.Forget(key)
	}
}
