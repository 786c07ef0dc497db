package opds

import (
	"context"

	"github.com/samber/mo"

	"github.com/KonishchevDmitry/opds/pkg/feed"
)

// Promise is the result of an asynchronous parse. It's settled exactly once and never changes after that.
type Promise struct {
	done   chan struct{}
	result mo.Result[*feed.Feed]
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// settle must be called exactly once: a second call panics on closing of the closed channel.
func (p *Promise) settle(result mo.Result[*feed.Feed]) {
	p.result = result
	close(p.done)
}

// Done returns a channel which is closed when the promise is settled.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the promise is settled.
func (p *Promise) Result() mo.Result[*feed.Feed] {
	<-p.done
	return p.result
}

func (p *Promise) Get() (*feed.Feed, error) {
	return p.Result().Get()
}

// Wait is like Get, but stops waiting when the context is done. The parsing itself is not interrupted.
func (p *Promise) Wait(ctx context.Context) (*feed.Feed, error) {
	select {
	case <-p.done:
		return p.result.Get()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
