// Package engine implements the generic multi-step operation driver
// described in spec §4.1: it sequences named steps against QMI service
// clients, correlates indications to outstanding requests via a
// monotonically increasing token, enforces per-step timeouts, and
// guarantees the caller's continuation fires exactly once.
//
// Each control operation (capability load, band store, carrier switch, ...)
// is modeled as a single Go function running on its own goroutine that
// calls Request and Await in sequence — the "single cooperative task that
// awaits at each QMI exchange" form mentioned in the design notes. There is
// no per-operation record type: the caller holds its own TokenAllocator and,
// where it needs one, a Completion guard; there is no shared mutable state
// to protect because nothing outside the operation's own goroutine touches
// it.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

// Token is the 32-bit correlation token the engine allocates per request.
// 0 is reserved to mean "no token" and is never handed out by Next.
type Token uint32

// TokenAllocator issues per-client monotonically increasing tokens. Tokens
// MUST NOT be reused for distinct in-flight requests against the same
// client (spec §5); a single allocator shared by all operations against one
// client's lifetime satisfies this.
type TokenAllocator struct {
	next uint32
}

// Next returns the next token, wrapping past 0 back to 1.
func (a *TokenAllocator) Next() Token {
	for {
		v := atomic.AddUint32(&a.next, 1)
		if v != 0 {
			return Token(v)
		}
	}
}

// Request issues req against client and waits for either a response, a
// canceled/expired ctx, or the supplied timeout — whichever happens first.
// Transport-level failures (including timeout) are returned as a
// *qmierr.Error with Code Transport; protocol-level failures are reported
// via the returned Response's ProtoErr and are not themselves an error.
func Request(ctx context.Context, client qmi.Client, path string, req qmi.Request, timeout time.Duration) (qmi.Response, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.Send(cctx, req)
	if err != nil {
		return qmi.Response{}, qmierr.Wrap(qmierr.Transport, path, err)
	}
	return resp, nil
}

// Await subscribes to the named indication on client and waits for the
// first delivery whose token matches (indications carrying a different
// token belong to another outstanding request and are silently ignored,
// per spec §5 property 5). It returns once a matching indication arrives,
// the context is canceled, or timeout elapses.
//
// When timeoutIsSuccess is true (the "silent reboot" mode of spec §4.1,
// used by Carrier Config's Activate-Config step), a timeout is reported as
// success: the returned timedOut is true and err is nil, rather than an
// Aborted error.
func Await(ctx context.Context, client qmi.Client, name string, token Token, timeout time.Duration, timeoutIsSuccess bool) (ind qmi.Indication, timedOut bool, err error) {
	ch, unsubscribe, err := client.Subscribe(name)
	if err != nil {
		return qmi.Indication{}, false, qmierr.Wrap(qmierr.Transport, name, err)
	}
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case delivered, ok := <-ch:
			if !ok {
				return qmi.Indication{}, false, qmierr.New(qmierr.Transport, name, "indication channel closed before delivery")
			}
			if delivered.HasToken && Token(delivered.Token) != token {
				continue
			}
			return delivered, false, nil

		case <-timer.C:
			if timeoutIsSuccess {
				return qmi.Indication{}, true, nil
			}
			return qmi.Indication{}, true, qmierr.New(qmierr.Aborted, name, "timed out waiting for indication")

		case <-ctx.Done():
			return qmi.Indication{}, false, qmierr.Wrap(qmierr.Aborted, name, ctx.Err())
		}
	}
}

// Completion guards a single continuation so it fires exactly once,
// regardless of whether it is reached via the success path, an error path,
// or a timeout path racing against a late response (spec §4.1, testable
// property 4).
type Completion struct {
	once sync.Once
	fn   func(error)
}

// NewCompletion wraps fn so that only the first call to Fire takes effect.
func NewCompletion(fn func(error)) *Completion {
	return &Completion{fn: fn}
}

// Fire invokes the wrapped continuation if it has not already fired.
func (c *Completion) Fire(err error) {
	c.once.Do(func() { c.fn(err) })
}

// Run executes steps in order on the calling goroutine, stopping at the
// first error. It is the linear equivalent of the spec's
// advance/complete-success/complete-error step contract: returning nil
// advances, returning a non-nil error aborts the whole operation.
func Run(ctx context.Context, steps ...func(context.Context) error) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return qmierr.Wrap(qmierr.Aborted, "run", err)
		}
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
