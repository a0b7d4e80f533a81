package device

import (
	"context"
	"sync"

	"github.com/protei/qmicore/pkg/qmierr"
)

// entry pairs a Context with the serial work queue that realizes the
// "single control thread" scheduling model of spec §5: every mutation of
// Context happens inside the goroutine draining this queue, so no two
// continuations for the same device ever run concurrently, and Context
// itself needs no internal lock.
type entry struct {
	ctx     *Context
	work    chan func(*Context)
	closeCh chan struct{}
}

// Registry looks up (never silently creates outside Lookup) Device Contexts
// by device ID, lazily initializing them on first access and destroying
// them atomically on Release, per the re-architecture note in spec §9.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*entry
}

// NewRegistry returns an empty device registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*entry)}
}

// Lookup returns the Context for deviceID, creating it lazily if this is
// the first access.
func (r *Registry) Lookup(deviceID string) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.devices[deviceID]
	if !ok {
		e = &entry{
			ctx:     New(deviceID),
			work:    make(chan func(*Context), 32),
			closeCh: make(chan struct{}),
		}
		r.devices[deviceID] = e
		go e.run()
	}
	return e.ctx
}

func (e *entry) run() {
	for {
		select {
		case fn := <-e.work:
			fn(e.ctx)
		case <-e.closeCh:
			return
		}
	}
}

// Submit enqueues fn to run on deviceID's single control goroutine and
// blocks until it has run (or ctx is canceled, or the device was already
// released). This is how every multi-step operation updates Context only
// from the completion continuation, as spec §5 requires.
func (r *Registry) Submit(ctx context.Context, deviceID string, fn func(*Context)) error {
	r.mu.Lock()
	e, ok := r.devices[deviceID]
	r.mu.Unlock()
	if !ok {
		return qmierr.New(qmierr.Fatal, "device.Submit", "device %q not registered", deviceID)
	}

	done := make(chan struct{})
	wrapped := func(c *Context) {
		fn(c)
		close(done)
	}

	select {
	case e.work <- wrapped:
	case <-e.closeCh:
		return qmierr.New(qmierr.Fatal, "device.Submit", "device %q released before work was accepted", deviceID)
	case <-ctx.Done():
		return qmierr.Wrap(qmierr.Aborted, "device.Submit", ctx.Err())
	}

	select {
	case <-done:
		return nil
	case <-e.closeCh:
		return qmierr.New(qmierr.Fatal, "device.Submit", "device %q released before work completed", deviceID)
	case <-ctx.Done():
		return qmierr.Wrap(qmierr.Aborted, "device.Submit", ctx.Err())
	}
}

// Release destroys deviceID's Context and stops its control goroutine. It
// is a no-op if the device is not registered.
func (r *Registry) Release(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.devices[deviceID]
	if !ok {
		return
	}
	delete(r.devices, deviceID)
	close(e.closeCh)
}

// Snapshot returns the device IDs currently registered, for diagnostics.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	return ids
}

// Summary is a read-only, diagnostics-facing view of one device's state.
type Summary struct {
	ID                  string
	CurrentCapabilities CapabilityMask
	SupportedBands      []Band
	ConfigActiveDefault bool
	ActiveConfigIndex   int
	FeatureProbe        string
}

// Describe reads deviceID's Context via its own control goroutine (so the
// read never races a concurrent mutation) and returns a Summary, or false
// if the device is not registered.
func (r *Registry) Describe(ctx context.Context, deviceID string) (Summary, bool, error) {
	r.mu.Lock()
	_, ok := r.devices[deviceID]
	r.mu.Unlock()
	if !ok {
		return Summary{}, false, nil
	}

	var sum Summary
	err := r.Submit(ctx, deviceID, func(c *Context) {
		sum = Summary{
			ID:                  c.ID,
			CurrentCapabilities: c.CurrentCapabilities,
			SupportedBands:      c.SupportedBands,
			ConfigActiveDefault: c.ConfigActiveDefault,
			ActiveConfigIndex:   c.ActiveConfigIndex,
			FeatureProbe:        c.Features.String(),
		}
	})
	if err != nil {
		return Summary{}, true, err
	}
	return sum, true, nil
}
