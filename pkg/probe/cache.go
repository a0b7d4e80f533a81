// Package probe implements the per-device Feature Probe Cache (spec §4.2):
// memoization of which optional TLVs/services a device honours, modeled as
// an explicit three-valued state rather than a pair of booleans so the
// "unknown -> {supported, unsupported}" one-shot transition is a checkable
// invariant instead of an accident of two independent flags.
package probe

import (
	"fmt"
	"sync"

	"github.com/protei/qmicore/pkg/qmierr"
)

// State is a feature tri-state.
type State int

const (
	Unknown State = iota
	Unsupported
	Supported
)

func (s State) String() string {
	switch s {
	case Unsupported:
		return "unsupported"
	case Supported:
		return "supported"
	default:
		return "unknown"
	}
}

// Feature names the optional QMI dialogs this core probes for.
type Feature int

const (
	SystemSelectionPreference Feature = iota
	TechnologyPreference
	ExtendedLTEBandPreference
)

func (f Feature) String() string {
	switch f {
	case SystemSelectionPreference:
		return "nas-system-selection-preference"
	case TechnologyPreference:
		return "nas-technology-preference"
	case ExtendedLTEBandPreference:
		return "extended-lte-band-preference"
	default:
		return "unknown-feature"
	}
}

// Cache holds per-device feature tri-states. A Cache instance is owned by
// one DeviceContext and is therefore only ever touched from that device's
// single control goroutine; no locking is required for that case. The
// embedded mutex exists only to make the cache safe to share across the
// rare caller (e.g. diagnostics) that reads state from a different
// goroutine than the one driving the device.
type Cache struct {
	mu    sync.RWMutex
	state map[Feature]State
}

// New returns an empty cache with every feature Unknown.
func New() *Cache {
	return &Cache{state: make(map[Feature]State, 3)}
}

// Get returns the current tri-state for a feature.
func (c *Cache) Get(f Feature) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state[f]
}

// Resolve transitions a feature from Unknown to its final state. Calling
// Resolve a second time for the same feature (with any value, including the
// same one) is a programmer error: probes run exactly once per device,
// lazily, as part of the first capability load (spec §4.2).
func (c *Cache) Resolve(f Feature, final State) error {
	if final == Unknown {
		return qmierr.New(qmierr.Fatal, "probe.Resolve", "cannot resolve %s to Unknown", f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.state[f]; current != Unknown {
		return qmierr.New(qmierr.Fatal, "probe.Resolve", "feature %s already resolved to %s", f, current)
	}
	c.state[f] = final
	return nil
}

// IsSupported is a convenience for the common "only attempt this dialog if
// the probe succeeded" guard.
func (c *Cache) IsSupported(f Feature) bool {
	return c.Get(f) == Supported
}

// RunProbe resolves feature by invoking probe, which should issue the
// corresponding "get" request and report (supported, nil) on success or on
// a non-fatal protocol error (no-effect / empty / not-provisioned), and
// (false, err) on a transport-level failure. It is a no-op if the feature
// has already been resolved, so that callers driving a multi-step load
// sequence can call it unconditionally once per step.
func (c *Cache) RunProbe(f Feature, probe func() (bool, error)) error {
	if c.Get(f) != Unknown {
		return nil
	}

	supported, err := probe()
	if err != nil {
		return c.Resolve(f, Unsupported)
	}
	if supported {
		return c.Resolve(f, Supported)
	}
	return c.Resolve(f, Unsupported)
}

// String renders the cache for logging/diagnostics.
func (c *Cache) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("ssp=%s tp=%s ext-lte-band=%s",
		c.state[SystemSelectionPreference], c.state[TechnologyPreference], c.state[ExtendedLTEBandPreference])
}
