// Package device implements the per-device Private State described in
// spec §3: one Context instance per managed modem, created lazily on first
// access and destroyed atomically when the device is released. Every field
// except the immutable caches is mutated only from the device's single
// control goroutine (see Registry), so Context itself carries no lock.
package device

import (
	"github.com/protei/qmicore/pkg/probe"
	"github.com/protei/qmicore/pkg/qmi"
)

// Context is the Device Context / Private State for one managed modem.
type Context struct {
	// ID is an opaque identifier supplied by the (out-of-scope) discovery
	// layer. It is never interpreted — only used as a map key and a log field.
	ID string

	Features *probe.Cache

	// CapabilitiesLoaded guards the Fatal-class invariant that
	// Load-Current-Capabilities is only ever invoked once per device
	// (spec §7, Fatal taxonomy entry).
	CapabilitiesLoaded bool

	// CurrentCapabilities is the merged result of the current-capabilities
	// load sequence (spec §4.3).
	CurrentCapabilities CapabilityMask

	// SupportedRadioInterfaces is the DMS maximum radio interface list.
	// Immutable after first load.
	SupportedRadioInterfaces CapabilityMask

	// Disable4GOnlyMode suppresses offering "4G only" as a Mode when
	// LTE-only is already offered as a Capability on a tri-mode
	// LTE+CDMA+GSM device, to avoid a lossy reboot path (spec §3, §4.3).
	Disable4GOnlyMode bool

	// SupportedBands caches the device's band-capabilities result so that
	// Band Store can resolve bands == [ANY] without a further round trip
	// (spec §4.4).
	SupportedBands []Band

	EnabledLocationSources LocationSource

	PDS *LocationClient
	LOC *LocationClient

	AssistanceServers     []string
	AssistanceMaxFileSize int
	AssistanceMaxPartSize int

	Configs             []ConfigDescriptor
	ActiveConfigIndex   int
	ConfigActiveDefault bool
}

// LocationClient pairs a QMI client handle with the indication
// subscription the Location Subsystem installs for the lifetime of an
// enabled location session (spec §5, "shared resources").
type LocationClient struct {
	Client       qmi.Client
	Unsubscribe  qmi.Unsubscribe
}

// New creates an empty Context for deviceID. Callers should obtain Context
// instances through a Registry rather than constructing them directly, so
// that lookup-not-create semantics and single-goroutine ownership hold.
func New(deviceID string) *Context {
	return &Context{
		ID:                deviceID,
		Features:          probe.New(),
		ActiveConfigIndex: -1,
	}
}
