// Package qmi defines the thin façade this control core uses to talk to a
// QMI transport: obtaining a service client handle, issuing a request with
// a timeout, and receiving typed indications. The transport itself (framing,
// message serialization, service client allocation, port discovery) lives
// outside this module and is referenced only through the interfaces below.
package qmi

import (
	"context"
	"time"
)

// Service identifies a QMI sub-service this core drives.
type Service uint8

const (
	ServiceNAS Service = iota
	ServiceDMS
	ServicePDC
	ServicePDS
	ServiceLOC
)

func (s Service) String() string {
	switch s {
	case ServiceNAS:
		return "NAS"
	case ServiceDMS:
		return "DMS"
	case ServicePDC:
		return "PDC"
	case ServicePDS:
		return "PDS"
	case ServiceLOC:
		return "LOC"
	default:
		return "UNKNOWN"
	}
}

// ProtocolErrorCode is the subset of QMI result-TLV error names this core
// gives special recovery semantics, per spec §6/§7.
type ProtocolErrorCode string

const (
	// ErrNoEffect: the requested state already holds; idempotent success.
	ErrNoEffect ProtocolErrorCode = "no-effect"
	// ErrNotProvisioned: empty-state success (e.g. default carrier config in use).
	ErrNotProvisioned ProtocolErrorCode = "not-provisioned"
	// ErrNotSupported: triggers the legacy fallback dialog in Carrier Config
	// and Assistance Inject only.
	ErrNotSupported ProtocolErrorCode = "not-supported"
	// ErrOther is any other named protocol failure.
	ErrOther ProtocolErrorCode = "other"
)

// ProtocolError wraps a QMI result-TLV failure.
type ProtocolError struct {
	Code    ProtocolErrorCode
	Message string
}

func (e *ProtocolError) Error() string { return string(e.Code) + ": " + e.Message }

// Request is a single QMI request/response exchange name plus its typed
// input, e.g. {Name: "nas-set-system-selection-preference", Input: sspInput}.
type Request struct {
	Name  string
	Input any
}

// Response is the result of a request: either a typed Output, or a
// ProtocolError captured from the result TLV.
type Response struct {
	Output   any
	ProtoErr *ProtocolError
}

// Indication is a single asynchronous indication delivered by a client,
// optionally carrying the token the engine used to correlate it to an
// outstanding request.
type Indication struct {
	Name    string
	Token   uint32
	HasToken bool
	Payload any
}

// Unsubscribe removes an indication subscription.
type Unsubscribe func()

// Client is a single QMI service client handle.
type Client interface {
	Service() Service

	// Send issues req and blocks until either a response arrives, ctx is
	// canceled, or the deadline set via context expires. It never blocks
	// the caller's event loop longer than the context allows — transports
	// are expected to return asynchronously under the hood.
	Send(ctx context.Context, req Request) (Response, error)

	// Subscribe registers for indications named name. The returned channel
	// is closed when Unsubscribe is called; callers MUST call Unsubscribe
	// exactly once to release the subscription.
	Subscribe(name string) (<-chan Indication, Unsubscribe, error)
}

// Gateway hands out service client handles for a device. The device
// discovery/port-grab layer that actually produces these handles is out of
// this module's scope; Gateway is the seam this core depends on.
type Gateway interface {
	// Peek returns the client for service on deviceID if the device already
	// exposes it, or (nil, false) if the service is unavailable on this
	// device. It never blocks on I/O.
	Peek(deviceID string, service Service) (Client, bool)
}

// DefaultRequestTimeout is used for any step that does not specify its own
// per-step timeout.
const DefaultRequestTimeout = 10 * time.Second
