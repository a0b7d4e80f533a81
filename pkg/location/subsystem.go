// Package location implements the Location Subsystem (spec §4.6): a
// device-agnostic SUPL/GPS/A-GPS/assistance-data interface backed by
// whichever of the two incompatible QMI services, PDS or LOC, the device
// actually exposes. The subsystem probes for PDS first and falls back to
// LOC; callers never need to know which backend is in play.
package location

import (
	"context"
	"time"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

// Subsystem drives the PDS/LOC dialogs for one Gateway.
type Subsystem struct {
	Gateway     qmi.Gateway
	StepTimeout time.Duration
	Tokens      engine.TokenAllocator
}

func (s *Subsystem) timeout() time.Duration {
	if s.StepTimeout > 0 {
		return s.StepTimeout
	}
	return qmi.DefaultRequestTimeout
}

// Probe discovers which of PDS/LOC this device exposes and records the
// handle on d, preferring PDS (spec §4.6). It is idempotent: a device whose
// clients are already recorded is left untouched.
func (s *Subsystem) Probe(d *device.Context) {
	if d.PDS == nil {
		if c, ok := s.Gateway.Peek(d.ID, qmi.ServicePDS); ok {
			d.PDS = &device.LocationClient{Client: c}
		}
	}
	if d.LOC == nil {
		if c, ok := s.Gateway.Peek(d.ID, qmi.ServiceLOC); ok {
			d.LOC = &device.LocationClient{Client: c}
		}
	}
}

// networkMode reports the PDS network-mode / LOC server-type selection:
// UMTS-SLP is preferred for any multimode device that offers GSM/UMTS,
// falling back to CDMA-PDE (spec §4.6).
func networkMode(d *device.Context) NetworkMode {
	if d.SupportedRadioInterfaces.Contains(device.RadioGSMUMTS) {
		return NetworkModeUMTS
	}
	return NetworkModeCDMA
}

// CapabilityAdditions reports the location-related capability bits this
// device exposes, based on which backend Probe found (spec §4.6): presence
// of either PDS or LOC adds the same {GPS-NMEA, GPS-RAW, A-GPS} set.
func (s *Subsystem) CapabilityAdditions(d *device.Context) device.LocationSource {
	if d.PDS == nil && d.LOC == nil {
		return 0
	}
	return device.SourceGPSNMEA | device.SourceGPSRAW | device.SourceAGPS
}

func noEffect(protoErr *qmi.ProtocolError) bool {
	return protoErr != nil && protoErr.Code == qmi.ErrNoEffect
}

var errNoBackend = qmierr.New(qmierr.Unsupported, "location", "neither PDS nor LOC client available on this device")

func (s *Subsystem) requestPDS(ctx context.Context, d *device.Context, path string, req qmi.Request) (qmi.Response, error) {
	if d.PDS == nil {
		return qmi.Response{}, errNoBackend
	}
	return engine.Request(ctx, d.PDS.Client, path, req, s.timeout())
}
