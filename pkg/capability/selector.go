// Package capability implements the Capability & Mode Selector (spec §4.3):
// it translates abstract capability and mode requests into the correct QMI
// dialog (system-selection-preference vs technology-preference), builds the
// supported combinations matrix, and drives reset when required.
package capability

import (
	"context"
	"time"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/probe"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

// Selector drives the NAS/DMS dialogs for one Gateway.
type Selector struct {
	Gateway     qmi.Gateway
	StepTimeout time.Duration
}

func (s *Selector) timeout() time.Duration {
	if s.StepTimeout > 0 {
		return s.StepTimeout
	}
	return qmi.DefaultRequestTimeout
}

func (s *Selector) nas(deviceID string) (qmi.Client, bool) {
	return s.Gateway.Peek(deviceID, qmi.ServiceNAS)
}

func (s *Selector) dms(deviceID string) (qmi.Client, bool) {
	return s.Gateway.Peek(deviceID, qmi.ServiceDMS)
}

// LoadCurrentCapabilities runs the three-step current-capabilities sequence
// of spec §4.3 and returns the merged capability mask. It is a Fatal
// programmer error to call this twice for the same device.
func (s *Selector) LoadCurrentCapabilities(ctx context.Context, d *device.Context) (device.CapabilityMask, error) {
	const path = "load-current-capabilities"

	if d.CapabilitiesLoaded {
		return 0, qmierr.New(qmierr.Fatal, path, "already invoked for device %q", d.ID)
	}

	nasClient, haveNAS := s.nas(d.ID)
	dmsClient, haveDMS := s.dms(d.ID)
	if !haveDMS {
		return 0, qmierr.New(qmierr.Transport, path, "no DMS client for device %q", d.ID)
	}

	var sspMask device.RATMask
	var sspHas bool
	if haveNAS {
		err := d.Features.RunProbe(probe.SystemSelectionPreference, func() (bool, error) {
			resp, err := engine.Request(ctx, nasClient, path, qmi.Request{Name: qmi.NASGetSystemSelectionPreference}, s.timeout())
			if err != nil {
				return false, err
			}
			if resp.ProtoErr != nil {
				return resp.ProtoErr.Code == qmi.ErrNoEffect || resp.ProtoErr.Code == qmi.ErrNotProvisioned, nil
			}
			if out, ok := resp.Output.(SystemSelectionPreferenceOutput); ok && out.ModePreference != nil {
				sspMask = *out.ModePreference
				sspHas = true
			}
			return true, nil
		})
		if err != nil {
			return 0, err
		}
	} else {
		_ = d.Features.Resolve(probe.SystemSelectionPreference, probe.Unsupported)
	}

	var tpMask device.RATMask
	var tpHas bool
	if haveNAS {
		err := d.Features.RunProbe(probe.TechnologyPreference, func() (bool, error) {
			resp, err := engine.Request(ctx, nasClient, path, qmi.Request{Name: qmi.NASGetTechnologyPreference}, s.timeout())
			if err != nil {
				return false, err
			}
			if resp.ProtoErr != nil {
				return resp.ProtoErr.Code == qmi.ErrNoEffect || resp.ProtoErr.Code == qmi.ErrNotProvisioned, nil
			}
			if out, ok := resp.Output.(TechnologyPreferenceOutput); ok {
				tpMask = out.Active
				tpHas = true
			}
			return true, nil
		})
		if err != nil {
			return 0, err
		}
	} else {
		_ = d.Features.Resolve(probe.TechnologyPreference, probe.Unsupported)
	}

	resp, err := engine.Request(ctx, dmsClient, path, qmi.Request{Name: qmi.DMSGetCapabilities}, s.timeout())
	if err != nil {
		return 0, err
	}
	if resp.ProtoErr != nil {
		return 0, qmierr.New(qmierr.Protocol, path, "dms-get-capabilities failed: %s", resp.ProtoErr)
	}
	caps, ok := resp.Output.(CapabilitiesOutput)
	if !ok {
		return 0, qmierr.New(qmierr.Transport, path, "unexpected dms-get-capabilities output")
	}

	universe := caps.RadioInterfaces
	merged := universe
	switch {
	case d.Features.IsSupported(probe.SystemSelectionPreference) && sspHas:
		merged = universe & sspMask.Capabilities()
	case d.Features.IsSupported(probe.TechnologyPreference) && tpHas:
		merged = universe & tpMask.Capabilities()
	}

	d.SupportedRadioInterfaces = universe
	d.CurrentCapabilities = merged
	d.CapabilitiesLoaded = true

	return merged, nil
}

// SupportedCapabilities enumerates the capability combinations valid for
// this device and sets Disable4GOnlyMode as a side effect (spec §4.3).
func (s *Selector) SupportedCapabilities(d *device.Context) []device.CapabilityMask {
	combos, offersLTEOnly := SupportedCapabilities(d.SupportedRadioInterfaces)
	d.Disable4GOnlyMode = offersLTEOnly
	return combos
}

// SetCurrentCapabilities drives the first -> ssp -> tp -> reset -> last
// state machine of spec §4.3.
func (s *Selector) SetCurrentCapabilities(ctx context.Context, d *device.Context, target device.CapabilityMask) error {
	const path = "set-current-capabilities"

	sspOK := d.Features.IsSupported(probe.SystemSelectionPreference)
	tpOK := d.Features.IsSupported(probe.TechnologyPreference)
	if !sspOK && !tpOK {
		return qmierr.New(qmierr.Unsupported, path, "neither system-selection-preference nor technology-preference supported by device %q", d.ID)
	}

	nasClient, haveNAS := s.nas(d.ID)
	if !haveNAS {
		return qmierr.New(qmierr.Transport, path, "no NAS client for device %q", d.ID)
	}

	if sspOK {
		ratMask := ratMaskForCapability(target)
		req := qmi.Request{Name: qmi.NASSetSystemSelectionPreference, Input: SystemSelectionPreferenceInput{
			ModePreference: &ratMask,
			Permanent:      true,
		}}
		resp, err := engine.Request(ctx, nasClient, path+": ssp", req, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil {
			return qmierr.New(qmierr.Protocol, path+": ssp", "set-system-selection-preference failed: %s", resp.ProtoErr)
		}
	} else {
		ratMask := ratMaskForCapability(target)
		req := qmi.Request{Name: qmi.NASSetTechnologyPreference, Input: TechnologyPreferenceInput{
			RATMask:   ratMask,
			Permanent: true,
		}}
		resp, err := engine.Request(ctx, nasClient, path+": tp", req, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil {
			if resp.ProtoErr.Code == qmi.ErrNoEffect {
				// Device is already in the requested state: success, no reset.
				d.CurrentCapabilities = target
				return nil
			}
			return qmierr.New(qmierr.Protocol, path+": tp", "set-technology-preference failed: %s", resp.ProtoErr)
		}
	}

	if err := s.reset(ctx, d, path); err != nil {
		return err
	}
	d.CurrentCapabilities = target
	return nil
}

func (s *Selector) reset(ctx context.Context, d *device.Context, path string) error {
	dmsClient, haveDMS := s.dms(d.ID)
	if !haveDMS {
		return qmierr.New(qmierr.Transport, path+": reset", "no DMS client for device %q", d.ID)
	}

	offReq := qmi.Request{Name: qmi.DMSSetOperatingMode, Input: OperatingModeInput{Mode: "offline"}}
	resp, err := engine.Request(ctx, dmsClient, path+": reset: offline", offReq, s.timeout())
	if err != nil {
		return err
	}
	if resp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path+": reset: offline", "%s", resp.ProtoErr)
	}

	resetReq := qmi.Request{Name: qmi.DMSSetOperatingMode, Input: OperatingModeInput{Mode: "reset"}}
	resp, err = engine.Request(ctx, dmsClient, path+": reset: reset", resetReq, s.timeout())
	if err != nil {
		return err
	}
	if resp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path+": reset: reset", "%s", resp.ProtoErr)
	}
	return nil
}

func ratMaskForCapability(m device.CapabilityMask) device.RATMask {
	var rats []device.RAT
	if m.Contains(device.RadioGSMUMTS) {
		rats = append(rats, device.RATGSM, device.RATUMTS)
	}
	if m.Contains(device.RadioCDMAEVDO) {
		rats = append(rats, device.RATCDMA1x, device.RATEVDO)
	}
	if m.Contains(device.RadioLTE) {
		rats = append(rats, device.RATLTE)
	}
	if m.Contains(device.Radio5GNR) {
		rats = append(rats, device.RATNR5G)
	}
	return device.RATMaskOf(rats...)
}
