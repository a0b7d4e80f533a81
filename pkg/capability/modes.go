package capability

import (
	"context"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/probe"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

// SetCurrentModes implements spec §4.3's Set-current-modes entry point.
//
// If allowed == ModeMaskAny and preferred == 0 (NONE), allowed is expanded
// to every mode the device supports. This resolves the open question in
// spec §9(a) by treating the source's read-before-assignment of the
// preferred field as intentional zero-init: a caller that wants ANY/NONE
// gets exactly that, nothing more.
func (s *Selector) SetCurrentModes(ctx context.Context, d *device.Context, allowed device.ModeMask, preferred device.Mode) error {
	const path = "set-current-modes"

	if allowed == device.ModeMaskAny && preferred == 0 {
		allowed = device.ModesFromCapability(d.SupportedRadioInterfaces)
	}

	sspOK := d.Features.IsSupported(probe.SystemSelectionPreference)
	tpOK := d.Features.IsSupported(probe.TechnologyPreference)
	if !sspOK && !tpOK {
		return qmierr.New(qmierr.Unsupported, path, "neither system-selection-preference nor technology-preference supported by device %q", d.ID)
	}

	nasClient, haveNAS := s.nas(d.ID)
	if !haveNAS {
		return qmierr.New(qmierr.Transport, path, "no NAS client for device %q", d.ID)
	}

	if !sspOK {
		if preferred != 0 {
			return qmierr.New(qmierr.Unsupported, path, "technology-preference cannot express a preferred mode")
		}
		ratMask := ratMaskForModes(allowed)
		req := qmi.Request{Name: qmi.NASSetTechnologyPreference, Input: TechnologyPreferenceInput{RATMask: ratMask, Permanent: true}}
		resp, err := engine.Request(ctx, nasClient, path+": tp", req, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil && resp.ProtoErr.Code != qmi.ErrNoEffect {
			return qmierr.New(qmierr.Protocol, path+": tp", "set-technology-preference failed: %s", resp.ProtoErr)
		}
		return nil
	}

	ratMask := ratMaskForModes(allowed)
	input := SystemSelectionPreferenceInput{ModePreference: &ratMask, Permanent: true}

	if allowed == device.ModeMaskOf(device.Mode2G, device.Mode3G) {
		pref := device.RATGSM
		if preferred == device.Mode3G {
			pref = device.RATUMTS
		}
		input.TwoThreeAcqPreferred = &pref
	} else if preferred != 0 {
		input.AcquisitionOrder = acquisitionOrderFor(allowed, preferred)
	}

	req := qmi.Request{Name: qmi.NASSetSystemSelectionPreference, Input: input}
	resp, err := engine.Request(ctx, nasClient, path+": ssp", req, s.timeout())
	if err != nil {
		return err
	}
	if resp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path+": ssp", "set-system-selection-preference failed: %s", resp.ProtoErr)
	}
	return nil
}

// LoadCurrentModes implements spec §4.3's Load-current-modes entry point.
func (s *Selector) LoadCurrentModes(ctx context.Context, d *device.Context) (allowed device.ModeMask, preferred device.Mode, err error) {
	const path = "load-current-modes"

	nasClient, haveNAS := s.nas(d.ID)
	if !haveNAS {
		return 0, 0, qmierr.New(qmierr.Transport, path, "no NAS client for device %q", d.ID)
	}

	if d.Features.IsSupported(probe.SystemSelectionPreference) {
		resp, rerr := engine.Request(ctx, nasClient, path+": ssp", qmi.Request{Name: qmi.NASGetSystemSelectionPreference}, s.timeout())
		if rerr != nil {
			return 0, 0, rerr
		}
		if resp.ProtoErr != nil {
			return 0, 0, qmierr.New(qmierr.Protocol, path+": ssp", "get-system-selection-preference failed: %s", resp.ProtoErr)
		}
		out, ok := resp.Output.(SystemSelectionPreferenceOutput)
		if !ok || out.ModePreference == nil {
			return 0, 0, qmierr.New(qmierr.Transport, path+": ssp", "unexpected get-system-selection-preference output")
		}

		allowed = out.ModePreference.Modes()
		if allowed == device.ModeMaskOf(device.Mode2G, device.Mode3G) && out.TwoThreeAcqPreferred != nil {
			preferred = out.TwoThreeAcqPreferred.Mode()
		} else {
			for _, rat := range out.AcquisitionOrder {
				if allowed.Contains(rat.Mode()) {
					preferred = rat.Mode()
					break
				}
			}
		}
		return allowed, preferred, nil
	}

	if d.Features.IsSupported(probe.TechnologyPreference) {
		resp, rerr := engine.Request(ctx, nasClient, path+": tp", qmi.Request{Name: qmi.NASGetTechnologyPreference}, s.timeout())
		if rerr != nil {
			return 0, 0, rerr
		}
		if resp.ProtoErr != nil {
			return 0, 0, qmierr.New(qmierr.Protocol, path+": tp", "get-technology-preference failed: %s", resp.ProtoErr)
		}
		out, ok := resp.Output.(TechnologyPreferenceOutput)
		if !ok {
			return 0, 0, qmierr.New(qmierr.Transport, path+": tp", "unexpected get-technology-preference output")
		}
		return out.Active.Modes(), 0, nil
	}

	return 0, 0, qmierr.New(qmierr.Unsupported, path, "neither system-selection-preference nor technology-preference supported by device %q", d.ID)
}

// LoadSupportedModes implements spec §4.3's Supported-modes enumeration,
// returning the single DMS-derived mask when neither SSP nor TP is
// supported (testable property 2).
func (s *Selector) LoadSupportedModes(d *device.Context) []ModeVariant {
	dmsModes := device.ModesFromCapability(d.SupportedRadioInterfaces)

	sspOK := d.Features.IsSupported(probe.SystemSelectionPreference)
	tpOK := d.Features.IsSupported(probe.TechnologyPreference)
	if !sspOK && !tpOK {
		return []ModeVariant{{Allowed: dmsModes}}
	}

	return SupportedModes(dmsModes, sspOK, d.Disable4GOnlyMode)
}

func ratMaskForModes(modes device.ModeMask) device.RATMask {
	var rats []device.RAT
	if modes.Contains(device.Mode2G) {
		rats = append(rats, device.RATGSM, device.RATCDMA1x)
	}
	if modes.Contains(device.Mode3G) {
		rats = append(rats, device.RATUMTS, device.RATEVDO)
	}
	if modes.Contains(device.Mode4G) {
		rats = append(rats, device.RATLTE)
	}
	if modes.Contains(device.Mode5G) {
		rats = append(rats, device.RATNR5G)
	}
	return device.RATMaskOf(rats...)
}

// acquisitionOrderFor builds a RAT ordering with preferred's RATs first,
// followed by the remaining RATs in allowed, matching the "first element
// whose radio interface is contained in allowed is the preferred mode"
// contract used on read-back.
func acquisitionOrderFor(allowed device.ModeMask, preferred device.Mode) []device.RAT {
	var order []device.RAT
	all := []device.RAT{device.RATLTE, device.RATNR5G, device.RATUMTS, device.RATGSM, device.RATEVDO, device.RATCDMA1x}

	for _, r := range all {
		if r.Mode() == preferred && allowed.Contains(r.Mode()) {
			order = append(order, r)
		}
	}
	for _, r := range all {
		if r.Mode() != preferred && allowed.Contains(r.Mode()) {
			order = append(order, r)
		}
	}
	return order
}
