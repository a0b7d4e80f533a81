// Package band implements the Band Selector (spec §4.4): loading the
// device's supported and current bands from DMS/NAS, folding the legacy,
// legacy-LTE, and extended-LTE band TLVs into one flat band list, and
// translating abstract band requests back into those same TLVs on store.
package band

import (
	"context"
	"time"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/probe"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

// Selector drives the DMS/NAS dialogs for one Gateway.
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

// LoadSupportedBands reads DMS band-capabilities and caches the result on d
// so Store can later resolve bands == [ANY] without a further round trip.
// The extended-LTE-band feature is resolved on the first call: Supported if
// its TLV is present in that response, Unsupported otherwise; later calls
// leave it unchanged (spec §4.4).
func (s *Selector) LoadSupportedBands(ctx context.Context, d *device.Context) ([]device.Band, error) {
	const path = "load-supported-bands"

	dmsClient, haveDMS := s.dms(d.ID)
	if !haveDMS {
		return nil, qmierr.New(qmierr.Transport, path, "no DMS client for device %q", d.ID)
	}

	resp, err := engine.Request(ctx, dmsClient, path, qmi.Request{Name: qmi.DMSGetBandCapabilities}, s.timeout())
	if err != nil {
		return nil, err
	}
	if resp.ProtoErr != nil {
		return nil, qmierr.New(qmierr.Protocol, path, "dms-get-band-capabilities failed: %s", resp.ProtoErr)
	}
	out, ok := resp.Output.(BandCapabilitiesOutput)
	if !ok {
		return nil, qmierr.New(qmierr.Transport, path, "unexpected dms-get-band-capabilities output")
	}
	if len(out.Bands) == 0 {
		return nil, qmierr.New(qmierr.Protocol, path, "device %q reports no supported bands", d.ID)
	}

	if d.Features.Get(probe.ExtendedLTEBandPreference) == probe.Unknown {
		state := probe.Unsupported
		if out.HasExtendedLTEBand {
			state = probe.Supported
		}
		if rerr := d.Features.Resolve(probe.ExtendedLTEBandPreference, state); rerr != nil {
			return nil, rerr
		}
	}

	d.SupportedBands = out.Bands
	return out.Bands, nil
}

// LoadCurrentBands reads current bands via NAS-System-Selection-Preference,
// using the same legacy/extended-LTE TLV layering as Load-Supported-Bands.
// An empty result after parsing is an error (spec §4.4).
func (s *Selector) LoadCurrentBands(ctx context.Context, d *device.Context) ([]device.Band, error) {
	const path = "load-current-bands"

	nasClient, haveNAS := s.nas(d.ID)
	if !haveNAS {
		return nil, qmierr.New(qmierr.Transport, path, "no NAS client for device %q", d.ID)
	}

	resp, err := engine.Request(ctx, nasClient, path, qmi.Request{Name: qmi.NASGetSystemSelectionPreference}, s.timeout())
	if err != nil {
		return nil, err
	}
	if resp.ProtoErr != nil {
		return nil, qmierr.New(qmierr.Protocol, path, "get-system-selection-preference failed: %s", resp.ProtoErr)
	}
	out, ok := resp.Output.(SystemSelectionPreferenceOutput)
	if !ok {
		return nil, qmierr.New(qmierr.Transport, path, "unexpected get-system-selection-preference output")
	}

	bands := append([]device.Band{}, out.Bands...)
	if d.Features.IsSupported(probe.ExtendedLTEBandPreference) {
		bands = append(bands, out.ExtendedLTEBands...)
	}
	if len(bands) == 0 {
		return nil, qmierr.New(qmierr.Protocol, path, "device %q reports no current bands", d.ID)
	}
	return bands, nil
}

// Store translates bands into the legacy and (if supported) extended-LTE
// band TLVs and issues Set-System-Selection-Preference with permanent
// duration. bands == [ANY] (requested by passing any == true, in which case
// bands is ignored) resolves to the cached supported-bands list, failing if that cache is not
// populated (spec §4.4).
func (s *Selector) Store(ctx context.Context, d *device.Context, bands []device.Band, any bool) error {
	const path = "store-bands"

	if any {
		if len(d.SupportedBands) == 0 {
			return qmierr.New(qmierr.Unsupported, path, "supported-bands cache not populated for device %q", d.ID)
		}
		bands = d.SupportedBands
	}
	if len(bands) == 0 {
		return qmierr.New(qmierr.Validation, path, "no bands requested")
	}

	nasClient, haveNAS := s.nas(d.ID)
	if !haveNAS {
		return qmierr.New(qmierr.Transport, path, "no NAS client for device %q", d.ID)
	}

	input := SystemSelectionPreferenceInput{Bands: bands, Permanent: true}
	if d.Features.IsSupported(probe.ExtendedLTEBandPreference) {
		input.ExtendedLTEBands = bands
		input.UseExtendedLTEBand = true
	}

	resp, err := engine.Request(ctx, nasClient, path, qmi.Request{Name: qmi.NASSetSystemSelectionPreference, Input: input}, s.timeout())
	if err != nil {
		return err
	}
	if resp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path, "set-system-selection-preference failed: %s", resp.ProtoErr)
	}
	return nil
}
