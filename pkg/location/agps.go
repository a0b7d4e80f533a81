package location

import (
	"context"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

// GetAGPSMode implements spec §4.6's A-GPS mode getter: PDS ms-assisted
// tracking session maps to Assisted, LOC msa operation mode maps to
// Assisted; everything else is Standalone.
func (s *Subsystem) GetAGPSMode(ctx context.Context, d *device.Context) (AGPSMode, error) {
	const path = "get-agps-mode"

	switch {
	case d.PDS != nil:
		resp, err := engine.Request(ctx, d.PDS.Client, path, qmi.Request{Name: qmi.PDSGetTrackingSession}, s.timeout())
		if err != nil {
			return 0, err
		}
		if resp.ProtoErr != nil {
			return 0, qmierr.New(qmierr.Protocol, path, "pds-get-tracking-session failed: %s", resp.ProtoErr)
		}
		out, ok := resp.Output.(TrackingSessionOutput)
		if !ok {
			return 0, qmierr.New(qmierr.Transport, path, "unexpected pds-get-tracking-session output")
		}
		if out.MSAssisted {
			return AGPSAssisted, nil
		}
		return AGPSStandalone, nil

	case d.LOC != nil:
		resp, err := engine.Request(ctx, d.LOC.Client, path, qmi.Request{Name: qmi.LOCGetOperationMode}, s.timeout())
		if err != nil {
			return 0, err
		}
		if resp.ProtoErr != nil {
			return 0, qmierr.New(qmierr.Protocol, path, "loc-get-operation-mode failed: %s", resp.ProtoErr)
		}
		out, ok := resp.Output.(OperationModeOutput)
		if !ok {
			return 0, qmierr.New(qmierr.Transport, path, "unexpected loc-get-operation-mode output")
		}
		if out.MSA {
			return AGPSAssisted, nil
		}
		return AGPSStandalone, nil
	}

	return 0, errNoBackend
}

// SetAGPSMode implements spec §4.6's A-GPS mode setter: reads the current
// mode first and no-ops if it already matches.
func (s *Subsystem) SetAGPSMode(ctx context.Context, d *device.Context, mode AGPSMode) error {
	const path = "set-agps-mode"

	current, err := s.GetAGPSMode(ctx, d)
	if err != nil {
		return err
	}
	if current == mode {
		return nil
	}

	switch {
	case d.PDS != nil:
		resp, err := engine.Request(ctx, d.PDS.Client, path, qmi.Request{
			Name: qmi.PDSSetTrackingSession, Input: TrackingSessionInput{MSAssisted: mode == AGPSAssisted},
		}, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil {
			return qmierr.New(qmierr.Protocol, path, "pds-set-tracking-session failed: %s", resp.ProtoErr)
		}
		return nil

	case d.LOC != nil:
		resp, err := engine.Request(ctx, d.LOC.Client, path, qmi.Request{
			Name: qmi.LOCSetOperationMode, Input: OperationModeInput{MSA: mode == AGPSAssisted},
		}, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil {
			return qmierr.New(qmierr.Protocol, path, "loc-set-operation-mode failed: %s", resp.ProtoErr)
		}
		return nil
	}

	return errNoBackend
}
