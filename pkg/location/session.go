package location

import (
	"context"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

const locStartSessionID = 0x10
const locStartMinIntervalMillis = 1000

// StartGPS drives the PDS or LOC start sequence of spec §4.6 and retains
// the backend's NMEA indication subscription for the lifetime of the
// session. handler is invoked for every NMEA sentence delivered while the
// session is active.
func (s *Subsystem) StartGPS(ctx context.Context, d *device.Context, handler func(nmea string)) error {
	const path = "start-gps"

	switch {
	case d.PDS != nil:
		if _, err := s.requestPDSIgnoreNoEffect(ctx, d, path+": gps-service-state", qmi.Request{
			Name: qmi.PDSSetGPSServiceState, Input: GPSServiceStateInput{On: true},
		}); err != nil {
			return err
		}
		if _, err := s.requestPDSIgnoreNoEffect(ctx, d, path+": auto-tracking-state", qmi.Request{
			Name: qmi.PDSSetAutoTrackingState, Input: AutoTrackingStateInput{On: true},
		}); err != nil {
			return err
		}
		ch, unsubscribe, err := d.PDS.Client.Subscribe(qmi.PDSEventReportInd)
		if err != nil {
			return qmierr.Wrap(qmierr.Transport, path, err)
		}
		if _, err := engine.Request(ctx, d.PDS.Client, path+": event-report", qmi.Request{
			Name: qmi.PDSSetEventReport, Input: EventReportInput{NMEAPositionReporting: true},
		}, s.timeout()); err != nil {
			unsubscribe()
			return err
		}
		go forwardNMEA(ch, func(ind qmi.Indication) (string, bool) {
			ev, ok := ind.Payload.(EventReportIndication)
			return ev.NMEA, ok
		}, handler)
		d.PDS.Unsubscribe = unsubscribe
		return nil

	case d.LOC != nil:
		resp, err := engine.Request(ctx, d.LOC.Client, path+": start", qmi.Request{Name: qmi.LOCStart, Input: StartInput{
			SessionID:          locStartSessionID,
			IntermediateReport: false,
			MinIntervalMillis:  locStartMinIntervalMillis,
			Recurrence:         "periodic",
		}}, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil {
			return qmierr.New(qmierr.Protocol, path+": start", "loc-start failed: %s", resp.ProtoErr)
		}
		ch, unsubscribe, err := d.LOC.Client.Subscribe(qmi.LOCNMEAInd)
		if err != nil {
			return qmierr.Wrap(qmierr.Transport, path, err)
		}
		resp, err = engine.Request(ctx, d.LOC.Client, path+": register-events", qmi.Request{
			Name: qmi.LOCRegisterEvents, Input: RegisterEventsInput{NMEA: true},
		}, s.timeout())
		if err != nil {
			unsubscribe()
			return err
		}
		if resp.ProtoErr != nil {
			unsubscribe()
			return qmierr.New(qmierr.Protocol, path+": register-events", "loc-register-events failed: %s", resp.ProtoErr)
		}
		go forwardNMEA(ch, func(ind qmi.Indication) (string, bool) {
			ev, ok := ind.Payload.(NMEAIndication)
			return ev.NMEA, ok
		}, handler)
		d.LOC.Unsubscribe = unsubscribe
		return nil
	}

	return errNoBackend
}

// StopGPS mirrors StartGPS, ignoring "no-effect" and disconnecting the
// stored subscription (spec §4.6).
func (s *Subsystem) StopGPS(ctx context.Context, d *device.Context) error {
	const path = "stop-gps"

	switch {
	case d.PDS != nil:
		if _, err := s.requestPDSIgnoreNoEffect(ctx, d, path+": auto-tracking-state", qmi.Request{
			Name: qmi.PDSSetAutoTrackingState, Input: AutoTrackingStateInput{On: false},
		}); err != nil {
			return err
		}
		if _, err := s.requestPDSIgnoreNoEffect(ctx, d, path+": gps-service-state", qmi.Request{
			Name: qmi.PDSSetGPSServiceState, Input: GPSServiceStateInput{On: false},
		}); err != nil {
			return err
		}
		if d.PDS.Unsubscribe != nil {
			d.PDS.Unsubscribe()
			d.PDS.Unsubscribe = nil
		}
		return nil

	case d.LOC != nil:
		resp, err := engine.Request(ctx, d.LOC.Client, path+": stop", qmi.Request{Name: qmi.LOCStop}, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil && !noEffect(resp.ProtoErr) {
			return qmierr.New(qmierr.Protocol, path+": stop", "loc-stop failed: %s", resp.ProtoErr)
		}
		if d.LOC.Unsubscribe != nil {
			d.LOC.Unsubscribe()
			d.LOC.Unsubscribe = nil
		}
		return nil
	}

	return errNoBackend
}

func (s *Subsystem) requestPDSIgnoreNoEffect(ctx context.Context, d *device.Context, path string, req qmi.Request) (qmi.Response, error) {
	resp, err := s.requestPDS(ctx, d, path, req)
	if err != nil {
		return resp, err
	}
	if resp.ProtoErr != nil && !noEffect(resp.ProtoErr) {
		return resp, qmierr.New(qmierr.Protocol, path, "%s", resp.ProtoErr)
	}
	return resp, nil
}

func forwardNMEA(ch <-chan qmi.Indication, extract func(qmi.Indication) (string, bool), handler func(string)) {
	for ind := range ch {
		if nmea, ok := extract(ind); ok {
			handler(nmea)
		}
	}
}
