package location

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmi/qmitest"
)

type fakeGateway struct {
	clients map[qmi.Service]qmi.Client
}

func (g *fakeGateway) Peek(deviceID string, service qmi.Service) (qmi.Client, bool) {
	c, ok := g.clients[service]
	return c, ok
}

func TestProbePrefersPDSOverLOC(t *testing.T) {
	pds := qmitest.NewClient(qmi.ServicePDS)
	loc := qmitest.NewClient(qmi.ServiceLOC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDS: pds, qmi.ServiceLOC: loc}}
	sub := &Subsystem{Gateway: gw}

	d := device.New("dev0")
	sub.Probe(d)
	if d.PDS == nil {
		t.Fatalf("expected PDS client recorded")
	}
	if d.LOC == nil {
		t.Fatalf("expected LOC client also recorded (tagged union still populates both handles)")
	}
}

func TestCapabilityAdditionsNoneWithoutBackend(t *testing.T) {
	sub := &Subsystem{Gateway: &fakeGateway{clients: map[qmi.Service]qmi.Client{}}}
	d := device.New("dev0")
	sub.Probe(d)
	if sub.CapabilityAdditions(d) != 0 {
		t.Fatalf("expected no location capability additions without a backend")
	}
}

func TestCapabilityAdditionsWithPDS(t *testing.T) {
	pds := qmitest.NewClient(qmi.ServicePDS)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDS: pds}}
	sub := &Subsystem{Gateway: gw}
	d := device.New("dev0")
	sub.Probe(d)

	want := device.SourceGPSNMEA | device.SourceGPSRAW | device.SourceAGPS
	if got := sub.CapabilityAdditions(d); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSetSUPLServerPDSNumericIP(t *testing.T) {
	pds := qmitest.NewClient(qmi.ServicePDS)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDS: pds}}
	sub := &Subsystem{Gateway: gw, StepTimeout: time.Second}

	d := device.New("dev0")
	sub.Probe(d)

	var captured SetAGPSConfigInput
	pds.Responders[qmi.PDSSetAGPSConfig] = func(req qmi.Request) (qmi.Response, error) {
		captured = req.Input.(SetAGPSConfigInput)
		return qmi.Response{}, nil
	}

	if err := sub.SetSUPLServer(context.Background(), d, "1.2.3.4:7275"); err != nil {
		t.Fatalf("SetSUPLServer: %v", err)
	}
	if captured.IP == 0 || captured.Port != 7275 || len(captured.URL) != 0 {
		t.Fatalf("expected numeric ip/port TLV populated, got %+v", captured)
	}
}

func TestSetSUPLServerPDSURLIsUTF16Encoded(t *testing.T) {
	pds := qmitest.NewClient(qmi.ServicePDS)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDS: pds}}
	sub := &Subsystem{Gateway: gw, StepTimeout: time.Second}

	d := device.New("dev0")
	sub.Probe(d)

	var captured SetAGPSConfigInput
	pds.Responders[qmi.PDSSetAGPSConfig] = func(req qmi.Request) (qmi.Response, error) {
		captured = req.Input.(SetAGPSConfigInput)
		return qmi.Response{}, nil
	}

	if err := sub.SetSUPLServer(context.Background(), d, "supl.example.com:7275"); err != nil {
		t.Fatalf("SetSUPLServer: %v", err)
	}
	decoded, err := decodeUTF16BE(captured.URL)
	if err != nil {
		t.Fatalf("decodeUTF16BE: %v", err)
	}
	if decoded != "supl.example.com:7275" {
		t.Fatalf("expected decoded URL to round-trip, got %q", decoded)
	}
}

func TestLoadSUPLServerPDSPrefersIPOverURL(t *testing.T) {
	pds := qmitest.NewClient(qmi.ServicePDS)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDS: pds}}
	sub := &Subsystem{Gateway: gw, StepTimeout: time.Second}

	d := device.New("dev0")
	sub.Probe(d)

	encodedURL, _ := encodeUTF16BE("fallback.example.com:1")
	pds.Responders[qmi.PDSGetAGPSConfig] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{Output: GetAGPSConfigOutput{HasIP: true, IP: ipToUint32(net.ParseIP("5.6.7.8")), Port: 1234, URL: encodedURL}}, nil
	}

	addr, err := sub.LoadSUPLServer(context.Background(), d)
	if err != nil {
		t.Fatalf("LoadSUPLServer: %v", err)
	}
	if addr != "5.6.7.8:1234" {
		t.Fatalf("expected IPv4 preferred over URL, got %q", addr)
	}
}

func TestAGPSModeSetNoopsWhenAlreadyMatching(t *testing.T) {
	pds := qmitest.NewClient(qmi.ServicePDS)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDS: pds}}
	sub := &Subsystem{Gateway: gw, StepTimeout: time.Second}

	d := device.New("dev0")
	sub.Probe(d)

	pds.Responders[qmi.PDSGetTrackingSession] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{Output: TrackingSessionOutput{MSAssisted: true}}, nil
	}
	pds.Responders[qmi.PDSSetTrackingSession] = func(req qmi.Request) (qmi.Response, error) {
		t.Fatalf("set-tracking-session should not be called when mode already matches")
		return qmi.Response{}, nil
	}

	if err := sub.SetAGPSMode(context.Background(), d, AGPSAssisted); err != nil {
		t.Fatalf("SetAGPSMode: %v", err)
	}
}

func TestInjectAssistanceDataRejectsOversizedPayload(t *testing.T) {
	loc := qmitest.NewClient(qmi.ServiceLOC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServiceLOC: loc}}
	sub := &Subsystem{Gateway: gw, StepTimeout: time.Second}

	d := device.New("dev0")
	sub.Probe(d)
	d.AssistanceMaxFileSize = 10

	if err := sub.InjectAssistanceData(context.Background(), d, make([]byte, 11)); err == nil {
		t.Fatalf("expected TooMany error for payload exceeding max file size")
	}
}

func TestInjectAssistanceDataChunksAndFallsBackToLegacy(t *testing.T) {
	loc := qmitest.NewClient(qmi.ServiceLOC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServiceLOC: loc}}
	sub := &Subsystem{Gateway: gw, StepTimeout: time.Second}
	preSubscribeLoc(t, loc, qmi.LOCInjectPredictedOrbitsDataInd)
	preSubscribeLoc(t, loc, qmi.LOCInjectXtraDataInd)

	d := device.New("dev0")
	sub.Probe(d)
	d.AssistanceMaxPartSize = 4

	var legacyUsed bool
	loc.Responders[qmi.LOCInjectPredictedOrbitsData] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{ProtoErr: &qmi.ProtocolError{Code: qmi.ErrNotSupported, Message: "legacy only"}}, nil
	}
	loc.Responders[qmi.LOCInjectXtraData] = func(req qmi.Request) (qmi.Response, error) {
		legacyUsed = true
		in := req.Input.(InjectPredictedOrbitsDataInput)
		loc.Deliver(qmi.LOCInjectXtraDataInd, qmi.Indication{Name: qmi.LOCInjectXtraDataInd, Payload: InjectPredictedOrbitsDataIndication{PartNumber: in.PartNumber}})
		return qmi.Response{}, nil
	}

	if err := sub.InjectAssistanceData(context.Background(), d, make([]byte, 10)); err != nil {
		t.Fatalf("InjectAssistanceData: %v", err)
	}
	if !legacyUsed {
		t.Fatalf("expected fallback to legacy inject-xtra-data dialog")
	}
}

func preSubscribeLoc(t *testing.T, c *qmitest.Client, name string) {
	t.Helper()
	if _, _, err := c.Subscribe(name); err != nil {
		t.Fatalf("pre-subscribe %q: %v", name, err)
	}
}
