package carrier

import (
	"context"
	"os"
	"path/filepath"
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

// preSubscribe creates the named indication channel up front so a responder
// can deliver synchronously without racing the engine's own Subscribe call.
func preSubscribe(t *testing.T, c *qmitest.Client, name string) {
	t.Helper()
	if _, _, err := c.Subscribe(name); err != nil {
		t.Fatalf("pre-subscribe %q: %v", name, err)
	}
}

func TestLoadNoConfigsMarksActiveDefault(t *testing.T) {
	pdc := qmitest.NewClient(qmi.ServicePDC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDC: pdc}}
	mgr := &Manager{Gateway: gw, StepTimeout: time.Second}

	pdc.Responders[qmi.PDCListConfigs] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{Output: ListConfigsOutput{}}, nil
	}

	d := device.New("dev0")
	if err := mgr.Load(context.Background(), d); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !d.ConfigActiveDefault {
		t.Fatalf("expected active_default=true with zero configs")
	}
}

func TestLoadCollectsConfigInfoAndSelectedConfig(t *testing.T) {
	pdc := qmitest.NewClient(qmi.ServicePDC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDC: pdc}}
	mgr := &Manager{Gateway: gw, StepTimeout: time.Second}
	preSubscribe(t, pdc, qmi.PDCGetConfigInfoInd)
	preSubscribe(t, pdc, qmi.PDCGetSelectedConfigInd)

	cfgA := device.ConfigDescriptor{ID: []byte("A")}
	cfgB := device.ConfigDescriptor{ID: []byte("B")}
	pdc.Responders[qmi.PDCListConfigs] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{Output: ListConfigsOutput{Configs: []device.ConfigDescriptor{cfgA, cfgB}}}, nil
	}
	pdc.Responders[qmi.PDCGetConfigInfo] = func(req qmi.Request) (qmi.Response, error) {
		in := req.Input.(GetConfigInfoInput)
		pdc.Deliver(qmi.PDCGetConfigInfoInd, qmi.Indication{
			Name: qmi.PDCGetConfigInfoInd, Token: in.Token, HasToken: true,
			Payload: GetConfigInfoIndication{Token: in.Token, ID: in.ID, Description: "carrier-" + string(in.ID), Version: 1},
		})
		return qmi.Response{}, nil
	}
	pdc.Responders[qmi.PDCGetSelectedConfig] = func(req qmi.Request) (qmi.Response, error) {
		pdc.Deliver(qmi.PDCGetSelectedConfigInd, qmi.Indication{
			Name: qmi.PDCGetSelectedConfigInd, Payload: GetSelectedConfigIndication{ID: []byte("B")},
		})
		return qmi.Response{}, nil
	}

	d := device.New("dev0")
	if err := mgr.Load(context.Background(), d); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Configs) != 2 {
		t.Fatalf("expected 2 configs loaded, got %d", len(d.Configs))
	}
	if d.Configs[0].Description != "carrier-A" || d.Configs[1].Description != "carrier-B" {
		t.Fatalf("unexpected descriptions: %+v", d.Configs)
	}
	if d.ActiveConfigIndex != 1 {
		t.Fatalf("expected active index 1 (config B), got %d", d.ActiveConfigIndex)
	}
	if d.ConfigActiveDefault {
		t.Fatalf("expected active_default=false when a config is selected")
	}
}

func TestLoadNotProvisionedMeansActiveDefault(t *testing.T) {
	pdc := qmitest.NewClient(qmi.ServicePDC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDC: pdc}}
	mgr := &Manager{Gateway: gw, StepTimeout: time.Second}
	preSubscribe(t, pdc, qmi.PDCGetConfigInfoInd)

	cfgA := device.ConfigDescriptor{ID: []byte("A")}
	pdc.Responders[qmi.PDCListConfigs] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{Output: ListConfigsOutput{Configs: []device.ConfigDescriptor{cfgA}}}, nil
	}
	pdc.Responders[qmi.PDCGetConfigInfo] = func(req qmi.Request) (qmi.Response, error) {
		in := req.Input.(GetConfigInfoInput)
		pdc.Deliver(qmi.PDCGetConfigInfoInd, qmi.Indication{
			Name: qmi.PDCGetConfigInfoInd, Token: in.Token, HasToken: true,
			Payload: GetConfigInfoIndication{Token: in.Token, ID: in.ID, Description: "carrier-A"},
		})
		return qmi.Response{}, nil
	}
	pdc.Responders[qmi.PDCGetSelectedConfig] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{ProtoErr: &qmi.ProtocolError{Code: qmi.ErrNotProvisioned, Message: "default in use"}}, nil
	}

	d := device.New("dev0")
	if err := mgr.Load(context.Background(), d); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !d.ConfigActiveDefault {
		t.Fatalf("expected active_default=true on not-provisioned get-selected-config")
	}
}

func writeMapping(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.ini")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	return path
}

func TestMappingLookupSixThenFiveThenGeneric(t *testing.T) {
	path := writeMapping(t, "310260 = carrierA\n31026 = carrierB\ngeneric = carrierC\n")
	mapping, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}

	requested, fallback := mapping.Lookup("310260")
	if requested != "carrierA" || fallback != "carrierC" {
		t.Fatalf("expected 6-digit match carrierA + fallback carrierC, got %q/%q", requested, fallback)
	}

	requested, _ = mapping.Lookup("310269")
	if requested != "carrierB" {
		t.Fatalf("expected 5-digit fallback match carrierB, got %q", requested)
	}
}

func TestSwitchSubstitutesFallbackWhenRequestedNotInstalled(t *testing.T) {
	path := writeMapping(t, "999999 = missing\ngeneric = carrierB\n")
	mapping, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}

	pdc := qmitest.NewClient(qmi.ServicePDC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDC: pdc}}
	mgr := &Manager{Gateway: gw, StepTimeout: time.Second}
	preSubscribe(t, pdc, qmi.PDCSetSelectedConfigInd)
	preSubscribe(t, pdc, qmi.PDCActivateConfigInd)

	d := device.New("dev0")
	d.Configs = []device.ConfigDescriptor{
		{ID: []byte("A"), Type: "software", Description: "carrierA"},
		{ID: []byte("B"), Type: "software", Description: "carrierB"},
	}
	d.ActiveConfigIndex = 0

	pdc.Responders[qmi.PDCSetSelectedConfig] = func(req qmi.Request) (qmi.Response, error) {
		in := req.Input.(SetSelectedConfigInput)
		pdc.Deliver(qmi.PDCSetSelectedConfigInd, qmi.Indication{Name: qmi.PDCSetSelectedConfigInd, Token: in.Token, HasToken: true, Payload: SetSelectedConfigIndication{Token: in.Token}})
		return qmi.Response{}, nil
	}
	pdc.Responders[qmi.PDCActivateConfig] = func(req qmi.Request) (qmi.Response, error) {
		in := req.Input.(ActivateConfigInput)
		pdc.Deliver(qmi.PDCActivateConfigInd, qmi.Indication{Name: qmi.PDCActivateConfigInd, Token: in.Token, HasToken: true, Payload: ActivateConfigIndication{Token: in.Token}})
		return qmi.Response{}, nil
	}

	if err := mgr.Switch(context.Background(), d, mapping, "999999"); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if d.ActiveConfigIndex != 1 {
		t.Fatalf("expected switch to fallback config index 1, got %d", d.ActiveConfigIndex)
	}
}

func TestSwitchNoopWhenAlreadyActive(t *testing.T) {
	path := writeMapping(t, "310260 = carrierA\n")
	mapping, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}

	pdc := qmitest.NewClient(qmi.ServicePDC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDC: pdc}}
	mgr := &Manager{Gateway: gw, StepTimeout: time.Second}

	d := device.New("dev0")
	d.Configs = []device.ConfigDescriptor{{ID: []byte("A"), Description: "carrierA"}}
	d.ActiveConfigIndex = 0

	pdc.Responders[qmi.PDCSetSelectedConfig] = func(req qmi.Request) (qmi.Response, error) {
		t.Fatalf("set-selected-config should not be called when change is not needed")
		return qmi.Response{}, nil
	}

	if err := mgr.Switch(context.Background(), d, mapping, "310260"); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if d.ActiveConfigIndex != 0 {
		t.Fatalf("expected active index unchanged, got %d", d.ActiveConfigIndex)
	}
}

func TestSwitchFailsWhenNeitherResolves(t *testing.T) {
	path := writeMapping(t, "generic = nope\n")
	mapping, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}

	mgr := &Manager{Gateway: &fakeGateway{clients: map[qmi.Service]qmi.Client{}}}
	d := device.New("dev0")
	d.Configs = []device.ConfigDescriptor{{ID: []byte("A"), Description: "carrierA"}}

	if err := mgr.Switch(context.Background(), d, mapping, "000000"); err == nil {
		t.Fatalf("expected Switch to fail when neither requested nor fallback resolves")
	}
}

func TestSwitchActivateTimeoutIsSuccess(t *testing.T) {
	path := writeMapping(t, "310260 = carrierA\n")
	mapping, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}

	pdc := qmitest.NewClient(qmi.ServicePDC)
	gw := &fakeGateway{clients: map[qmi.Service]qmi.Client{qmi.ServicePDC: pdc}}
	mgr := &Manager{Gateway: gw, StepTimeout: 50 * time.Millisecond}
	preSubscribe(t, pdc, qmi.PDCSetSelectedConfigInd)

	d := device.New("dev0")
	d.Configs = []device.ConfigDescriptor{
		{ID: []byte("A"), Description: "carrierA"},
		{ID: []byte("B"), Description: "carrierB"},
	}
	d.ActiveConfigIndex = 1

	pdc.Responders[qmi.PDCSetSelectedConfig] = func(req qmi.Request) (qmi.Response, error) {
		in := req.Input.(SetSelectedConfigInput)
		pdc.Deliver(qmi.PDCSetSelectedConfigInd, qmi.Indication{Name: qmi.PDCSetSelectedConfigInd, Token: in.Token, HasToken: true, Payload: SetSelectedConfigIndication{Token: in.Token}})
		return qmi.Response{}, nil
	}
	// Never deliver the activate-config indication: the silent-reboot case.
	pdc.Responders[qmi.PDCActivateConfig] = func(req qmi.Request) (qmi.Response, error) {
		return qmi.Response{}, nil
	}

	if err := mgr.Switch(context.Background(), d, mapping, "310260"); err != nil {
		t.Fatalf("expected activate-config timeout to be treated as success, got %v", err)
	}
	if d.ActiveConfigIndex != 0 {
		t.Fatalf("expected switch to carrierA (index 0), got %d", d.ActiveConfigIndex)
	}
}
