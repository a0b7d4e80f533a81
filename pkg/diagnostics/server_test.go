package diagnostics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/protei/qmicore/pkg/authz"
	"github.com/protei/qmicore/pkg/capability"
	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/qmi"
)

type noClientsGateway struct{}

func (noClientsGateway) Peek(deviceID string, service qmi.Service) (qmi.Client, bool) {
	return nil, false
}

func newTestServer() (*Server, *authz.Authorizer) {
	az := authz.New("test-secret")
	reg := device.NewRegistry()
	s := New(Config{Registry: reg, Authorizer: az})
	return s, az
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer()
	rr := httptest.NewRecorder()
	s.handleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected health payload: %+v", body)
	}
}

func TestHandleDevicesListsRegisteredIDs(t *testing.T) {
	s, _ := newTestServer()
	s.registry.Lookup("dev0")
	s.registry.Lookup("dev1")

	rr := httptest.NewRecorder()
	s.handleDevices(rr, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	var body struct {
		Devices []string `json:"devices"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %+v", body.Devices)
	}
}

func TestHandleDeviceDetailNotFound(t *testing.T) {
	s, _ := newTestServer()
	rr := httptest.NewRecorder()
	s.handleDeviceRoute(rr, httptest.NewRequest(http.MethodGet, "/api/devices/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHandleDeviceDetailFound(t *testing.T) {
	s, _ := newTestServer()
	s.registry.Lookup("dev0")

	rr := httptest.NewRecorder()
	s.handleDeviceRoute(rr, httptest.NewRequest(http.MethodGet, "/api/devices/dev0", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var sum device.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.ID != "dev0" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestResetRejectsMissingToken(t *testing.T) {
	s, _ := newTestServer()
	s.registry.Lookup("dev0")

	rr := httptest.NewRecorder()
	s.handleDeviceRoute(rr, httptest.NewRequest(http.MethodPost, "/api/devices/dev0/reset", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a bearer token, got %d", rr.Code)
	}
}

func TestResetRejectsWithoutSelectorConfigured(t *testing.T) {
	s, az := newTestServer()
	s.registry.Lookup("dev0")
	token, err := az.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/devices/dev0/reset", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.handleDeviceRoute(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a configured selector, got %d: %s", rr.Code, rr.Body.String())
	}
}

// TestResetRunsThroughRegistrySubmit pins down the fix for the reset path
// bypassing Registry.Submit: the selector error surfacing as 502 here can
// only happen if the handler reached SetCurrentCapabilities via a Submit
// closure bound to an already-registered device, not a raw Lookup+call.
func TestResetRunsThroughRegistrySubmit(t *testing.T) {
	s, az := newTestServer()
	s.registry.Lookup("dev0")
	s.selector = &capability.Selector{Gateway: noClientsGateway{}}

	token, err := az.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/devices/dev0/reset", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.handleDeviceRoute(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 surfacing the selector's Unsupported error, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestResetUnregisteredDeviceFailsSubmit(t *testing.T) {
	s, az := newTestServer()
	s.selector = &capability.Selector{Gateway: noClientsGateway{}}
	s.registry.Lookup("dev0")
	s.registry.Release("dev0")

	token, err := az.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/devices/dev0/reset", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.handleDeviceRoute(rr, req)

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 when Submit can't reach a released device, got %d: %s", rr.Code, rr.Body.String())
	}
}
