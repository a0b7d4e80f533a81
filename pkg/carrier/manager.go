// Package carrier implements the Carrier Config Manager (spec §4.5): the
// PDC List-Configs/Get-Config-Info/Get-Selected-Config load sequence, and
// the mapping-file-driven Switch sequence (match-requested,
// check-change-needed, Set-Selected-Config, Activate-Config).
package carrier

import (
	"context"
	"time"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

const configInfoType = "software"

// Manager drives the PDC dialogs for one Gateway.
type Manager struct {
	Gateway     qmi.Gateway
	StepTimeout time.Duration
	Tokens      engine.TokenAllocator
}

func (m *Manager) timeout() time.Duration {
	if m.StepTimeout > 0 {
		return m.StepTimeout
	}
	return qmi.DefaultRequestTimeout
}

func (m *Manager) pdc(deviceID string) (qmi.Client, bool) {
	return m.Gateway.Peek(deviceID, qmi.ServicePDC)
}

// Load runs the three-step load sequence of spec §4.5 and populates d's
// Configs, ActiveConfigIndex, and ConfigActiveDefault fields.
func (m *Manager) Load(ctx context.Context, d *device.Context) error {
	const path = "carrier-load"

	client, ok := m.pdc(d.ID)
	if !ok {
		return qmierr.New(qmierr.Transport, path, "no PDC client for device %q", d.ID)
	}

	listResp, err := engine.Request(ctx, client, path+": list-configs", qmi.Request{
		Name:  qmi.PDCListConfigs,
		Input: ListConfigsInput{Type: configInfoType},
	}, m.timeout())
	if err != nil {
		return err
	}
	if listResp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path+": list-configs", "pdc-list-configs failed: %s", listResp.ProtoErr)
	}
	list, ok := listResp.Output.(ListConfigsOutput)
	if !ok {
		return qmierr.New(qmierr.Transport, path+": list-configs", "unexpected pdc-list-configs output")
	}
	if len(list.Configs) == 0 {
		d.Configs = nil
		d.ConfigActiveDefault = true
		d.ActiveConfigIndex = -1
		return nil
	}

	configs := make([]device.ConfigDescriptor, len(list.Configs))
	copy(configs, list.Configs)

	for i := range configs {
		if err := m.loadConfigInfo(ctx, client, path, &configs[i]); err != nil {
			return err
		}
	}

	idx, activeDefault, err := m.loadSelectedConfig(ctx, client, path, configs)
	if err != nil {
		return err
	}

	d.Configs = configs
	d.ActiveConfigIndex = idx
	d.ConfigActiveDefault = activeDefault
	return nil
}

func (m *Manager) loadConfigInfo(ctx context.Context, client qmi.Client, path string, cfg *device.ConfigDescriptor) error {
	token := uint32(m.Tokens.Next())
	cfg.Token = token

	resp, err := engine.Request(ctx, client, path+": get-config-info", qmi.Request{
		Name:  qmi.PDCGetConfigInfo,
		Input: GetConfigInfoInput{Token: token, ID: cfg.ID, Type: configInfoType},
	}, m.timeout())
	if err != nil {
		return err
	}
	if resp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path+": get-config-info", "pdc-get-config-info failed: %s", resp.ProtoErr)
	}

	ind, _, err := engine.Await(ctx, client, qmi.PDCGetConfigInfoInd, engine.Token(token), m.timeout(), false)
	if err != nil {
		return err
	}
	info, ok := ind.Payload.(GetConfigInfoIndication)
	if !ok {
		return qmierr.New(qmierr.Transport, path+": get-config-info", "unexpected get-config-info indication payload")
	}

	cfg.Description = info.Description
	cfg.Version = info.Version
	cfg.TotalSize = info.TotalSize
	return nil
}

func (m *Manager) loadSelectedConfig(ctx context.Context, client qmi.Client, path string, configs []device.ConfigDescriptor) (index int, activeDefault bool, err error) {
	resp, err := engine.Request(ctx, client, path+": get-selected-config", qmi.Request{
		Name:  qmi.PDCGetSelectedConfig,
		Input: GetSelectedConfigInput{Type: configInfoType},
	}, m.timeout())
	if err != nil {
		return -1, false, err
	}
	if resp.ProtoErr != nil {
		if resp.ProtoErr.Code == qmi.ErrNotProvisioned {
			return -1, true, nil
		}
		return -1, false, qmierr.New(qmierr.Protocol, path+": get-selected-config", "pdc-get-selected-config failed: %s", resp.ProtoErr)
	}

	ind, _, err := engine.Await(ctx, client, qmi.PDCGetSelectedConfigInd, 0, m.timeout(), false)
	if err != nil {
		return -1, false, err
	}
	sel, ok := ind.Payload.(GetSelectedConfigIndication)
	if !ok {
		return -1, false, qmierr.New(qmierr.Transport, path+": get-selected-config", "unexpected get-selected-config indication payload")
	}
	if sel.NotProvisioned {
		return -1, true, nil
	}

	for i, c := range configs {
		if string(c.ID) == string(sel.ID) {
			return i, false, nil
		}
	}
	return -1, false, qmierr.New(qmierr.NotFound, path+": get-selected-config", "active configuration id not found in loaded list")
}

// Switch runs the match-requested/check-change-needed/set/activate sequence
// of spec §4.5 for mccmnc against mapping.
func (m *Manager) Switch(ctx context.Context, d *device.Context, mapping *Mapping, mccmnc string) error {
	const path = "carrier-switch"

	requested, fallback := mapping.Lookup(mccmnc)
	idx, ok := findConfigByName(d.Configs, requested)
	if !ok {
		idx, ok = findConfigByName(d.Configs, fallback)
	}
	if !ok {
		return qmierr.New(qmierr.NotFound, path, "no installed carrier config matches %q (fallback %q)", requested, fallback)
	}

	if idx == d.ActiveConfigIndex {
		return nil
	}

	client, haveClient := m.pdc(d.ID)
	if !haveClient {
		return qmierr.New(qmierr.Transport, path, "no PDC client for device %q", d.ID)
	}
	cfg := d.Configs[idx]

	setToken := m.Tokens.Next()
	setResp, err := engine.Request(ctx, client, path+": set-selected-config", qmi.Request{
		Name:  qmi.PDCSetSelectedConfig,
		Input: SetSelectedConfigInput{Token: uint32(setToken), ID: cfg.ID, Type: cfg.Type},
	}, m.timeout())
	if err != nil {
		return err
	}
	if setResp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path+": set-selected-config", "pdc-set-selected-config failed: %s", setResp.ProtoErr)
	}
	if _, _, err := engine.Await(ctx, client, qmi.PDCSetSelectedConfigInd, setToken, m.timeout(), false); err != nil {
		return err
	}

	actToken := m.Tokens.Next()
	actResp, err := engine.Request(ctx, client, path+": activate-config", qmi.Request{
		Name:  qmi.PDCActivateConfig,
		Input: ActivateConfigInput{Token: uint32(actToken), Type: cfg.Type},
	}, m.timeout())
	if err != nil {
		return err
	}
	if actResp.ProtoErr != nil {
		return qmierr.New(qmierr.Protocol, path+": activate-config", "pdc-activate-config failed: %s", actResp.ProtoErr)
	}
	// Activation commonly triggers a silent modem reboot: a timeout here is
	// success, not failure (spec §4.1).
	if _, _, err := engine.Await(ctx, client, qmi.PDCActivateConfigInd, actToken, m.timeout(), true); err != nil {
		return err
	}

	d.ActiveConfigIndex = idx
	d.ConfigActiveDefault = false
	return nil
}

func findConfigByName(configs []device.ConfigDescriptor, name string) (int, bool) {
	if name == "" {
		return -1, false
	}
	for i, c := range configs {
		if c.Description == name {
			return i, true
		}
	}
	return -1, false
}
