package location

import (
	"context"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

// SetSUPLServer implements spec §4.6's SUPL server setter: parse addr as
// host:port, preferring the numeric IP+port TLV over the URL TLV, and
// dispatch to whichever backend Probe found (PDS first, else LOC).
func (s *Subsystem) SetSUPLServer(ctx context.Context, d *device.Context, addr string) error {
	const path = "set-supl-server"

	ip, port, url := parseSuplAddress(addr)
	mode := networkMode(d)

	switch {
	case d.PDS != nil:
		input := SetAGPSConfigInput{Network: mode}
		if ip != nil {
			input.IP, input.Port = ipToUint32(ip), port
		} else {
			encoded, err := encodeUTF16BE(url)
			if err != nil {
				return err
			}
			input.URL = encoded
		}
		resp, err := engine.Request(ctx, d.PDS.Client, path, qmi.Request{Name: qmi.PDSSetAGPSConfig, Input: input}, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil && !noEffect(resp.ProtoErr) {
			return qmierr.New(qmierr.Protocol, path, "pds-set-agps-config failed: %s", resp.ProtoErr)
		}
		return nil

	case d.LOC != nil:
		token := s.Tokens.Next()
		input := SetServerInput{UMTSSLP: mode == NetworkModeUMTS, Token: uint32(token)}
		if ip != nil {
			input.IP, input.Port = ipToUint32(ip), port
		} else {
			input.URL = url
		}
		resp, err := engine.Request(ctx, d.LOC.Client, path, qmi.Request{Name: qmi.LOCSetServer, Input: input}, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil {
			return qmierr.New(qmierr.Protocol, path, "loc-set-server failed: %s", resp.ProtoErr)
		}
		if _, _, err := engine.Await(ctx, d.LOC.Client, qmi.LOCSetServerInd, token, s.timeout(), false); err != nil {
			return err
		}
		return nil
	}

	return errNoBackend
}

// LoadSUPLServer implements spec §4.6's SUPL server getter: prefer IPv4
// over URL when both are present, and decode UTF-16 URLs returned by PDS.
func (s *Subsystem) LoadSUPLServer(ctx context.Context, d *device.Context) (string, error) {
	const path = "load-supl-server"
	mode := networkMode(d)

	switch {
	case d.PDS != nil:
		resp, err := engine.Request(ctx, d.PDS.Client, path, qmi.Request{Name: qmi.PDSGetAGPSConfig, Input: GetAGPSConfigInput{Network: mode}}, s.timeout())
		if err != nil {
			return "", err
		}
		if resp.ProtoErr != nil {
			return "", qmierr.New(qmierr.Protocol, path, "pds-get-agps-config failed: %s", resp.ProtoErr)
		}
		out, ok := resp.Output.(GetAGPSConfigOutput)
		if !ok {
			return "", qmierr.New(qmierr.Transport, path, "unexpected pds-get-agps-config output")
		}
		if out.HasIP && out.IP != 0 && out.Port != 0 {
			return formatSuplAddress(uint32ToIP(out.IP), out.Port), nil
		}
		if len(out.URL) > 0 {
			return decodeUTF16BE(out.URL)
		}
		return "", nil

	case d.LOC != nil:
		token := s.Tokens.Next()
		resp, err := engine.Request(ctx, d.LOC.Client, path, qmi.Request{Name: qmi.LOCGetServer, Input: GetServerInput{Token: uint32(token)}}, s.timeout())
		if err != nil {
			return "", err
		}
		if resp.ProtoErr != nil {
			return "", qmierr.New(qmierr.Protocol, path, "loc-get-server failed: %s", resp.ProtoErr)
		}
		ind, _, err := engine.Await(ctx, d.LOC.Client, qmi.LOCGetServerInd, token, s.timeout(), false)
		if err != nil {
			return "", err
		}
		out, ok := ind.Payload.(GetServerIndication)
		if !ok {
			return "", qmierr.New(qmierr.Transport, path, "unexpected loc-get-server indication payload")
		}
		if out.HasIP && out.IP != 0 && out.Port != 0 {
			return formatSuplAddress(uint32ToIP(out.IP), out.Port), nil
		}
		return out.URL, nil
	}

	return "", errNoBackend
}
