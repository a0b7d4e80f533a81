package location

import (
	"context"

	"github.com/protei/qmicore/pkg/device"
	"github.com/protei/qmicore/pkg/engine"
	"github.com/protei/qmicore/pkg/qmi"
	"github.com/protei/qmicore/pkg/qmierr"
)

const defaultMaxPartSize = 1024
const maxPartsPerFile = 65535

// LoadAssistanceServers queries LOC Get-Predicted-Orbits-Data-Source and
// caches the server list and size limits on d (spec §4.6). It reports
// whether the device supports XTRA-format assistance data, true when at
// least one of (server list, size limits) is present.
func (s *Subsystem) LoadAssistanceServers(ctx context.Context, d *device.Context) (bool, error) {
	const path = "load-assistance-servers"

	if d.LOC == nil {
		return false, errNoBackend
	}

	resp, err := engine.Request(ctx, d.LOC.Client, path, qmi.Request{Name: qmi.LOCGetPredictedOrbitsDataSource}, s.timeout())
	if err != nil {
		return false, err
	}
	if resp.ProtoErr != nil {
		return false, qmierr.New(qmierr.Protocol, path, "loc-get-predicted-orbits-data-source failed: %s", resp.ProtoErr)
	}

	ind, _, err := engine.Await(ctx, d.LOC.Client, qmi.LOCGetPredictedOrbitsDataSourceInd, 0, s.timeout(), false)
	if err != nil {
		return false, err
	}
	out, ok := ind.Payload.(GetPredictedOrbitsDataSourceIndication)
	if !ok {
		return false, qmierr.New(qmierr.Transport, path, "unexpected get-predicted-orbits-data-source indication payload")
	}

	d.AssistanceServers = out.Servers
	d.AssistanceMaxFileSize = out.MaxFileSize
	d.AssistanceMaxPartSize = out.MaxPartSize

	return len(out.Servers) > 0 || out.MaxFileSize > 0 || out.MaxPartSize > 0, nil
}

// InjectAssistanceData partitions data into max-part-size chunks and
// uploads each via Inject-Predicted-Orbits-Data, falling back to the
// legacy Inject-Xtra-Data dialog if the device reports "not-supported" for
// the modern one (spec §4.6). It fails up front if data exceeds either
// 65535 parts worth of the part size, or the device's max file size.
func (s *Subsystem) InjectAssistanceData(ctx context.Context, d *device.Context, data []byte) error {
	const path = "inject-assistance-data"

	if d.LOC == nil {
		return errNoBackend
	}

	partSize := d.AssistanceMaxPartSize
	if partSize <= 0 {
		partSize = defaultMaxPartSize
	}
	if len(data) > maxPartsPerFile*partSize {
		return qmierr.New(qmierr.TooMany, path, "assistance data of %d bytes exceeds %d parts at %d bytes/part", len(data), maxPartsPerFile, partSize)
	}
	if d.AssistanceMaxFileSize > 0 && len(data) > d.AssistanceMaxFileSize {
		return qmierr.New(qmierr.TooMany, path, "assistance data of %d bytes exceeds device max file size %d", len(data), d.AssistanceMaxFileSize)
	}

	totalParts := (len(data) + partSize - 1) / partSize
	if totalParts == 0 {
		totalParts = 1
	}

	legacy := false
	for part := 0; part < totalParts; part++ {
		start := part * partSize
		end := start + partSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]

		name, indName := qmi.LOCInjectPredictedOrbitsData, qmi.LOCInjectPredictedOrbitsDataInd
		if legacy {
			name, indName = qmi.LOCInjectXtraData, qmi.LOCInjectXtraDataInd
		}

		token := s.Tokens.Next()
		resp, err := engine.Request(ctx, d.LOC.Client, path, qmi.Request{Name: name, Input: InjectPredictedOrbitsDataInput{
			TotalSize: len(data), TotalParts: totalParts, PartNumber: part + 1, Data: chunk, Format: "xtra",
		}}, s.timeout())
		if err != nil {
			return err
		}
		if resp.ProtoErr != nil {
			if !legacy && resp.ProtoErr.Code == qmi.ErrNotSupported {
				legacy = true
				part--
				continue
			}
			return qmierr.New(qmierr.Protocol, path, "%s failed: %s", name, resp.ProtoErr)
		}

		if _, _, err := engine.Await(ctx, d.LOC.Client, indName, token, s.timeout(), false); err != nil {
			return err
		}
	}

	return nil
}
