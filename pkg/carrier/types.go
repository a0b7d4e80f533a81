package carrier

import "github.com/protei/qmicore/pkg/device"

// ListConfigsOutput is the output of PDC List-Configs.
type ListConfigsOutput struct {
	Configs []device.ConfigDescriptor
}

// ListConfigsInput is the input to PDC List-Configs.
type ListConfigsInput struct {
	Type string // "software"
}

// GetConfigInfoInput is the input to PDC Get-Config-Info.
type GetConfigInfoInput struct {
	Token uint32
	ID    []byte
	Type  string
}

// GetConfigInfoIndication is the correlated indication carrying the
// description/version/size for one configuration.
type GetConfigInfoIndication struct {
	Token       uint32
	ID          []byte
	Description string
	Version     uint32
	TotalSize   uint32
}

// GetSelectedConfigInput is the input to PDC Get-Selected-Config.
type GetSelectedConfigInput struct {
	Type string
}

// GetSelectedConfigIndication carries either the active configuration's
// identifier or NotProvisioned (default in use).
type GetSelectedConfigIndication struct {
	ID             []byte
	NotProvisioned bool
}

// SetSelectedConfigInput is the input to PDC Set-Selected-Config.
type SetSelectedConfigInput struct {
	Token uint32
	ID    []byte
	Type  string
}

// SetSelectedConfigIndication confirms a Set-Selected-Config request.
type SetSelectedConfigIndication struct {
	Token uint32
}

// ActivateConfigInput is the input to PDC Activate-Config.
type ActivateConfigInput struct {
	Token uint32
	Type  string
}

// ActivateConfigIndication confirms an Activate-Config request. A timeout
// waiting for this indication is treated as success (silent reboot, spec
// §4.1/§4.5).
type ActivateConfigIndication struct {
	Token uint32
}
