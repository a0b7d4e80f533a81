package location

// NetworkMode selects the PDS/LOC server-type TLV value for SUPL server
// set/get: UMTS-SLP for GSM/UMTS-capable devices, CDMA-PDE otherwise.
type NetworkMode int

const (
	NetworkModeUMTS NetworkMode = iota
	NetworkModeCDMA
)

// AGPSMode is the A-GPS operating mode (spec §4.6).
type AGPSMode int

const (
	AGPSAssisted AGPSMode = iota
	AGPSStandalone
)

// SetAGPSConfigInput is the input to PDS Set-AGPS-Config (SUPL server set).
type SetAGPSConfigInput struct {
	Network NetworkMode
	// Exactly one of (IP, Port) or URL is populated, matching the numeric
	// ipv4:port vs opaque-URL TLV choice (spec §4.6).
	IP   uint32
	Port uint16
	URL  []byte // already transport-encoded (UTF-16BE for PDS)
}

// GetAGPSConfigInput is the input to PDS Get-AGPS-Config.
type GetAGPSConfigInput struct {
	Network NetworkMode
}

// GetAGPSConfigOutput is the output of PDS Get-AGPS-Config.
type GetAGPSConfigOutput struct {
	HasIP bool
	IP    uint32
	Port  uint16
	URL   []byte // transport-encoded (UTF-16BE); decode before return
}

// SetServerInput is the input to LOC Set-Server.
type SetServerInput struct {
	UMTSSLP bool // true selects UMTS-SLP server type, false CDMA-PDE
	IP      uint32
	Port    uint16
	URL     string // raw UTF-8
	Token   uint32
}

// SetServerIndication confirms a LOC Set-Server request.
type SetServerIndication struct {
	Token uint32
}

// GetServerInput is the input to LOC Get-Server.
type GetServerInput struct {
	Token uint32
}

// GetServerIndication is the correlated LOC Get-Server response.
type GetServerIndication struct {
	Token int32
	HasIP bool
	IP    uint32
	Port  uint16
	URL   string // raw UTF-8
}

// GPSServiceStateInput is the input to PDS Set-GPS-Service-State.
type GPSServiceStateInput struct{ On bool }

// AutoTrackingStateInput is the input to PDS Set-Auto-Tracking-State.
type AutoTrackingStateInput struct{ On bool }

// EventReportInput is the input to PDS Set-Event-Report.
type EventReportInput struct{ NMEAPositionReporting bool }

// EventReportIndication carries one NMEA sentence from PDS.
type EventReportIndication struct{ NMEA string }

// StartInput is the input to LOC Start.
type StartInput struct {
	SessionID          uint8
	IntermediateReport bool
	MinIntervalMillis  uint32
	Recurrence         string // "periodic" | "single"
}

// RegisterEventsInput is the input to LOC Register-Events.
type RegisterEventsInput struct{ NMEA bool }

// NMEAIndication carries one NMEA sentence from LOC.
type NMEAIndication struct{ NMEA string }

// TrackingSessionInput is the input to PDS Set-Tracking-Session.
type TrackingSessionInput struct{ MSAssisted bool }

// TrackingSessionOutput is the output of PDS Get-Tracking-Session.
type TrackingSessionOutput struct{ MSAssisted bool }

// OperationModeInput is the input to LOC Set-Operation-Mode.
type OperationModeInput struct{ MSA bool }

// OperationModeOutput is the output of LOC Get-Operation-Mode.
type OperationModeOutput struct{ MSA bool }

// GetPredictedOrbitsDataSourceIndication carries the XTRA assistance-data
// server list and size limits.
type GetPredictedOrbitsDataSourceIndication struct {
	Servers     []string
	MaxFileSize int
	MaxPartSize int
}

// InjectPredictedOrbitsDataInput is one chunk of assistance data.
type InjectPredictedOrbitsDataInput struct {
	TotalSize   int
	TotalParts  int
	PartNumber  int
	Data        []byte
	Format      string // "xtra"
}

// InjectPredictedOrbitsDataIndication confirms one chunk.
type InjectPredictedOrbitsDataIndication struct {
	PartNumber int
}
