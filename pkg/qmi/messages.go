package qmi

// Message names used by this core. They follow the qmi-glib message
// catalogue naming convention (service-verb-noun), per spec §6.
const (
	NASGetSystemSelectionPreference = "nas-get-system-selection-preference"
	NASSetSystemSelectionPreference = "nas-set-system-selection-preference"
	NASGetTechnologyPreference      = "nas-get-technology-preference"
	NASSetTechnologyPreference      = "nas-set-technology-preference"

	DMSGetCapabilities     = "dms-get-capabilities"
	DMSGetBandCapabilities = "dms-get-band-capabilities"
	DMSSetOperatingMode    = "dms-set-operating-mode"

	PDCListConfigs        = "pdc-list-configs"
	PDCGetConfigInfo      = "pdc-get-config-info"
	PDCGetConfigInfoInd   = "pdc-get-config-info-indication"
	PDCGetSelectedConfig  = "pdc-get-selected-config"
	PDCGetSelectedConfigInd = "pdc-get-selected-config-indication"
	PDCSetSelectedConfig  = "pdc-set-selected-config"
	PDCSetSelectedConfigInd = "pdc-set-selected-config-indication"
	PDCActivateConfig     = "pdc-activate-config"
	PDCActivateConfigInd  = "pdc-activate-config-indication"

	PDSSetAGPSConfig       = "pds-set-agps-config"
	PDSGetAGPSConfig       = "pds-get-agps-config"
	PDSSetGPSServiceState  = "pds-set-gps-service-state"
	PDSSetAutoTrackingState = "pds-set-auto-tracking-state"
	PDSSetEventReport      = "pds-set-event-report"
	PDSEventReportInd      = "pds-event-report-indication"
	PDSSetTrackingSession  = "pds-set-tracking-session"
	PDSGetTrackingSession  = "pds-get-tracking-session"

	LOCSetServer      = "loc-set-server"
	LOCSetServerInd   = "loc-set-server-indication"
	LOCGetServer      = "loc-get-server"
	LOCGetServerInd   = "loc-get-server-indication"
	LOCStart          = "loc-start"
	LOCStop           = "loc-stop"
	LOCRegisterEvents = "loc-register-events"
	LOCNMEAInd        = "loc-nmea-indication"
	LOCSetOperationMode = "loc-set-operation-mode"
	LOCGetOperationMode = "loc-get-operation-mode"
	LOCGetPredictedOrbitsDataSource    = "loc-get-predicted-orbits-data-source"
	LOCGetPredictedOrbitsDataSourceInd = "loc-get-predicted-orbits-data-source-indication"
	LOCInjectPredictedOrbitsData       = "loc-inject-predicted-orbits-data"
	LOCInjectPredictedOrbitsDataInd    = "loc-inject-predicted-orbits-data-indication"
	LOCInjectXtraData                  = "loc-inject-xtra-data"
	LOCInjectXtraDataInd               = "loc-inject-xtra-data-indication"
)
