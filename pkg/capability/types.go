package capability

import "github.com/protei/qmicore/pkg/device"

// SystemSelectionPreferenceInput is the input to
// Set-System-Selection-Preference.
type SystemSelectionPreferenceInput struct {
	ModePreference       *device.RATMask
	AcquisitionOrder     []device.RAT
	TwoThreeAcqPreferred *device.RAT // set only when allowed == {2G,3G}
	Permanent            bool
}

// SystemSelectionPreferenceOutput is the output of
// Get-System-Selection-Preference.
type SystemSelectionPreferenceOutput struct {
	ModePreference       *device.RATMask
	AcquisitionOrder     []device.RAT
	TwoThreeAcqPreferred *device.RAT
}

// TechnologyPreferenceInput is the input to Set-Technology-Preference.
type TechnologyPreferenceInput struct {
	RATMask   device.RATMask
	Permanent bool
}

// TechnologyPreferenceOutput is the output of Get-Technology-Preference.
type TechnologyPreferenceOutput struct {
	Active device.RATMask
}

// CapabilitiesOutput is the output of DMS Get-Capabilities.
type CapabilitiesOutput struct {
	RadioInterfaces device.CapabilityMask
}

// OperatingModeInput is the input to DMS Set-Operating-Mode.
type OperatingModeInput struct {
	Mode string // "offline" | "reset"
}
