package band

import "github.com/protei/qmicore/pkg/device"

// BandCapabilitiesOutput is the output of DMS Get-Band-Capabilities, folding
// the legacy band TLV, legacy LTE band TLV, and (if present) the
// extended-LTE-band TLV into one flat band list plus a presence flag for the
// last one (spec §4.4).
type BandCapabilitiesOutput struct {
	Bands              []device.Band
	HasExtendedLTEBand bool
}

// SystemSelectionPreferenceInput is the subset of the NAS
// Set-System-Selection-Preference TLV this selector populates: the legacy
// band mask and, when supported, the extended-LTE-band mask.
type SystemSelectionPreferenceInput struct {
	Bands              []device.Band
	ExtendedLTEBands   []device.Band
	UseExtendedLTEBand bool
	Permanent          bool
}

// SystemSelectionPreferenceOutput is the subset of Get-System-Selection-Preference
// this selector reads back.
type SystemSelectionPreferenceOutput struct {
	Bands            []device.Band
	ExtendedLTEBands []device.Band
}
