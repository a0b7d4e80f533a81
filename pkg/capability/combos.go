package capability

import "github.com/protei/qmicore/pkg/device"

// SupportedCapabilities derives the valid subset combinations a multimode
// device can be switched between, purely from the DMS radio interface list
// (spec §4.3). It also reports whether LTE-only is among the offered
// combinations, which is the trigger for Disable4GOnlyMode.
func SupportedCapabilities(dmsMask device.CapabilityMask) (combos []device.CapabilityMask, offersLTEOnly bool) {
	gsm := dmsMask.Contains(device.RadioGSMUMTS)
	cdma := dmsMask.Contains(device.RadioCDMAEVDO)
	lte := dmsMask.Contains(device.RadioLTE)

	switch {
	case gsm && cdma && lte:
		combos = []device.CapabilityMask{
			device.CapabilityMask(device.RadioGSMUMTS | device.RadioLTE),
			device.CapabilityMask(device.RadioCDMAEVDO | device.RadioLTE),
			device.CapabilityMask(device.RadioLTE),
		}
		offersLTEOnly = true
	case gsm && cdma:
		combos = []device.CapabilityMask{
			device.CapabilityMask(device.RadioGSMUMTS),
			device.CapabilityMask(device.RadioCDMAEVDO),
		}
	}

	// The full mask is always present, regardless of which partial
	// combinations were derived above.
	combos = append(combos, dmsMask)
	return dedupeCapabilities(combos), offersLTEOnly
}

func dedupeCapabilities(in []device.CapabilityMask) []device.CapabilityMask {
	seen := make(map[device.CapabilityMask]bool, len(in))
	out := make([]device.CapabilityMask, 0, len(in))
	for _, m := range in {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// ModeVariant is one entry of the Supported-Modes enumeration: an allowed
// set plus, when the device can express a preference (SSP supported), one
// variant per member of the set as the preferred mode.
type ModeVariant struct {
	Allowed   device.ModeMask
	Preferred device.Mode // 0 means "no preference expressed"
}

// SupportedModes builds the product of every standard non-empty subset of
// {2G,3G,4G} against whether SSP can express a preference, then filters
// against the device's actual supported-modes mask (spec §4.3). No subset
// contains 5G, even when the device's mask has the 5G bit.
func SupportedModes(dmsModes device.ModeMask, sspSupported bool, disable4GOnly bool) []ModeVariant {
	all := []device.Mode{device.Mode2G, device.Mode3G, device.Mode4G}

	var subsets []device.ModeMask
	for bits := 1; bits < (1 << len(all)); bits++ {
		var m device.ModeMask
		for i, mode := range all {
			if bits&(1<<i) != 0 {
				m |= device.ModeMask(mode)
			}
		}
		subsets = append(subsets, m)
	}

	var out []ModeVariant
	for _, subset := range subsets {
		if subset&dmsModes != subset {
			continue // not a subset of what the device actually supports
		}
		if disable4GOnly && subset == device.ModeMask(device.Mode4G) {
			continue
		}

		members := membersOf(subset)
		if len(members) >= 2 && sspSupported {
			for _, m := range members {
				out = append(out, ModeVariant{Allowed: subset, Preferred: m})
			}
		} else {
			out = append(out, ModeVariant{Allowed: subset})
		}
	}
	return out
}

func membersOf(mask device.ModeMask) []device.Mode {
	var out []device.Mode
	for _, m := range []device.Mode{device.Mode2G, device.Mode3G, device.Mode4G, device.Mode5G} {
		if mask.Contains(m) {
			out = append(out, m)
		}
	}
	return out
}
