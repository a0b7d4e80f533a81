package device

// RadioInterface is a single bit of a Capability mask, independent of Mode.
type RadioInterface uint8

const (
	RadioGSMUMTS RadioInterface = 1 << iota
	RadioCDMAEVDO
	RadioLTE
	Radio5GNR
)

// CapabilityMask is a bit set over {GSM/UMTS, CDMA/EVDO, LTE, 5GNR}. It is
// never persisted — it is derived on every load (spec §3).
type CapabilityMask uint8

// Has reports whether every bit in sub is set in m.
func (m CapabilityMask) Has(sub CapabilityMask) bool { return m&sub == sub }

// Contains reports whether bit is set in m.
func (m CapabilityMask) Contains(bit RadioInterface) bool { return m&CapabilityMask(bit) != 0 }

func (m CapabilityMask) String() string {
	var parts []string
	if m.Contains(RadioGSMUMTS) {
		parts = append(parts, "GSM/UMTS")
	}
	if m.Contains(RadioCDMAEVDO) {
		parts = append(parts, "CDMA/EVDO")
	}
	if m.Contains(RadioLTE) {
		parts = append(parts, "LTE")
	}
	if m.Contains(Radio5GNR) {
		parts = append(parts, "5GNR")
	}
	if len(parts) == 0 {
		return "none"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "+" + p
	}
	return out
}

// Mode is a single radio-access-technology generation bit.
type Mode uint8

const (
	Mode2G Mode = 1 << iota
	Mode3G
	Mode4G
	Mode5G
)

// ModeMask is a bit set over {2G, 3G, 4G, 5G}.
type ModeMask uint8

// ModeMaskAny is the "ANY" sentinel for Set-Current-Modes (spec §4.3),
// distinct from the zero mask (which means "no modes").
const ModeMaskAny ModeMask = 1 << 7

func ModeMaskOf(modes ...Mode) ModeMask {
	var m ModeMask
	for _, mm := range modes {
		m |= ModeMask(mm)
	}
	return m
}

func (m ModeMask) Contains(mode Mode) bool { return m&ModeMask(mode) != 0 }

func (m ModeMask) String() string {
	var parts []string
	for _, mm := range []Mode{Mode2G, Mode3G, Mode4G, Mode5G} {
		if m.Contains(mm) {
			parts = append(parts, mm.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "+" + p
	}
	return out
}

func (m Mode) String() string {
	switch m {
	case Mode2G:
		return "2G"
	case Mode3G:
		return "3G"
	case Mode4G:
		return "4G"
	case Mode5G:
		return "5G"
	default:
		return "?"
	}
}

// LocationSource is a bit of the enabled-location-sources mask (spec §3,
// §4.6 capability discovery).
type LocationSource uint8

const (
	SourceGPSNMEA LocationSource = 1 << iota
	SourceGPSRAW
	SourceAGPS
)

// RAT identifies a single radio access technology at acquisition-order
// granularity — finer than CapabilityMask (which groups GSM and UMTS into
// one "GSM/UMTS" bit) and finer than Mode generations for CDMA, where 1x and
// EVDO share a single Capability bit but acquisition order still
// distinguishes them.
type RAT int

const (
	RATGSM RAT = iota
	RATUMTS
	RATLTE
	RATNR5G
	RATCDMA1x
	RATEVDO
)

func (r RAT) String() string {
	switch r {
	case RATGSM:
		return "GSM"
	case RATUMTS:
		return "UMTS"
	case RATLTE:
		return "LTE"
	case RATNR5G:
		return "5GNR"
	case RATCDMA1x:
		return "CDMA1x"
	case RATEVDO:
		return "EVDO"
	default:
		return "?"
	}
}

// Mode returns the generation a RAT belongs to.
func (r RAT) Mode() Mode {
	switch r {
	case RATGSM, RATCDMA1x:
		return Mode2G
	case RATUMTS, RATEVDO:
		return Mode3G
	case RATLTE:
		return Mode4G
	case RATNR5G:
		return Mode5G
	default:
		return 0
	}
}

// Capability returns the Capability bit a RAT belongs to.
func (r RAT) Capability() CapabilityMask {
	switch r {
	case RATGSM, RATUMTS:
		return CapabilityMask(RadioGSMUMTS)
	case RATCDMA1x, RATEVDO:
		return CapabilityMask(RadioCDMAEVDO)
	case RATLTE:
		return CapabilityMask(RadioLTE)
	case RATNR5G:
		return CapabilityMask(Radio5GNR)
	default:
		return 0
	}
}

// RATMask is a bit set over individual RATs — the granularity the NAS
// mode-preference and technology-preference TLVs actually use on the wire
// (they distinguish GSM from UMTS, unlike CapabilityMask which groups both
// under one "GSM/UMTS" bit). Capabilities() and Modes() project a RATMask
// down to the coarser axes the rest of this core operates on.
type RATMask uint8

func RATMaskOf(rats ...RAT) RATMask {
	var m RATMask
	for _, r := range rats {
		m |= 1 << uint(r)
	}
	return m
}

func (m RATMask) Contains(r RAT) bool { return m&(1<<uint(r)) != 0 }

func (m RATMask) Members() []RAT {
	var out []RAT
	for r := RATGSM; r <= RATEVDO; r++ {
		if m.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

// Capabilities projects the RAT-level mask onto the Capability axis.
func (m RATMask) Capabilities() CapabilityMask {
	var out CapabilityMask
	for _, r := range m.Members() {
		out |= r.Capability()
	}
	return out
}

// Modes projects the RAT-level mask onto the Mode (generation) axis.
func (m RATMask) Modes() ModeMask {
	var out ModeMask
	for _, r := range m.Members() {
		out |= ModeMask(r.Mode())
	}
	return out
}

// ModesFromCapability derives every Mode a CapabilityMask can express:
// GSM/UMTS spans 2G+3G, CDMA/EVDO spans 2G+3G, LTE is 4G, 5GNR is 5G.
func ModesFromCapability(m CapabilityMask) ModeMask {
	var out ModeMask
	if m.Contains(RadioGSMUMTS) || m.Contains(RadioCDMAEVDO) {
		out |= ModeMask(Mode2G) | ModeMask(Mode3G)
	}
	if m.Contains(RadioLTE) {
		out |= ModeMask(Mode4G)
	}
	if m.Contains(Radio5GNR) {
		out |= ModeMask(Mode5G)
	}
	return out
}

// Band identifies a single radio band. Legacy and extended-LTE TLVs both
// fold into this one representation once parsed (spec §4.4).
type Band uint32

// ConfigDescriptor identifies an installed carrier configuration (spec §3).
type ConfigDescriptor struct {
	ID          []byte
	Type        string
	Token       uint32
	Version     uint32
	Description string
	TotalSize   uint32
}
