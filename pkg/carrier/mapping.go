package carrier

import (
	"gopkg.in/ini.v1"

	"github.com/protei/qmicore/pkg/qmierr"
)

// Mapping wraps the carrier-config mapping keyfile (spec §6): a single
// unnamed group whose keys are 5- or 6-digit MCCMNC strings (or the literal
// "generic" fallback key) mapping to a carrier-config name.
type Mapping struct {
	file *ini.File
}

// LoadMapping parses the mapping keyfile at path.
func LoadMapping(path string) (*Mapping, error) {
	const step = "load-mapping"

	f, err := ini.Load(path)
	if err != nil {
		return nil, qmierr.Wrap(qmierr.Transport, step, err)
	}
	return &Mapping{file: f}, nil
}

// Lookup resolves mccmnc (6 digits, falling back to the 5-digit prefix) to a
// carrier-config name, then separately resolves the "generic" fallback key.
// Either result may be empty if the corresponding key is absent.
func (m *Mapping) Lookup(mccmnc string) (requested, fallback string) {
	section := m.file.Section("")

	if len(mccmnc) >= 6 {
		if k := section.Key(mccmnc[:6]); k.String() != "" {
			requested = k.String()
		}
	}
	if requested == "" && len(mccmnc) >= 5 {
		if k := section.Key(mccmnc[:5]); k.String() != "" {
			requested = k.String()
		}
	}
	fallback = section.Key("generic").String()
	return requested, fallback
}
