package location

import (
	"net"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/protei/qmicore/pkg/qmierr"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// parseSuplAddress splits a "host:port" SUPL address into (ip, port, url):
// if host is a literal IPv4 address, ip/port are populated and url is
// empty; otherwise the whole address is treated as an opaque URL (spec
// §4.6).
func parseSuplAddress(addr string) (ip net.IP, port uint16, url string) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, 0, addr
	}
	parsed := net.ParseIP(host)
	if parsed == nil || parsed.To4() == nil {
		return nil, 0, addr
	}
	p, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, 0, addr
	}
	return parsed.To4(), uint16(p), ""
}

func ipToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

func uint32ToIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// encodeUTF16BE encodes s as big-endian UTF-16 for the PDS location-server
// URL TLV, matching the original source's g_convert(..., "UTF-16BE", "UTF-8", ...).
func encodeUTF16BE(s string) ([]byte, error) {
	out, err := utf16be.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, qmierr.Wrap(qmierr.Transport, "location: utf16-encode", err)
	}
	return out, nil
}

// decodeUTF16BE reverses encodeUTF16BE.
func decodeUTF16BE(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := utf16be.NewDecoder().Bytes(b)
	if err != nil {
		return "", qmierr.Wrap(qmierr.Transport, "location: utf16-decode", err)
	}
	return string(out), nil
}

// formatSuplAddress renders an ip:port pair back into "host:port" form.
func formatSuplAddress(ip net.IP, port uint16) string {
	return strings.Join([]string{ip.String(), strconv.Itoa(int(port))}, ":")
}
