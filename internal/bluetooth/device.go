// Package bluetooth feeds advertisements into the UI event loop. Every
// scanner turns what it hears into DiscoveredMsg values and hands them to
// a Sink, normally the running tea.Program.
package bluetooth

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Source tells which scanner produced a sighting.
type Source int

const (
	SourceBLE Source = iota
	SourceClassic
	SourceDemo
)

func (s Source) String() string {
	switch s {
	case SourceClassic:
		return "Classic"
	case SourceDemo:
		return "Demo"
	default:
		return "BLE"
	}
}

// DiscoveredMsg is one advertisement. Address is the device id on the
// dial.
type DiscoveredMsg struct {
	Address string
	Name    string
	RSSI    int
	Source  Source
}

// ScanErrorMsg reports a scanner failure after Start succeeded.
type ScanErrorMsg struct {
	Source Source
	Err    error
}

func (e ScanErrorMsg) Error() string {
	return fmt.Sprintf("%s scan error: %v", strings.ToLower(e.Source.String()), e.Err)
}

// Sink receives scanner messages. *tea.Program satisfies it.
type Sink interface {
	Send(msg tea.Msg)
}

// Scanner is a discovery source that runs until stopped.
type Scanner interface {
	Start(sink Sink) error
	Stop()
}

// vendorLabel names an unnamed device after its manufacturer and the
// last two octets of its address, e.g. "Apple EE:FF".
func vendorLabel(companyID uint16, address string) string {
	vendor, ok := vendors[companyID]
	if !ok {
		return ""
	}
	if len(address) >= 5 {
		return vendor + " " + address[len(address)-5:]
	}
	return vendor
}

// Bluetooth SIG company identifiers for common consumer vendors.
var vendors = map[uint16]string{
	0x0002: "Intel",
	0x0006: "Microsoft",
	0x000A: "Qualcomm",
	0x000D: "Texas Inst.",
	0x000F: "Broadcom",
	0x004C: "Apple",
	0x0059: "Nordic",
	0x0060: "Motorola",
	0x0075: "Samsung",
	0x0087: "Bose",
	0x00D2: "LG",
	0x00E0: "Google",
	0x012D: "Sony",
	0x0131: "JBL",
	0x0157: "Huawei",
	0x015D: "Espressif",
	0x0171: "Amazon",
	0x01DA: "Jabra",
	0x0246: "Logitech",
	0x0269: "Oura",
	0x02FF: "Tile",
	0x0310: "Xiaomi",
	0x038F: "Garmin",
	0x03DA: "Fitbit",
	0x0499: "Ruuvi",
	0x0822: "Govee",
	0x0958: "IKEA",
	0x0988: "Sonos",
}

func isValidMAC(mac string) bool {
	if len(mac) != 17 {
		return false
	}
	for i, c := range mac {
		if (i+1)%3 == 0 {
			if c != ':' {
				return false
			}
			continue
		}
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
