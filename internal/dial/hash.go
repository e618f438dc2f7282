package dial

import "github.com/howeyc/crc16"

// Hash derives a stable value from a device id. It picks the preferred
// slot and the slot hue, so a device looks the same on every run.
func Hash(id string) uint32 {
	return uint32(crc16.Checksum([]byte(id), crc16.IBMTable))
}

// Hue returns the display hue of a device in degrees [0, 360).
func Hue(id string) float64 {
	return float64(Hash(id) % 360)
}
