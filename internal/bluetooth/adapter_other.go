//go:build !linux

package bluetooth

import (
	"ble-dial.klederson.com/internal/logger"
	"tinygo.org/x/bluetooth"
)

// adapterFor returns the only adapter the platform exposes.
func adapterFor(name string) *bluetooth.Adapter {
	if name != "" && name != "hci0" {
		logger.Warn("adapter_ignored", "adapter", name)
	}
	return bluetooth.DefaultAdapter
}
