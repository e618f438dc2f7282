package bluetooth

import (
	"fmt"
	"sync/atomic"

	"ble-dial.klederson.com/internal/logger"
	"tinygo.org/x/bluetooth"
)

// BLEScanner listens for Bluetooth Low Energy advertisements.
type BLEScanner struct {
	adapter *bluetooth.Adapter
	running atomic.Bool
}

// NewBLEScanner scans on the named adapter, e.g. "hci0". An empty name
// picks the system default.
func NewBLEScanner(adapter string) *BLEScanner {
	return &BLEScanner{adapter: adapterFor(adapter)}
}

// Start enables the adapter and scans in a goroutine. Each advertisement
// is sent to sink as a DiscoveredMsg.
func (s *BLEScanner) Start(sink Sink) error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w (try running with sudo or setcap cap_net_admin+ep)", err)
	}

	s.running.Store(true)
	go func() {
		err := s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !s.running.Load() {
				return
			}
			sink.Send(advertisement(result))
		})
		if err != nil && s.running.Load() {
			logger.Error("ble_scan_failed", "error", err)
			sink.Send(ScanErrorMsg{Source: SourceBLE, Err: err})
		}
	}()
	logger.Info("ble_scan_started")
	return nil
}

// Stop halts the scan.
func (s *BLEScanner) Stop() {
	if !s.running.Swap(false) {
		return
	}
	_ = s.adapter.StopScan()
	logger.Info("ble_scan_stopped")
}

func advertisement(result bluetooth.ScanResult) DiscoveredMsg {
	addr := result.Address.String()
	name := result.LocalName()
	if name == "" {
		if mfrs := result.ManufacturerData(); len(mfrs) > 0 {
			name = vendorLabel(mfrs[0].CompanyID, addr)
		}
	}
	return DiscoveredMsg{
		Address: addr,
		Name:    name,
		RSSI:    int(result.RSSI),
		Source:  SourceBLE,
	}
}
