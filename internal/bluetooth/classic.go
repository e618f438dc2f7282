package bluetooth

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
	"time"

	"ble-dial.klederson.com/internal/config"
	"ble-dial.klederson.com/internal/logger"
)

// ClassicScanner discovers classic Bluetooth devices via hcitool. hcitool
// does not report RSSI, so sightings carry config.ClassicRSSI.
type ClassicScanner struct {
	cancel   context.CancelFunc
	interval time.Duration
}

// NewClassicScanner scans again interval after each inquiry finishes.
func NewClassicScanner(interval time.Duration) *ClassicScanner {
	return &ClassicScanner{interval: interval}
}

// ClassicScannerAvailable checks if hcitool is available on the system.
func ClassicScannerAvailable() bool {
	_, err := exec.LookPath("hcitool")
	return err == nil
}

// Start begins periodic inquiries in a goroutine.
func (s *ClassicScanner) Start(sink Sink) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop(ctx, sink)
	return nil
}

// Stop halts the scanner.
func (s *ClassicScanner) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *ClassicScanner) loop(ctx context.Context, sink Sink) {
	for {
		if err := s.scan(ctx, sink); err != nil && ctx.Err() == nil {
			logger.Warn("classic_scan_failed", "error", err)
			sink.Send(ScanErrorMsg{Source: SourceClassic, Err: err})
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

func (s *ClassicScanner) scan(ctx context.Context, sink Sink) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(config.ClassicScanSec+7)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "hcitool", "scan", "--flush")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	for _, msg := range parseInquiry(stdout) {
		sink.Send(msg)
	}
	return cmd.Wait()
}

// parseInquiry reads "hcitool scan" output, one "AA:BB:CC:DD:EE:FF\tName"
// line per device.
func parseInquiry(r io.Reader) []DiscoveredMsg {
	var out []DiscoveredMsg
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "Scanning") {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		mac := strings.TrimSpace(parts[0])
		if !isValidMAC(mac) {
			continue
		}
		name := ""
		if len(parts) == 2 {
			name = strings.TrimSpace(parts[1])
		}
		if name == "n/a" {
			name = ""
		}
		out = append(out, DiscoveredMsg{
			Address: strings.ToUpper(mac),
			Name:    name,
			RSSI:    config.ClassicRSSI,
			Source:  SourceClassic,
		})
	}
	return out
}
