package main

import (
	"context"
	"fmt"
	"os"

	"ble-dial.klederson.com/internal/app"
	"ble-dial.klederson.com/internal/config"
	"ble-dial.klederson.com/internal/dial"
	"ble-dial.klederson.com/internal/feedback"
	"ble-dial.klederson.com/internal/logger"
	"ble-dial.klederson.com/internal/metrics"
	"ble-dial.klederson.com/internal/status"
	"ble-dial.klederson.com/internal/store"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	flagDemo         bool
	flagAdapter      string
	flagSlots        int
	flagStaleTimeout string
	flagConfig       string
	flagDataDir      string
	flagMetricsAddr  string
	flagLogLevel     string
	flagLogFile      string
	flagChime        bool
	flagClassic      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ble-dial",
		Short: "BLE Dial - Terminal Bluetooth device dial with stable slots",
		Long: `BLE Dial scans for Bluetooth Low Energy devices and gives each one a
stable slot on a segmented ring. A device keeps its slot while it is
visible; when the ring is full the least recently seen device makes room.

Requires sudo or CAP_NET_ADMIN capability for real Bluetooth scanning.
Use --demo flag for test mode without Bluetooth hardware.`,
		SilenceUsage: true,
		RunE:         run,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "ble-dial.yaml", "YAML config file")
	pf.StringVar(&flagDataDir, "data-dir", "", "Directory for preferences and logs (default ~/.ble-dial)")

	f := rootCmd.Flags()
	f.BoolVar(&flagDemo, "demo", false, "Run in test mode with generated devices (no Bluetooth required)")
	f.StringVar(&flagAdapter, "adapter", "hci0", "Bluetooth adapter to scan on (Linux/BlueZ only; other platforms use the system adapter)")
	f.IntVar(&flagSlots, "slots", config.DefaultCapacity, fmt.Sprintf("Usable slots on the dial (%d-%d)", dial.MinCapacity, dial.MaxCapacity))
	f.StringVar(&flagStaleTimeout, "stale-timeout", config.DefaultStaleTimeout.String(), "Silence after which a device turns stale")
	f.StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve /healthz, /v1/dial and /metrics on this address")
	f.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&flagLogFile, "log-file", "", "Log file (default <data-dir>/ble-dial.log)")
	f.BoolVar(&flagChime, "chime", false, "Ring the terminal bell when a device arrives")
	f.BoolVar(&flagClassic, "classic", false, "Also run classic Bluetooth inquiries through hcitool")

	rootCmd.AddCommand(blockedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves configuration in order: defaults, file, environment,
// flags. Persisted preferences are applied later, only to keys none of
// these set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := cfg.LoadFile(flagConfig, cmd.Flags().Changed("config")); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("data-dir") {
		cfg.Storage.DataDir = flagDataDir
	}
	if changed("demo") {
		cfg.Scan.Demo = flagDemo
	}
	if changed("adapter") {
		cfg.Scan.Adapter = flagAdapter
	}
	if changed("classic") {
		cfg.Scan.Classic = flagClassic
	}
	if changed("slots") {
		cfg.Dial.Capacity = flagSlots
		cfg.MarkExplicit(config.KeyCapacity)
	}
	if changed("stale-timeout") {
		d, err := config.ParseDuration(flagStaleTimeout)
		if err != nil {
			return nil, fmt.Errorf("--stale-timeout: %w", err)
		}
		cfg.Dial.StaleTimeout = config.Duration(d)
	}
	if changed("metrics-addr") {
		cfg.Status.MetricsAddr = flagMetricsAddr
	}
	if changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
	if changed("log-file") {
		cfg.Logging.File = flagLogFile
	}
	if changed("chime") {
		cfg.Feedback.Chime = flagChime
		cfg.MarkExplicit(config.KeyChime)
	}
	return cfg, nil
}

// applyPreferences fills capacity and chime from the preferences store
// unless the user set them for this run.
func applyPreferences(cfg *config.Config, st *store.Store) error {
	if !cfg.Explicit(config.KeyCapacity) {
		capacity, ok, err := st.Capacity()
		if err != nil {
			return err
		}
		if ok && capacity >= dial.MinCapacity && capacity <= dial.MaxCapacity {
			cfg.Dial.Capacity = capacity
		}
	}
	if !cfg.Explicit(config.KeyChime) {
		on, ok, err := st.Chime()
		if err != nil {
			return err
		}
		if ok {
			cfg.Feedback.Chime = on
		}
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, "file:"+cfg.LogFile()); err != nil {
		return err
	}
	defer logger.Sync()

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := applyPreferences(cfg, st); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rec := metrics.New()
	engine, err := dial.NewEngine(cfg.Dial.Capacity, cfg.Dial.StaleTimeout.Duration(),
		dial.WithLogger(logger.Log), dial.WithObserver(rec))
	if err != nil {
		return err
	}

	if cfg.Status.MetricsAddr != "" {
		srv := status.New(engine, rec.Handler(), config.AppVersion)
		go func() {
			if err := srv.ListenAndServe(cfg.Status.MetricsAddr); err != nil {
				logger.Error("status_server_failed", "addr", cfg.Status.MetricsAddr, "error", err)
			}
		}()
		defer srv.Shutdown()
		logger.Info("status_server_started", "addr", cfg.Status.MetricsAddr)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	announcer := feedback.NewAnnouncer(os.Stderr, cfg.Feedback.Chime)
	go announcer.Run(ctx)

	model, err := app.New(app.Options{
		Config:    cfg,
		Engine:    engine,
		Store:     st,
		Announcer: announcer,
		Counter:   rec,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithFPS(30),
	)

	// Start scanners with reference to the tea program
	if err := model.Start(p); err != nil {
		if !cfg.Scan.Demo {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			fmt.Fprintln(os.Stderr, "Bluetooth scanning requires elevated permissions.")
			fmt.Fprintln(os.Stderr, "Try one of:")
			fmt.Fprintln(os.Stderr, "  sudo ./ble-dial")
			fmt.Fprintln(os.Stderr, "  sudo setcap cap_net_admin+ep ./ble-dial")
			fmt.Fprintln(os.Stderr, "  ./ble-dial --demo    (test mode, no hardware needed)")
		}
		return err
	}
	defer model.Stop()

	logger.Info("app_started", "version", config.AppVersion, "capacity", cfg.Dial.Capacity, "demo", cfg.Scan.Demo)
	_, err = p.Run()
	return err
}
