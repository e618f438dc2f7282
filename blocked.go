package main

import (
	"fmt"
	"strings"

	"ble-dial.klederson.com/internal/logger"
	"ble-dial.klederson.com/internal/store"
	"github.com/spf13/cobra"
)

func blockedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "Manage devices hidden from the dial",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blocked devices",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, _ []string) error {
			list, err := st.Blocked()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No blocked devices")
				return nil
			}
			for _, b := range list {
				name := b.Name
				if name == "" {
					name = "[unnamed]"
				}
				fmt.Fprintf(out, "%s  %s\n", b.Address, name)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <address>...",
		Short: "Unblock one or more devices",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
			for _, addr := range args {
				addr = strings.ToUpper(strings.TrimSpace(addr))
				removed, err := st.Unblock(addr)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not blocked\n", addr)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "unblocked %s\n", addr)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Unblock every device",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, _ []string) error {
			n, err := st.ClearBlocked()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d blocked device(s)\n", n)
			return nil
		}),
	})

	return cmd
}

// withStore opens the preferences store for a subcommand. Subcommands log
// to stderr since no terminal UI is running.
func withStore(fn func(*cobra.Command, *store.Store, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger.InitWriter(cmd.ErrOrStderr(), cfg.Logging.Level)

		st, err := store.Open(cfg.DBPath())
		if err != nil {
			return err
		}
		defer st.Close()
		return fn(cmd, st, args)
	}
}
