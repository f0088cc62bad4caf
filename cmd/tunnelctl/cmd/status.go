package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd reports whether the configured interface is up.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the WireGuard tunnel status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(1, "Error loading config: %v", err)
		}
		if iface, _ := cmd.Flags().GetString("interface"); iface != "" {
			cfg.Interface = iface
		}

		log := newLogger(cfg)

		capability, err := newCapability(cfg, log)
		if err != nil {
			fail(1, "Error: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HelperTimeout)*time.Second)
		defer cancel()

		status := capability.QueryStatus(ctx, cfg.Interface)
		if !status.Connected {
			fmt.Printf("Status: Disconnected\n")
			return
		}

		fmt.Printf("Status: Connected\n")
		fmt.Printf("Interface: %s\n", status.Interface)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("interface", "i", "", "WireGuard interface name")
}
