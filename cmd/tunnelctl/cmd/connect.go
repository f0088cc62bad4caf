package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skiffvpn/tunnelctl/internal/config"
	"github.com/skiffvpn/tunnelctl/internal/directory"
	"github.com/skiffvpn/tunnelctl/internal/journal"
	"github.com/skiffvpn/tunnelctl/internal/keystore"
	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/internal/tunnel"
	"github.com/skiffvpn/tunnelctl/internal/wgconf"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

// connectCmd brings a tunnel up and holds it until interrupted.
var connectCmd = &cobra.Command{
	Use:   "connect [config-id]",
	Short: "Bring a WireGuard tunnel up",
	Long: `Bring a WireGuard tunnel up from a directory config or a local file.

Examples:
  # Connect using a config from the directory service
  tunnelctl connect ams-1

  # Connect using a local config file
  tunnelctl connect --file ./office.conf

  # Bring the tunnel up and exit, leaving it running
  tunnelctl connect ams-1 --detach`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(1, "Error loading config: %v", err)
		}
		if iface, _ := cmd.Flags().GetString("interface"); iface != "" {
			cfg.Interface = iface
		}
		if url, _ := cmd.Flags().GetString("directory-url"); url != "" {
			cfg.DirectoryURL = url
		}

		log := newLogger(cfg)

		capability, err := newCapability(cfg, log)
		if err != nil {
			fail(1, "Error: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tc, err := resolveTunnelConfig(ctx, cmd, args, cfg, log)
		if err != nil {
			fail(1, "Error: %v", err)
		}

		if cfg.UseKeyring && tc.PrivateKey == "" {
			key, err := keystore.Get(tc.Name)
			if err != nil {
				fail(1, "Error: no private key in config and none stored for %q: %v", tc.Name, err)
			}
			tc.PrivateKey = key
		}

		bus := tunnel.NewBus(log)
		defer bus.Close()

		if cfg.JournalPath != "" {
			j, err := journal.Open(cfg.JournalPath)
			if err != nil {
				log.Warn("journal unavailable, events will not be recorded", "error", err)
			} else {
				defer j.Close()
				bus.SubscribeAll(func(ev tunnel.Event) {
					if err := j.Record(context.Background(), ev); err != nil {
						log.Warn("failed to record event", "error", err)
					}
				})
			}
		}

		manager := tunnel.NewManager(capability, log, tunnel.Options{
			Interface:   cfg.Interface,
			ArtifactDir: cfg.ArtifactDir,
			Bus:         bus,
		})

		status, err := manager.Apply(ctx, tc)
		if err != nil {
			exitForApplyError(err)
		}

		fmt.Printf("Connected!\n")
		fmt.Printf("   Config:    %s\n", status.ConfigName)
		fmt.Printf("   Interface: %s\n", status.Interface)

		if detach, _ := cmd.Flags().GetBool("detach"); detach {
			fmt.Printf("\nTunnel left running. Use 'tunnelctl disconnect' to tear it down.\n")
			return
		}

		fmt.Printf("\nPress Ctrl+C to disconnect\n")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			log.Info("received shutdown signal, disconnecting", "signal", sig)
		case <-ctx.Done():
		}

		downCtx, downCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HelperTimeout)*time.Second)
		defer downCancel()

		if _, err := manager.Disconnect(downCtx); err != nil {
			fail(1, "Disconnect failed: %v", err)
		}
		fmt.Printf("Disconnected.\n")
	},
}

// resolveTunnelConfig obtains the tunnel config from a local file or
// the directory service.
func resolveTunnelConfig(ctx context.Context, cmd *cobra.Command, args []string, cfg *config.Config, log *logger.Logger) (wgtypes.TunnelConfig, error) {
	file, _ := cmd.Flags().GetString("file")

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return wgtypes.TunnelConfig{}, fmt.Errorf("failed to read %s: %w", file, err)
		}
		name := strings.TrimSuffix(filepath.Base(file), ".conf")
		return wgconf.Parse(name, string(data))
	}

	if len(args) == 0 {
		return wgtypes.TunnelConfig{}, fmt.Errorf("a config ID or --file is required")
	}

	client := directory.NewClient(cfg.DirectoryURL, log)
	return client.FetchConfig(ctx, args[0])
}

// exitForApplyError maps taxonomy kinds to exit codes and messages.
func exitForApplyError(err error) {
	switch errors.KindOf(err) {
	case errors.KindToolNotInstalled:
		fail(3, "WireGuard tools are not installed: %v", err)
	case errors.KindPermissionDenied:
		fail(4, "Permission denied. Try running with elevated privileges.\n%v", err)
	case errors.KindAlreadyConnected:
		fail(2, "A tunnel is already active. Disconnect first.")
	default:
		fail(1, "Connection failed: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().String("file", "", "local WireGuard config file to connect with")
	connectCmd.Flags().StringP("interface", "i", "", "WireGuard interface name (default: wg0)")
	connectCmd.Flags().String("directory-url", "", "config directory service URL")
	connectCmd.Flags().Bool("detach", false, "exit after connecting, leaving the tunnel up")
}
