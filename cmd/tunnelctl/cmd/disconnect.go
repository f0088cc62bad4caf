package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skiffvpn/tunnelctl/internal/journal"
	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/internal/tunnel"
)

// disconnectCmd tears down the configured interface. It talks to the
// platform directly: the interface may have been brought up by an
// earlier detached connect, so there is no in-process state to consult.
// The config artifact lives at the deterministic per-interface path, so
// this process can resolve it for the helper and release it afterwards.
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Tear a WireGuard tunnel down",
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

		dir := cfg.ArtifactDir
		if dir == "" {
			dir = tunnel.DefaultArtifactDir()
		}
		artifactPath := tunnel.ArtifactPath(dir, cfg.Interface)
		if _, statErr := os.Stat(artifactPath); statErr != nil {
			artifactPath = ""
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HelperTimeout)*time.Second)
		defer cancel()

		err = capability.BringDown(ctx, cfg.Interface, artifactPath)
		switch {
		case err == nil:
			releaseArtifact(artifactPath, log)
			recordDown(cfg.JournalPath, cfg.Interface, log)
			fmt.Printf("Disconnected %s.\n", cfg.Interface)
		case errors.IsKind(err, errors.KindInterfaceNotFound):
			releaseArtifact(artifactPath, log)
			fmt.Printf("Interface %s is not up. Nothing to do.\n", cfg.Interface)
		case errors.IsKind(err, errors.KindPermissionDenied):
			fail(4, "Permission denied. Try running with elevated privileges.\n%v", err)
		default:
			fail(1, "Disconnect failed: %v", err)
		}
	},
}

// releaseArtifact removes the key-bearing config artifact once the
// interface is known to be down.
func releaseArtifact(path string, log *logger.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove config artifact", "path", path, "error", err)
	}
}

// recordDown writes a teardown event to the journal when one is
// configured.
func recordDown(journalPath, iface string, log *logger.Logger) {
	if journalPath == "" {
		return
	}
	j, err := journal.Open(journalPath)
	if err != nil {
		log.Warn("journal unavailable", "error", err)
		return
	}
	defer j.Close()

	bus := tunnel.NewBus(log)
	defer bus.Close()
	bus.SubscribeAll(func(ev tunnel.Event) {
		if err := j.Record(context.Background(), ev); err != nil {
			log.Warn("failed to record event", "error", err)
		}
	})
	bus.Publish(tunnel.EventDown, tunnel.Event{Interface: iface})
}

func init() {
	rootCmd.AddCommand(disconnectCmd)

	disconnectCmd.Flags().StringP("interface", "i", "", "WireGuard interface name")
}
