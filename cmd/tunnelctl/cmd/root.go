package cmd

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/skiffvpn/tunnelctl/internal/config"
	"github.com/skiffvpn/tunnelctl/internal/execution"
	"github.com/skiffvpn/tunnelctl/internal/platform"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
)

var cfgFile string

// rootCmd is the base command for tunnelctl.
var rootCmd = &cobra.Command{
	Use:   "tunnelctl",
	Short: "Manage WireGuard tunnel lifecycles",
	Long: `tunnelctl brings WireGuard tunnels up and down from remote or local
configurations, tracks the connection state, and records lifecycle
events to a local journal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches /etc/tunnelctl, $HOME, .)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
}

// loadConfig loads the application config and applies persistent flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadWithPath(cfgFile)
	} else {
		cfg, err = config.NewLoader().Load()
	}
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.LogFormat = format
	}

	return cfg, nil
}

// newLogger builds the application logger from config.
func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:     logger.Level(cfg.LogLevel),
		Format:    logger.Format(cfg.LogFormat),
		Component: "tunnelctl",
	})
}

// newCapability builds the platform capability for the host OS.
func newCapability(cfg *config.Config, log *logger.Logger) (platform.Capability, error) {
	runner := execution.NewRunner(log)
	timeout := time.Duration(cfg.HelperTimeout) * time.Second
	return platform.New(runtime.GOOS, runner, log, timeout)
}

// fail prints an error and exits with the given code.
func fail(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
