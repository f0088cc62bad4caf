package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skiffvpn/tunnelctl/internal/keystore"
	"github.com/skiffvpn/tunnelctl/internal/wgconf"
)

// importCmd validates a local config file and stores its private key in
// the OS keyring so the file itself can be kept without key material.
var importCmd = &cobra.Command{
	Use:   "import <config-file>",
	Short: "Validate a config file and store its private key in the keyring",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			fail(1, "Error reading %s: %v", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), ".conf")
		if override, _ := cmd.Flags().GetString("name"); override != "" {
			name = override
		}

		tc, err := wgconf.Parse(name, string(data))
		if err != nil {
			fail(1, "Invalid config: %v", err)
		}
		if err := wgconf.Validate(tc); err != nil {
			fail(1, "Invalid config: %v", err)
		}

		if err := keystore.Store(name, tc.PrivateKey); err != nil {
			fail(1, "Failed to store key: %v", err)
		}

		fmt.Printf("Imported %q.\n", name)
		fmt.Printf("   Endpoint:  %s\n", tc.Endpoint)
		fmt.Printf("   Private key stored in the system keyring.\n")
		fmt.Printf("\nYou can now remove the PrivateKey line from %s and connect with:\n", path)
		fmt.Printf("   tunnelctl connect --file %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("name", "", "store the key under this config name instead of the file name")
}
