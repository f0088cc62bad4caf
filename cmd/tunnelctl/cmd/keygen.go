package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skiffvpn/tunnelctl/internal/keystore"
	"github.com/skiffvpn/tunnelctl/pkg/crypto"
)

// keygenCmd generates a fresh WireGuard key pair. The private key goes
// to stdout only when not stored, mirroring wg genkey.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a WireGuard key pair",
	Run: func(cmd *cobra.Command, args []string) {
		pair, err := crypto.GenerateKeyPair()
		if err != nil {
			fail(1, "Key generation failed: %v", err)
		}

		if name, _ := cmd.Flags().GetString("store"); name != "" {
			if err := keystore.Store(name, pair.PrivateKey); err != nil {
				fail(1, "Failed to store key: %v", err)
			}
			fmt.Printf("Private key stored in the system keyring as %q.\n", name)
			fmt.Printf("Public key: %s\n", pair.PublicKey)
			return
		}

		fmt.Printf("Private key: %s\n", pair.PrivateKey)
		fmt.Printf("Public key:  %s\n", pair.PublicKey)
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().String("store", "", "store the private key in the keyring under this name")
}
