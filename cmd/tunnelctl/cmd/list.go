package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/skiffvpn/tunnelctl/internal/directory"
)

// listCmd lists the configs available from the directory service.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configs available from the directory service",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(1, "Error loading config: %v", err)
		}
		if url, _ := cmd.Flags().GetString("directory-url"); url != "" {
			cfg.DirectoryURL = url
		}

		log := newLogger(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		client := directory.NewClient(cfg.DirectoryURL, log)
		configs, err := client.ListConfigs(ctx)
		if err != nil {
			fail(1, "Error listing configs: %v", err)
		}

		if len(configs) == 0 {
			fmt.Println("No configs available.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLOCATION\tENDPOINT")
		for _, c := range configs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Location, c.Endpoint)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("directory-url", "", "config directory service URL")
}
