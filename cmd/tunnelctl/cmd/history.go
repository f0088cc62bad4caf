package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/skiffvpn/tunnelctl/internal/journal"
)

// historyCmd prints recent lifecycle events from the journal.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tunnel lifecycle events",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(1, "Error loading config: %v", err)
		}
		if cfg.JournalPath == "" {
			fail(1, "No journal configured. Set journal_path in the config file.")
		}

		limit, _ := cmd.Flags().GetInt("limit")

		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			fail(1, "Error opening journal: %v", err)
		}
		defer j.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		entries, err := j.Recent(ctx, limit)
		if err != nil {
			fail(1, "Error reading journal: %v", err)
		}

		if len(entries) == 0 {
			fmt.Println("No events recorded.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tCONFIG\tINTERFACE\tDETAIL")
		for _, e := range entries {
			detail := e.Detail
			if e.ErrorKind != "" {
				detail = fmt.Sprintf("[%s] %s", e.ErrorKind, detail)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.OccurredAt.Local().Format(time.RFC3339), e.EventType, e.ConfigName, e.Interface, detail)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "maximum number of events to show")
}
