package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rtzll/ytscribe/internal"
)

// historyCmd lists recorded jobs from the ledger
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously processed videos",
	Example: `  # Show the last 20 jobs
  ytscribe history

  # Only failed jobs, as JSON
  ytscribe history --failed --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ledger, err := internal.OpenLedger(config.LedgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")
		entries, err := ledger.List(cmd.Context(), internal.LedgerQuery{Limit: limit, FailedOnly: failed})
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("converting history to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(entries) == 0 {
			fmt.Println("No jobs recorded yet")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FINISHED\tSTATE\tLANG\tTITLE\tURL")
		for _, e := range entries {
			state := e.State.String()
			if e.State == internal.StateAborted {
				state = "failed (" + e.Stage.String() + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.FinishedAt.Local().Format("2006-01-02 15:04"), state, e.DetectedLanguage, e.Title, e.URL)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Number of jobs to show")
	historyCmd.Flags().Bool("failed", false, "Only show failed jobs")
	historyCmd.Flags().Bool("json", false, "Print entries as JSON")
	rootCmd.AddCommand(historyCmd)
}
