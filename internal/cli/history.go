package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/ui"
)

var (
	historyLimit int
	historyClear bool
)

// historyCmd prints the event journal
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent readings, alarms and connection changes",
	Long: `Show the most recent entries of the history journal, newest first.

The journal is only written when history is enabled in the config or with
--history on monitor and watch.

Examples:
  dripmon history
  dripmon history --limit 100
  dripmon history --clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete every journal entry")
}

func historyCommand(cmd *cobra.Command) error {
	paths, _, err := app.LoadConfig(runtimeOptions(nil, nil))
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if historyClear {
		deleted, cleared, err := app.ClearHistoryFile(ctx, paths)
		if err != nil {
			return err
		}
		if cleared {
			fmt.Fprintf(out, "History cleared (%d entries deleted).\n", deleted)
		} else {
			fmt.Fprintln(out, "No history recorded yet.")
		}

		return nil
	}

	repo, closeDB, ok, err := app.OpenHistory(ctx, paths)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "No history recorded yet. Enable it with history.enabled in the config or --history.")

		return nil
	}
	defer func() {
		_ = closeDB()
	}()

	entries, err := repo.ListRecent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "History is empty.")

		return nil
	}
	fmt.Fprintln(out, renderHistory(entries))

	return nil
}

func renderHistory(entries []domain.JournalEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.At.Local().Format("2006-01-02 15:04:05"),
			string(e.Kind),
			e.Device,
			journalSummary(e),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorMuted)).
		Headers("ID", "TIME", "KIND", "DEVICE", "EVENT").
		Rows(rows...).
		String()
}

func journalSummary(e domain.JournalEntry) string {
	switch e.Kind {
	case domain.JournalReading:
		summary := e.Status.Title()
		if e.Status.HasRate {
			summary += fmt.Sprintf(" (%d drops/min)", e.Status.Rate)
		}
		if e.Raw != "" {
			summary += fmt.Sprintf(" %q", e.Raw)
		}

		return summary
	case domain.JournalAlert:
		if e.Alerting {
			return "alarm: " + e.Detail
		}

		return "alarm cleared: " + e.Detail
	case domain.JournalConnection:
		if e.Detail != "" {
			return e.State + ": " + e.Detail
		}

		return e.State
	default:
		return e.Detail
	}
}
