package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	logsPage  int
	logsLimit int
)

func init() {
	logsCmd.Flags().IntVar(&logsPage, "page", 1, "page number")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 20, "entries per page")
	rootCmd.AddCommand(logsCmd)
}

var logsCmd = &cobra.Command{
	Use:   "logs TASK_ID",
	Short: "List the time log of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

func runLogs(cmd *cobra.Command, args []string) error {
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	c, _, err := connect(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	logs, err := c.Logs(cmd.Context(), taskID, logsPage, logsLimit)
	if err != nil {
		return err
	}

	if len(logs.Logs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No time logs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTION\tSTART\tEND\tDURATION\tNOTE")
	for _, l := range logs.Logs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			l.Action,
			formatTime(l.StartAt),
			formatTime(l.EndAt),
			formatSeconds(l.DurationSeconds),
			l.Note,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	p := logs.Pagination
	fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d entries\n", p.Page, len(logs.Logs), p.Total)
	return nil
}
