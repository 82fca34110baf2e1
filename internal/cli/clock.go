package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clockInCmd, clockOutCmd, statusCmd)
}

var clockInCmd = &cobra.Command{
	Use:   "clockin",
	Short: "Clock in for today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := connect(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		ts, err := c.ClockIn(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Clocked in for %s at %s\n", ts.WorkDate, formatTime(ts.ClockIn))
		return nil
	},
}

var clockOutCmd = &cobra.Command{
	Use:   "clockout",
	Short: "Clock out, pausing any running timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := connect(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		out, err := c.ClockOut(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Clocked out for %s at %s\n", out.Timesheet.WorkDate, formatTime(out.Timesheet.ClockOut))
		if out.PausedTask != nil {
			fmt.Fprintf(w, "Paused task %d (%s tracked)\n", out.PausedTask.TaskID, formatSeconds(out.PausedTask.TotalTrackedSeconds))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's attendance and running timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := connect(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		status, err := c.TimesheetStatus(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s: %s\n", status.WorkDate, status.State)
		if status.ClockIn != nil {
			fmt.Fprintf(w, "  clock in:  %s\n", formatTime(status.ClockIn))
		}
		if status.ClockOut != nil {
			fmt.Fprintf(w, "  clock out: %s\n", formatTime(status.ClockOut))
		}
		if status.RunningTaskID != nil {
			fmt.Fprintf(w, "  running:   task %d\n", *status.RunningTaskID)
		} else {
			fmt.Fprintln(w, "  running:   none")
		}
		return nil
	},
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04:05")
}

func formatSeconds(s int64) string {
	return (time.Duration(s) * time.Second).String()
}
