package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/timesheet-api/internal/dto"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "poll interval")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch TASK_ID",
	Short: "Print timer changes of a task until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	if watchInterval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", watchInterval)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c, _, err := connect(ctx, cmd)
	if err != nil {
		return err
	}

	err = c.Watch(ctx, taskID, watchInterval, func(timer *dto.TaskTimerDTO, err error) {
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "poll failed:", err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ", time.Now().Format("15:04:05"))
		printTimer(cmd, timer)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
