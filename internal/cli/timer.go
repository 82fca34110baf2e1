package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/timesheet-api/internal/dto"
	"github.com/yukikurage/timesheet-api/internal/models"
)

func init() {
	for _, action := range models.TimerActions {
		rootCmd.AddCommand(newTimerCmd(action))
	}
}

var timerShort = map[models.TimerAction]string{
	models.TimerActionStart:    "Start the timer on a task",
	models.TimerActionPause:    "Pause a running timer",
	models.TimerActionResume:   "Resume a paused timer",
	models.TimerActionStop:     "Stop a timer, keeping the task open",
	models.TimerActionComplete: "Stop a timer and complete the task",
}

func newTimerCmd(action models.TimerAction) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   string(action) + " TASK_ID",
		Short: timerShort[action],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := models.ParseTimerAction(cmd.Name())
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			c, _, err := connect(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			timer, err := c.Transition(cmd.Context(), taskID, act, note)
			if err != nil {
				return err
			}
			printTimer(cmd, timer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "note stored with the log entry")
	return cmd
}

func printTimer(cmd *cobra.Command, timer *dto.TaskTimerDTO) {
	state := "idle"
	if timer.IsRunning {
		state = "running since " + formatTime(timer.ActiveTimerStartedAt)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task %d: %s, %s, %s tracked\n",
		timer.TaskID, timer.Status, state, formatSeconds(timer.TotalTrackedSeconds))
}
