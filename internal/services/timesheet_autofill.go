package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yukikurage/timesheet-api/internal/constants"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"go.uber.org/zap"
)

const summarizeTimeout = 15 * time.Second

// fillTimesheet records the completed task on the user's timesheet for the
// day. Users without a timesheet for that day, or whose day is already
// submitted, are skipped.
func (s *TimerService) fillTimesheet(tx repository.TimerTx, task *models.Task, userID uint64, now time.Time) error {
	entry, notes, err := s.buildEntry(tx, task, userID, now)
	if err != nil || entry == nil {
		return err
	}

	entry.Description = fallbackDescription(task.Name, notes)
	return tx.UpsertTimesheetEntry(entry)
}

// refineTimesheetEntry replaces the entry description with a summary of the
// day's timer notes. It runs after the completing transaction has committed
// and only logs failures: the entry written by fillTimesheet stays valid.
func (s *TimerService) refineTimesheetEntry(ctx context.Context, task *models.Task, userID uint64, now time.Time) {
	if s.summarizer == nil {
		return
	}

	var notes []string
	err := s.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		entry, n, err := s.buildEntry(tx, task, userID, now)
		if entry != nil {
			notes = n
		}
		return err
	})
	if err != nil {
		s.log.Warn("Failed to read timer notes", zap.Uint64("task_id", task.ID), zap.Error(err))
		return
	}
	if len(notes) == 0 {
		return
	}

	summaryCtx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	summary, err := s.summarizer.SummarizeNotes(summaryCtx, task.Name, notes)
	if err != nil {
		s.log.Warn("Failed to summarize timer notes", zap.Uint64("task_id", task.ID), zap.Error(err))
		return
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return
	}

	err = s.store.WithinTransaction(ctx, func(tx repository.TimerTx) error {
		entry, _, err := s.buildEntry(tx, task, userID, now)
		if err != nil || entry == nil {
			return err
		}
		entry.Description = summary
		return tx.UpsertTimesheetEntry(entry)
	})
	if err != nil {
		s.log.Warn("Failed to store summarized description", zap.Uint64("task_id", task.ID), zap.Error(err))
	}
}

// buildEntry computes the timesheet entry for task on the work date of now,
// together with the user-written notes of that day. It returns a nil entry
// when the user has no timesheet for the day or has submitted it.
func (s *TimerService) buildEntry(tx repository.TimerTx, task *models.Task, userID uint64, now time.Time) (*models.TimesheetEntry, []string, error) {
	ts, err := tx.FindTimesheet(userID, s.workDate(now))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find timesheet: %w", err)
	}
	if ts == nil || ts.Status == models.TimesheetSubmitted {
		return nil, nil, nil
	}

	from, to := s.dayBounds(now)
	logs, err := tx.ListLogsEndedBetween(task.ID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list time logs: %w", err)
	}

	var seconds int64
	notes := make([]string, 0, len(logs))
	for _, l := range logs {
		if l.UserID != userID {
			continue
		}
		seconds += l.DurationSeconds
		note := strings.TrimSpace(l.Note)
		if note != "" && !isAutoPauseNote(note) && len(notes) < constants.MaxSummarizedNotes {
			notes = append(notes, note)
		}
	}

	project, err := tx.FindProject(task.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find project: %w", err)
	}

	return &models.TimesheetEntry{
		TimesheetID: ts.ID,
		TaskID:      task.ID,
		ProjectID:   task.ProjectID,
		HoursWorked: secondsToHours(seconds),
		IsBillable:  project.IsBillable,
	}, notes, nil
}

func isAutoPauseNote(note string) bool {
	return note == constants.AutoPauseClockOutNote || note == constants.AutoPauseMemberRemovedNote
}

func fallbackDescription(taskName string, notes []string) string {
	if len(notes) == 0 {
		return taskName
	}
	return strings.Join(notes, "; ")
}

// secondsToHours converts seconds to hours rounded to two decimals.
func secondsToHours(seconds int64) float64 {
	return math.Round(float64(seconds)/3600*100) / 100
}
