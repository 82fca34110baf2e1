package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"github.com/yukikurage/timesheet-api/internal/utils"
	"gorm.io/gorm"
)

// TimeBucket is the tracked time of one day or ISO week.
type TimeBucket struct {
	Key     string
	Title   string
	Seconds int64
}

// TimeSummary aggregates a task's ledger and compares it with the cache.
type TimeSummary struct {
	TaskID        uint64
	GroupBy       GroupBy
	LedgerSeconds int64
	CachedSeconds int64
	Consistent    bool
	RunningSince  *time.Time
	ActionCounts  map[models.TimerAction]int
	Buckets       []TimeBucket
}

// Reconciliation compares the ledger total of a task with its cached total.
type Reconciliation struct {
	TaskID        uint64
	LedgerSeconds int64
	CachedSeconds int64
}

// Drift is the cached total minus the ledger total.
func (r Reconciliation) Drift() int64 {
	return r.CachedSeconds - r.LedgerSeconds
}

// TimeLogService is the read side of the timer ledger.
type TimeLogService struct {
	logRepo  repository.TimeLogRepository
	taskRepo repository.TaskRepository
	orgRepo  repository.OrganizationRepository
	location *time.Location
}

// NewTimeLogService creates a TimeLogService. Buckets are cut in loc.
func NewTimeLogService(logRepo repository.TimeLogRepository, taskRepo repository.TaskRepository, orgRepo repository.OrganizationRepository, loc *time.Location) *TimeLogService {
	if loc == nil {
		loc = time.UTC
	}
	return &TimeLogService{
		logRepo:  logRepo,
		taskRepo: taskRepo,
		orgRepo:  orgRepo,
		location: loc,
	}
}

// ListLogs returns one page of the task's ledger in append order.
func (s *TimeLogService) ListLogs(ctx context.Context, taskID, userID uint64, params utils.PaginationParams) ([]models.TaskTimeLog, int64, error) {
	if _, _, err := loadAccessibleTask(ctx, s.taskRepo, s.orgRepo, taskID, userID); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.logRepo.ListByTask(ctx, taskID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list time logs: %w", err)
	}
	return logs, total, nil
}

// Summary totals the task's ledger per day or week. Only rows that close an
// interval carry time, and each is counted once under the date of its end_at.
func (s *TimeLogService) Summary(ctx context.Context, taskID, userID uint64, groupBy GroupBy) (*TimeSummary, error) {
	task, _, err := loadAccessibleTask(ctx, s.taskRepo, s.orgRepo, taskID, userID)
	if err != nil {
		return nil, err
	}

	logs, err := s.logRepo.ListAllByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}

	summary := &TimeSummary{
		TaskID:        task.ID,
		GroupBy:       groupBy,
		CachedSeconds: task.TotalTrackedSeconds,
		RunningSince:  task.ActiveTimerStartedAt,
		ActionCounts:  make(map[models.TimerAction]int, len(models.TimerActions)),
		Buckets:       []TimeBucket{},
	}

	index := make(map[string]int)
	for _, l := range logs {
		summary.ActionCounts[l.Action]++
		if !l.Action.ClosesInterval() || l.EndAt == nil {
			continue
		}

		summary.LedgerSeconds += l.DurationSeconds

		at := l.EndAt.In(s.location)
		key := groupKey(at, groupBy)
		i, ok := index[key]
		if !ok {
			i = len(summary.Buckets)
			index[key] = i
			summary.Buckets = append(summary.Buckets, TimeBucket{Key: key, Title: groupTitle(at, groupBy)})
		}
		summary.Buckets[i].Seconds += l.DurationSeconds
	}

	sort.Slice(summary.Buckets, func(i, j int) bool {
		return summary.Buckets[i].Key < summary.Buckets[j].Key
	})
	summary.Consistent = summary.LedgerSeconds == summary.CachedSeconds

	return summary, nil
}

// ReconcileForOwner runs ReconcileTask on behalf of an owner of the task's organization.
func (s *TimeLogService) ReconcileForOwner(ctx context.Context, taskID, userID uint64) (*Reconciliation, error) {
	_, member, err := loadAccessibleTask(ctx, s.taskRepo, s.orgRepo, taskID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsOwner() {
		return nil, ErrNotOrganizationOwner
	}
	return s.ReconcileTask(ctx, taskID)
}

// ReconcileTask recomputes the ledger total of a task. It never writes: the
// ledger is authoritative and drift is reported, not repaired.
func (s *TimeLogService) ReconcileTask(ctx context.Context, taskID uint64) (*Reconciliation, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	ledger, err := s.logRepo.SumDurationByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum time logs: %w", err)
	}

	return &Reconciliation{
		TaskID:        task.ID,
		LedgerSeconds: ledger,
		CachedSeconds: task.TotalTrackedSeconds,
	}, nil
}
