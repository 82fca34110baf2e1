package database

import (
	"fmt"

	applog "github.com/yukikurage/timesheet-api/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunningTimerIndex is the partial unique index allowing at most one running
// timer per assignee.
const RunningTimerIndex = "ux_tasks_running_assignee"

type indexDef struct {
	table   string
	name    string
	columns string
	unique  bool
	where   string
}

var indexes = []indexDef{
	{table: "tasks", name: "idx_tasks_status", columns: "status"},
	{table: "tasks", name: "idx_tasks_created_by", columns: "created_by"},
	{table: "task_time_logs", name: "idx_task_time_logs_task_created", columns: "task_id, created_at, id"},
	{table: "task_time_logs", name: "idx_task_time_logs_user_end", columns: "user_id, end_at"},
	{table: "organization_members", name: "idx_org_members_user_id", columns: "user_id"},
	{
		table:   "tasks",
		name:    RunningTimerIndex,
		columns: "assigned_to",
		unique:  true,
		where:   "active_timer_started_at IS NOT NULL",
	},
}

// AddIndexes creates indexes that are missing. Partial indexes are skipped on
// dialects without WHERE support on indexes (mysql), where the row lock taken
// by every timer transition is the only guard.
func AddIndexes(db *gorm.DB, log *applog.Logger) error {
	partialSupported := SupportsPartialIndexes(db)

	for _, idx := range indexes {
		if idx.where != "" && !partialSupported {
			log.Warn("Dialect lacks partial indexes, skipping",
				zap.String("index", idx.name),
				zap.String("dialect", db.Dialector.Name()),
			)
			continue
		}

		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}

		sql := buildIndexSQL(idx)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}

// SupportsPartialIndexes reports whether the connected dialect accepts
// CREATE INDEX ... WHERE.
func SupportsPartialIndexes(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		return true
	}
	return false
}

func buildIndexSQL(idx indexDef) string {
	kind := "INDEX"
	if idx.unique {
		kind = "UNIQUE INDEX"
	}
	sql := fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, idx.name, idx.table, idx.columns)
	if idx.where != "" {
		sql += " WHERE " + idx.where
	}
	return sql
}
