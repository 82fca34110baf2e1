package constants

// Session / context keys
const (
	SessionCookieName            = "timesheet_session"
	ContextKeyUserID             = "user_id"
	ContextKeyRequestID          = "request_id"
	ContextKeyOrganization       = "organization"
	ContextKeyOrganizationMember = "organization_member"
	ContextKeyTask               = "task"
	HeaderRequestID              = "X-Request-ID"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Timer
const (
	// AutoPauseClockOutNote is recorded on the ledger row written when clocking out pauses a running task.
	AutoPauseClockOutNote = "Auto-pause due to clock out"
	// AutoPauseMemberRemovedNote is recorded when removing a member from an organization pauses their timer.
	AutoPauseMemberRemovedNote = "Auto-pause due to removal from organization"
	MaxTimerNoteLength         = 1000
	MaxEntryHours              = 24
	WorkDateLayout             = "2006-01-02"
)

// AI
const (
	MaxSummarizedNotes = 50
)
