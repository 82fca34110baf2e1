package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition results used as the "result" label.
const (
	ResultOK                = "ok"
	ResultInvalidTransition = "invalid_transition"
	ResultConflict          = "conflict"
	ResultNotAuthorized     = "not_authorized"
	ResultNotFound          = "not_found"
	ResultNotClockedIn      = "not_clocked_in"
	ResultError             = "error"
)

var (
	timerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timer_transitions_total",
			Help: "Timer transitions by action and result",
		},
		[]string{"action", "result"},
	)

	trackedSeconds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timer_tracked_seconds_total",
			Help: "Seconds folded into task totals by pause, stop and complete",
		},
	)

	clockEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_clock_events_total",
			Help: "Timesheet clock and submit events",
		},
		[]string{"event"},
	)

	logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
)

// ObserveTransition counts one timer transition attempt.
func ObserveTransition(action, result string) {
	timerTransitions.WithLabelValues(action, result).Inc()
}

// AddTrackedSeconds records seconds folded into a task total.
func AddTrackedSeconds(seconds int64) {
	if seconds <= 0 {
		return
	}
	trackedSeconds.Add(float64(seconds))
}

// ObserveClockEvent counts a timesheet event: clock_in, clock_out or submit.
func ObserveClockEvent(event string) {
	clockEvents.WithLabelValues(event).Inc()
}

// ObserveLogin counts a login attempt: ok, invalid_credentials or disabled.
func ObserveLogin(result string) {
	logins.WithLabelValues(result).Inc()
}
