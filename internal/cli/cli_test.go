package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/timesheet-api/internal/client"
	"github.com/yukikurage/timesheet-api/internal/dto"
	apierrors "github.com/yukikurage/timesheet-api/internal/errors"
	"github.com/yukikurage/timesheet-api/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// newFakeServer serves login plus the given task routes.
func newFakeServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "invalid username or password"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "timesheet_session", Value: "ok", Path: "/"})
		writeJSON(w, http.StatusOK, dto.UserDTO{ID: 1, Username: body["username"]})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TIMERCTL_HOME", t.TempDir())
	t.Setenv(passwordEnv, "")
	flagServer, flagUser, flagPassword = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TIMERCTL_HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultServerURL, cfg.ServerURL)
	assert.Empty(t, cfg.Username)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("TIMERCTL_HOME", t.TempDir())

	require.NoError(t, SaveConfig(Config{ServerURL: "http://timesheet.internal:9000", Username: "alice"}))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://timesheet.internal:9000", cfg.ServerURL)
	assert.Equal(t, "alice", cfg.Username)
}

func TestLogin_SavesConfig(t *testing.T) {
	srv := newFakeServer(t, http.NewServeMux())

	out, err := runCLI(t, "login", "--server", srv.URL, "--user", "alice", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to "+srv.URL+" as alice")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, srv.URL, cfg.ServerURL)
	assert.Equal(t, "alice", cfg.Username)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newFakeServer(t, http.NewServeMux())

	_, err := runCLI(t, "login", "--server", srv.URL, "--user", "alice", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login as alice")
}

func TestTimerCommand_SendsNote(t *testing.T) {
	var gotNote string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks/5/pause", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotNote = body["note"]
		writeJSON(w, http.StatusOK, dto.TaskTimerDTO{TaskID: 5, Status: models.TaskStatusPaused, TotalTrackedSeconds: 90})
	})
	srv := newFakeServer(t, mux)

	out, err := runCLI(t, "pause", "5", "--note", "lunch", "--server", srv.URL, "-u", "alice", "-p", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "lunch", gotNote)
	assert.Contains(t, out, "Task 5: paused, idle, 1m30s tracked")
}

func TestTimerCommand_InvalidTaskID(t *testing.T) {
	_, err := runCLI(t, "start", "abc", "-u", "alice", "-p", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid task id "abc"`)
}

func TestTimerCommand_NoUsername(t *testing.T) {
	_, err := runCLI(t, "start", "1", "-p", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no username configured")
}

func TestDescribeError_ConcurrentTimer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks/2/start", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, apierrors.NewAPIErrorWithDetails(
			apierrors.ErrCodeConcurrentTimer,
			"another task already has a running timer",
			map[string]interface{}{"running_task_id": 7},
		))
	})
	srv := newFakeServer(t, mux)

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	_, err = c.Start(context.Background(), 2, "")
	require.Error(t, err)

	assert.Contains(t, describeError(err), "pause or stop task 7 first")
}
