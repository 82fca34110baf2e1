// Package cli implements the timerctl command-line client using Cobra.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yukikurage/timesheet-api/internal/client"
)

const passwordEnv = "TIMERCTL_PASSWORD"

var (
	flagServer   string
	flagUser     string
	flagPassword string
)

var rootCmd = &cobra.Command{
	Use:   "timerctl",
	Short: "Track task time against a timesheet server",
	Long: `timerctl drives task timers and the daily timesheet from the terminal.

The server URL and username are read from ~/.timerctl/config.toml (written by
"timerctl login"). The password comes from --password or $TIMERCTL_PASSWORD.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "username (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagPassword, "password", "p", "", "password (default $"+passwordEnv+")")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

// resolveConfig merges the config file with command-line overrides.
func resolveConfig() (Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return cfg, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagUser != "" {
		cfg.Username = flagUser
	}
	return cfg, nil
}

func resolvePassword(in io.Reader, out io.Writer) (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}

	fmt.Fprint(out, "Password: ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no password given")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// connect logs in and returns a client holding the session.
func connect(ctx context.Context, cmd *cobra.Command) (*client.Client, Config, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, cfg, err
	}
	if cfg.Username == "" {
		return nil, cfg, errors.New(`no username configured; run "timerctl login" or pass --user`)
	}

	password, err := resolvePassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return nil, cfg, err
	}

	c, err := client.New(cfg.ServerURL)
	if err != nil {
		return nil, cfg, err
	}
	if _, err := c.Login(ctx, cfg.Username, password); err != nil {
		return nil, cfg, fmt.Errorf("login as %s: %w", cfg.Username, err)
	}
	return c, cfg, nil
}

func parseTaskID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func describeError(err error) string {
	if id, ok := client.RunningTaskID(err); ok {
		return fmt.Sprintf("%v\nhint: pause or stop task %d first", err, id)
	}
	if client.IsNotClockedIn(err) {
		return fmt.Sprintf("%v\nhint: run \"timerctl clockin\"", err)
	}
	return err.Error()
}
