// Package main is the entrypoint for timerctl, the timesheet command-line client.
package main

import "github.com/yukikurage/timesheet-api/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
