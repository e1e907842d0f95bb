// Package main provides ralph-parse, the legacy single-provider stdin
// filter. It takes no arguments: everything is configured through the
// RALPH_* environment variables, and the heartbeat status line is armed.
package main

import (
	"fmt"
	"os"

	_ "github.com/hugentobler/ralph/internal/claude"
	_ "github.com/hugentobler/ralph/internal/codex"
	_ "github.com/hugentobler/ralph/internal/pi"

	"github.com/hugentobler/ralph/internal/config"
	"github.com/hugentobler/ralph/internal/watch"
)

func main() {
	cfg := config.FromEnv()

	code, err := watch.Run(watch.Options{
		Config:    cfg,
		In:        os.Stdin,
		Out:       os.Stdout,
		Status:    os.Stderr,
		Heartbeat: cfg.Heartbeat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ralph-parse: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}
