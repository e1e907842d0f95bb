// Package main provides the ralphwatch CLI for watching AI agent JSONL
// streams and inspecting captured raw logs.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	// Import the provider packages to trigger init() registration.
	_ "github.com/hugentobler/ralph/internal/claude"
	_ "github.com/hugentobler/ralph/internal/codex"
	_ "github.com/hugentobler/ralph/internal/pi"

	"github.com/hugentobler/ralph/internal/config"
	"github.com/hugentobler/ralph/internal/format"
	"github.com/hugentobler/ralph/internal/logdir"
	"github.com/hugentobler/ralph/internal/model"
	"github.com/hugentobler/ralph/internal/show"
	"github.com/hugentobler/ralph/internal/watch"
)

var version = "dev"

// exitCode carries the watch result through cobra to main.
var exitCode int

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ralphwatch",
		Short:   "Watch AI agent JSONL streams for a completion promise",
		Version: version,
	}
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newShowCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ralphwatch: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func newWatchCmd() *cobra.Command {
	var (
		providerFlag string
		sentinel     string
		rawLogPath   string
		noHeader     bool
		successCode  int
		runStart     int64
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Read agent JSONL from stdin and detect the completion promise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()

			// Flags override the environment.
			flags := cmd.Flags()
			if flags.Changed("provider") {
				if strings.EqualFold(providerFlag, "auto") {
					cfg.AutoDetect = true
					cfg.Provider = model.ProviderUnknown
				} else {
					cfg.AutoDetect = false
					cfg.Provider = model.ParseProvider(providerFlag)
				}
			}
			if flags.Changed("sentinel") {
				cfg.Sentinel = sentinel
			}
			if flags.Changed("raw-log") {
				cfg.RawLogPath = rawLogPath
			}
			if flags.Changed("no-header") {
				cfg.EmitHeader = !noHeader
			}
			if flags.Changed("exit-code") {
				cfg.SuccessExitCode = successCode
			}
			if flags.Changed("run-start") {
				cfg.RunStartEpoch = runStart
			}

			code, err := watch.Run(watch.Options{
				Config: cfg,
				In:     cmd.InOrStdin(),
				Out:    cmd.OutOrStdout(),
				Status: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			exitCode = code
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&providerFlag, "provider", "", "agent wire format: codex, claude, pi, or auto (env: RALPH_PROVIDER)")
	flags.StringVar(&sentinel, "sentinel", "", "completion promise substring (env: RALPH_COMPLETION_PROMISE)")
	flags.StringVar(&rawLogPath, "raw-log", "", "append raw input lines to this file (env: RALPH_RAW_LOG_PATH)")
	flags.BoolVar(&noHeader, "no-header", false, "suppress the final output header (env: RALPH_FINAL_OUTPUT_HEADER)")
	flags.IntVar(&successCode, "exit-code", 0, "exit code on detected completion (env: RALPH_COMPLETION_EXIT_CODE)")
	flags.Int64Var(&runStart, "run-start", 0, "unix seconds for the elapsed-time header (env: RALPH_RUN_START_EPOCH)")

	return cmd
}

func newLogsCmd() *cobra.Command {
	var (
		limit      int
		formatFlag string
		noHeader   bool
		sentinel   string
	)

	cmd := &cobra.Command{
		Use:   "logs [dir]",
		Short: "List captured raw logs with per-file statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			if !cmd.Flags().Changed("sentinel") {
				sentinel = config.FromEnv().Sentinel
			}

			result, err := logdir.List(logdir.ListOptions{
				Root:     root,
				Sentinel: sentinel,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			includeHeader := !noHeader
			return format.WriteSummaries(cmd.OutOrStdout(), result.Summaries, includeHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&limit, "limit", 0, "limit number of logs returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for table and plain output")
	flags.StringVar(&sentinel, "sentinel", "", "completion promise to look for (env: RALPH_COMPLETION_PROMISE)")

	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		providerFlag string
		sentinel     string
		wrap         int
		maxEntries   int
		allEntries   bool
		raw          bool
		forceColor   bool
		forceNoColor bool
	)

	cmd := &cobra.Command{
		Use:   "show <log>",
		Short: "Render a captured raw log as a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			provider := cfg.Provider
			if cmd.Flags().Changed("provider") {
				provider = model.ParseProvider(providerFlag)
			}
			if !cmd.Flags().Changed("sentinel") {
				sentinel = cfg.Sentinel
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return show.Run(show.Options{
				Path:         args[0],
				Provider:     provider,
				Sentinel:     sentinel,
				Wrap:         wrap,
				Max:          maxEntries,
				All:          allEntries,
				Raw:          raw,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				Out:          out,
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&providerFlag, "provider", "", "agent wire format: codex, claude, or pi (env: RALPH_PROVIDER)")
	flags.StringVar(&sentinel, "sentinel", "", "completion promise to highlight (env: RALPH_COMPLETION_PROMISE)")
	flags.IntVar(&wrap, "wrap", 0, "wrap message body at the given column width")
	flags.IntVar(&maxEntries, "max", 0, "show only the most recent N entries (0 means no limit)")
	flags.BoolVar(&allEntries, "all", false, "include events without assistant text")
	flags.BoolVar(&raw, "raw", false, "output the log verbatim without formatting")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	return cmd
}
