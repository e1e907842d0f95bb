// Package watch implements the streaming read loop and completion detector.
package watch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/hugentobler/ralph/internal/config"
	"github.com/hugentobler/ralph/internal/model"
	"github.com/hugentobler/ralph/internal/promise"
	"github.com/hugentobler/ralph/internal/rawlog"
)

// lineClear is the escape sequence that wipes the current status line.
const lineClear = "\r\x1b[2K"

// Options defines the configurable parameters for one watcher run.
type Options struct {
	Config config.Config
	In     io.Reader
	Out    io.Writer // primary stream: cleaned completion text only
	Status io.Writer // status stream: warnings, line clears, heartbeat

	// Heartbeat enables the legacy status ticker when positive. It is
	// armed only by the legacy single-provider binary.
	Heartbeat time.Duration

	// Now supplies the clock for the elapsed-time header.
	Now func() time.Time
}

// Run consumes newline-terminated lines from In until end-of-stream, then
// finalizes. It never terminates early on a detected completion: the
// upstream agent process must be allowed to finish writing. The returned
// code is the process exit code.
func Run(opts Options) (int, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cfg := opts.Config

	adapter, candidates, err := selectAdapter(cfg)
	if err != nil {
		return 1, err
	}

	tracker := promise.NewTracker(cfg.Sentinel)

	var log *rawlog.Log
	if cfg.RawLogPath != "" {
		log, err = rawlog.Open(cfg.RawLogPath)
		if err != nil {
			// Degrade to "no log" rather than aborting the stream.
			fmt.Fprintf(opts.Status, "warning: %v\n", err)
			log = nil
		}
	}

	var lastCategory atomic.Value
	if opts.Heartbeat > 0 {
		go heartbeat(opts.Heartbeat, opts.Status, &lastCategory)
	}

	scanner := newScanner(opts.In)
	for scanner.Scan() {
		line := scanner.Bytes()

		category, ok := classify(line)
		if !ok {
			// Fallback path: the stream may not be JSONL at all.
			log.WriteLine(line)
			tracker.ObserveRaw(string(line))
			continue
		}
		lastCategory.Store(category)

		if adapter == nil {
			adapter = sniff(candidates, category)
		}

		active := adapter
		if active == nil {
			// Auto mode before a successful sniff: log everything,
			// extract nothing.
			log.WriteLine(line)
			continue
		}

		if !active.ExcludeFromLog(category) {
			log.WriteLine(line)
		}
		if frag, ok := active.Extract(line); ok {
			tracker.Observe(frag)
		}
	}
	if err := scanner.Err(); err != nil {
		// The upstream writer broke mid-line; finalize with whatever was
		// observed so far.
		fmt.Fprintf(opts.Status, "warning: read input: %v\n", err)
	}

	return finalize(cfg, tracker, log, opts.Out, opts.Status, opts.Now), nil
}

// selectAdapter resolves the configured adapter, or the sniffing candidates
// when auto-detection is requested.
func selectAdapter(cfg config.Config) (model.Adapter, []model.Adapter, error) {
	if !cfg.AutoDetect {
		adapter, err := model.NewAdapter(cfg.Provider)
		if err != nil {
			return nil, nil, fmt.Errorf("select adapter: %w", err)
		}
		return adapter, nil, nil
	}

	var candidates []model.Adapter
	for _, provider := range []model.Provider{model.ProviderCodex, model.ProviderClaude, model.ProviderPi} {
		adapter, err := model.NewAdapter(provider)
		if err != nil {
			return nil, nil, fmt.Errorf("select adapter: %w", err)
		}
		candidates = append(candidates, adapter)
	}
	return nil, candidates, nil
}

// sniff picks the adapter claiming the observed event category.
func sniff(candidates []model.Adapter, category string) model.Adapter {
	for _, candidate := range candidates {
		if candidate.Sniff(category) {
			return candidate
		}
	}
	return nil
}

// finalize runs exactly once after end-of-input and decides stdout content,
// log closure, and the exit code.
func finalize(cfg config.Config, tracker *promise.Tracker, log *rawlog.Log, out, status io.Writer, now func() time.Time) int {
	message, won := tracker.Winning()
	if !won {
		log.Close()
		return 0
	}

	cleaned := tracker.Strip(message)
	if cleaned != "" && cfg.EmitHeader {
		fmt.Fprint(status, lineClear) //nolint:errcheck
		if cfg.RunStartEpoch > 0 {
			elapsed := now().Unix() - cfg.RunStartEpoch
			if elapsed < 0 {
				elapsed = 0
			}
			header := fmt.Sprintf("--- final output | %d:%02d ---", elapsed/60, elapsed%60)
			log.WriteHeader(header)
			fmt.Fprintln(out)         //nolint:errcheck
			fmt.Fprintln(out, header) //nolint:errcheck
		}
	}
	if cleaned != "" {
		fmt.Fprintln(out, cleaned) //nolint:errcheck
	}

	log.Close()

	// An all-sentinel message still signals completion; it simply produces
	// no visible output.
	return cfg.SuccessExitCode
}

// heartbeat periodically writes the most recently observed event category to
// the status stream. It runs detached and is torn down by process exit.
func heartbeat(interval time.Duration, status io.Writer, lastCategory *atomic.Value) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		category, _ := lastCategory.Load().(string)
		if category == "" {
			category = "waiting"
		}
		fmt.Fprintf(status, "%s[ralph] last event: %s", lineClear, category) //nolint:errcheck
	}
}

// classify decodes one input line as a JSON event envelope. It returns the
// event category (the top-level "type" value, possibly empty) and whether
// the line parsed as a JSON object at all.
func classify(line []byte) (string, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		return "", false
	}
	var category string
	if raw, found := envelope["type"]; found {
		json.Unmarshal(raw, &category) //nolint:errcheck
	}
	return category, true
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Allow large payloads such as full-file tool results.
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}
