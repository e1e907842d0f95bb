// Package promise holds the completion state for one watcher run.
package promise

import (
	"strings"

	"github.com/hugentobler/ralph/internal/model"
)

// Tracker owns the single winning completion message. State moves forward
// only: a recorded winner may be replaced by a later structured match but is
// never cleared.
//
// The two observation paths deliberately differ. Structured provider output
// is trusted to supersede earlier structured matches (agents may restate or
// correct a completion), so Observe applies last-match-wins. Unstructured
// fallback lines are trusted only once: ObserveRaw records the first
// qualifying line and never replaces an existing winner.
type Tracker struct {
	sentinel string
	winning  string
	won      bool
}

// NewTracker creates a tracker for the given sentinel. An empty sentinel
// disables matching entirely.
func NewTracker(sentinel string) *Tracker {
	return &Tracker{sentinel: sentinel}
}

// Observe tests an extracted fragment against the sentinel and records the
// winning message. The fragment text is preferred; the accumulated text is
// consulted only when the fragment alone does not match. It reports whether
// a message was recorded.
func (t *Tracker) Observe(frag model.Fragment) bool {
	if t.sentinel == "" {
		return false
	}
	if strings.Contains(frag.Text, t.sentinel) {
		t.record(frag.Text)
		return true
	}
	if frag.Accumulated != "" && strings.Contains(frag.Accumulated, t.sentinel) {
		t.record(frag.Accumulated)
		return true
	}
	return false
}

// ObserveRaw applies the fallback scan to a line that failed JSON decoding.
// Only the first qualifying line can win, and never over an existing winner.
func (t *Tracker) ObserveRaw(line string) bool {
	if t.sentinel == "" || t.won {
		return false
	}
	if !strings.Contains(line, t.sentinel) {
		return false
	}
	t.record(line)
	return true
}

// Winning returns the current winning message, if any.
func (t *Tracker) Winning() (string, bool) {
	return t.winning, t.won
}

// Strip removes every occurrence of the sentinel from message and trims
// surrounding whitespace.
func (t *Tracker) Strip(message string) string {
	if t.sentinel == "" {
		return strings.TrimSpace(message)
	}
	return strings.TrimSpace(strings.ReplaceAll(message, t.sentinel, ""))
}

func (t *Tracker) record(message string) {
	t.winning = message
	t.won = true
}
