// Package claude adapts the Claude Code JSONL stream.
package claude

import (
	"encoding/json"
	"strings"

	"github.com/hugentobler/ralph/internal/model"
)

// EventType values observed in Claude Code JSONL streams.
const (
	EventAssistant = "assistant"
	EventUser      = "user"
	EventSystem    = "system"
	EventResult    = "result"
)

func init() {
	model.RegisterClaudeAdapter(func() model.Adapter { return &Adapter{} })
}

// Adapter extracts assistant text from Claude Code assistant events.
// Claude streams partial updates for the same logical message, so every
// extracted fragment is also appended to a running accumulator; the
// completion sentinel may only become visible in the joined text.
type Adapter struct {
	accumulated strings.Builder
}

type event struct {
	Type    string  `json:"type"`
	Message message `json:"message"`
}

type message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Extract returns the text blocks of an assistant event, newline-joined.
// user and system events are never inspected.
func (a *Adapter) Extract(line []byte) (model.Fragment, bool) {
	var evt event
	if err := json.Unmarshal(line, &evt); err != nil {
		return model.Fragment{}, false
	}
	if evt.Type != EventAssistant {
		return model.Fragment{}, false
	}

	text := model.JoinBlockText(evt.Message.Content, true, "text")
	if text == "" {
		return model.Fragment{}, false
	}

	a.accumulated.WriteString(text)
	a.accumulated.WriteString("\n")

	return model.Fragment{
		Role:        model.RoleAssistant,
		Category:    evt.Type,
		Text:        text,
		Accumulated: a.accumulated.String(),
	}, true
}

// ExcludeFromLog reports Claude log noise; Claude streams have none.
func (a *Adapter) ExcludeFromLog(string) bool { return false }

// Sniff reports whether category belongs to the Claude wire format.
func (a *Adapter) Sniff(category string) bool {
	switch category {
	case EventAssistant, EventUser, EventSystem, EventResult:
		return true
	default:
		return false
	}
}
