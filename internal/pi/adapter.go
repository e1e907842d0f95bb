// Package pi adapts the pi JSON event stream (pi --mode json).
package pi

import (
	"encoding/json"
	"strings"

	"github.com/hugentobler/ralph/internal/model"
)

// EventType values observed in pi JSON streams.
const (
	EventMessageStart        = "message_start"
	EventMessageUpdate       = "message_update"
	EventMessageEnd          = "message_end"
	EventToolExecutionStart  = "tool_execution_start"
	EventToolExecutionUpdate = "tool_execution_update"
	EventToolExecutionEnd    = "tool_execution_end"
)

func init() {
	model.RegisterPiAdapter(func() model.Adapter { return &Adapter{} })
}

// Adapter extracts assistant text from pi message_end events. Like Codex,
// pi emits one terminal event per logical message, so no accumulation is
// needed.
type Adapter struct{}

type event struct {
	Type    string  `json:"type"`
	Message message `json:"message"`
}

type message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Extract returns the text blocks of an assistant message_end event.
// Blocks such as thinking or toolCall are skipped, and messages from other
// roles never extract.
func (a *Adapter) Extract(line []byte) (model.Fragment, bool) {
	var evt event
	if err := json.Unmarshal(line, &evt); err != nil {
		return model.Fragment{}, false
	}
	if evt.Type != EventMessageEnd {
		return model.Fragment{}, false
	}
	if evt.Message.Role != string(model.RoleAssistant) {
		return model.Fragment{}, false
	}

	text := model.JoinBlockText(evt.Message.Content, true, "text")
	if text == "" {
		return model.Fragment{}, false
	}

	return model.Fragment{
		Role:     model.RoleAssistant,
		Category: evt.Type,
		Text:     text,
	}, true
}

// ExcludeFromLog suppresses pi's high-frequency delta events from the raw
// log; terminal events are retained.
func (a *Adapter) ExcludeFromLog(category string) bool {
	return category == EventMessageUpdate || category == EventToolExecutionUpdate
}

// Sniff reports whether category belongs to the pi wire format.
func (a *Adapter) Sniff(category string) bool {
	return strings.HasPrefix(category, "message_") ||
		strings.HasPrefix(category, "tool_execution_")
}
