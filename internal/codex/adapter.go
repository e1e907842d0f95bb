// Package codex adapts the Codex CLI JSONL stream.
package codex

import (
	"encoding/json"
	"strings"

	"github.com/hugentobler/ralph/internal/model"
)

// EventType values observed in Codex JSONL streams.
const (
	EventItemStarted   = "item.started"
	EventItemUpdated   = "item.updated"
	EventItemCompleted = "item.completed"
)

// Item kinds carried by item events.
const (
	ItemKindAssistantMessage = "assistant_message"
	ItemKindAgentMessage     = "agent_message"
	ItemKindMessage          = "message"
	ItemKindWorking          = "working"
)

func init() {
	model.RegisterCodexAdapter(func() model.Adapter { return &Adapter{} })
}

// Adapter extracts assistant text from Codex item.completed events.
// Codex emits a single terminal event per logical message, so the adapter
// is stateless.
type Adapter struct{}

type event struct {
	Type string `json:"type"`
	Item item   `json:"item"`
}

type item struct {
	Type     string          `json:"type"`
	ItemType string          `json:"item_type"`
	Role     string          `json:"role"`
	Text     string          `json:"text"`
	Content  json.RawMessage `json:"content"`
}

// Extract returns the assistant text carried by an item.completed event.
// item.started and item.updated carry partial state and are never extracted.
func (a *Adapter) Extract(line []byte) (model.Fragment, bool) {
	var evt event
	if err := json.Unmarshal(line, &evt); err != nil {
		return model.Fragment{}, false
	}
	if evt.Type != EventItemCompleted {
		return model.Fragment{}, false
	}
	if !isAssistantItem(evt.Item) {
		return model.Fragment{}, false
	}

	text := evt.Item.Text
	if strings.TrimSpace(text) == "" {
		text = model.JoinBlockText(evt.Item.Content, false, "text", "content")
	}
	if text == "" {
		return model.Fragment{}, false
	}

	return model.Fragment{
		Role:     model.RoleAssistant,
		Category: evt.Type,
		Text:     text,
	}, true
}

// ExcludeFromLog reports Codex log noise; Codex streams have none, every
// decoded event reaches the raw log.
func (a *Adapter) ExcludeFromLog(string) bool { return false }

// Sniff reports whether category belongs to the Codex wire format.
func (a *Adapter) Sniff(category string) bool {
	return strings.HasPrefix(category, "item.")
}

// isAssistantItem reports whether the item carries an assistant message.
// The effective kind is item_type, falling back to type, falling back to
// "working".
func isAssistantItem(it item) bool {
	kind := it.ItemType
	if kind == "" {
		kind = it.Type
	}
	if kind == "" {
		kind = ItemKindWorking
	}

	switch kind {
	case ItemKindAssistantMessage, ItemKindAgentMessage:
		return true
	case ItemKindMessage:
		return it.Role == string(model.RoleAssistant)
	default:
		return false
	}
}
