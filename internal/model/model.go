// Package model provides the shared vocabulary for agent stream adapters.
package model

import "strings"

// Provider identifies the agent wire format being consumed.
type Provider string

const (
	// ProviderCodex represents the Codex CLI JSONL stream.
	ProviderCodex Provider = "codex"
	// ProviderClaude represents the Claude Code JSONL stream.
	ProviderClaude Provider = "claude"
	// ProviderPi represents the pi JSON stream (pi --mode json).
	ProviderPi Provider = "pi"
	// ProviderUnknown disables structured extraction entirely.
	ProviderUnknown Provider = "unknown"
)

// ParseProvider normalizes a provider name. Unrecognized or empty values
// map to ProviderUnknown rather than erroring.
func ParseProvider(value string) Provider {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "codex":
		return ProviderCodex
	case "claude":
		return ProviderClaude
	case "pi":
		return ProviderPi
	default:
		return ProviderUnknown
	}
}

// Role is the normalized author of a text fragment.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleOther     Role = "other"
)

// Fragment is one unit of text extracted from a decoded stream event.
// Accumulated is set only by adapters that join partial updates; it carries
// the full text seen so far across the stream.
type Fragment struct {
	Role        Role
	Category    string // originating event "type" value
	Text        string
	Accumulated string
}
