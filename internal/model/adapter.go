// Package model provides the shared vocabulary for agent stream adapters.
package model

// Adapter maps decoded events from one agent wire format to text fragments.
// Implementations may keep per-stream state (the Claude adapter accumulates
// partial updates), so one Adapter instance serves exactly one stream.
type Adapter interface {
	// Extract decodes one JSON line and returns the assistant text it
	// carries. It returns false for events of other categories, other
	// roles, or events with no usable text.
	Extract(line []byte) (Fragment, bool)

	// ExcludeFromLog reports whether events of the given category are
	// provider noise that must not reach the raw log.
	ExcludeFromLog(category string) bool

	// Sniff reports whether an event category identifies this adapter's
	// wire format. Used only for first-event provider detection.
	Sniff(category string) bool
}
