package model

import (
	"encoding/json"
	"strings"
)

// JoinBlockText extracts plain text from a message content value, which may
// be a bare string or an array of content blocks. When textBlocksOnly is
// set, only blocks whose "type" is "text" are considered. On each block the
// keys are tried in order and the first non-blank string value is taken;
// blocks with no usable key are skipped. Block texts are newline-joined.
func JoinBlockText(raw json.RawMessage, textBlocksOnly bool, keys ...string) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, blockRaw := range blocks {
		// Malformed or structurally different blocks (tool payloads with
		// nested content) are skipped, never fatal.
		var block map[string]json.RawMessage
		if err := json.Unmarshal(blockRaw, &block); err != nil {
			continue
		}
		if textBlocksOnly && stringField(block, "type") != "text" {
			continue
		}
		for _, key := range keys {
			if value := stringField(block, key); strings.TrimSpace(value) != "" {
				parts = append(parts, value)
				break
			}
		}
	}

	return strings.Join(parts, "\n")
}

func stringField(block map[string]json.RawMessage, key string) string {
	raw, ok := block[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}
