// Package model provides the shared vocabulary for agent stream adapters.
package model

import "fmt"

// AdapterFactory is a function type that creates an Adapter.
// We use this to avoid circular dependencies between model and the
// per-provider packages.
type AdapterFactory func() Adapter

var (
	codexFactory  AdapterFactory
	claudeFactory AdapterFactory
	piFactory     AdapterFactory
)

// RegisterCodexAdapter registers the Codex adapter factory.
func RegisterCodexAdapter(factory AdapterFactory) {
	codexFactory = factory
}

// RegisterClaudeAdapter registers the Claude adapter factory.
func RegisterClaudeAdapter(factory AdapterFactory) {
	claudeFactory = factory
}

// RegisterPiAdapter registers the pi adapter factory.
func RegisterPiAdapter(factory AdapterFactory) {
	piFactory = factory
}

// NewAdapter creates an adapter for the specified provider.
// ProviderUnknown yields a no-op adapter: nothing is ever extracted and
// nothing is excluded from the raw log.
func NewAdapter(provider Provider) (Adapter, error) {
	switch provider {
	case ProviderCodex:
		if codexFactory == nil {
			return nil, fmt.Errorf("codex adapter not registered")
		}
		return codexFactory(), nil
	case ProviderClaude:
		if claudeFactory == nil {
			return nil, fmt.Errorf("claude adapter not registered")
		}
		return claudeFactory(), nil
	case ProviderPi:
		if piFactory == nil {
			return nil, fmt.Errorf("pi adapter not registered")
		}
		return piFactory(), nil
	case ProviderUnknown:
		return noopAdapter{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

type noopAdapter struct{}

func (noopAdapter) Extract([]byte) (Fragment, bool) { return Fragment{}, false }
func (noopAdapter) ExcludeFromLog(string) bool      { return false }
func (noopAdapter) Sniff(string) bool               { return false }
