// Package llm holds concrete Provider Port adapters (spec.md §4.1) for
// the vendor APIs the debate engine actually speaks to. Each adapter owns
// its own wire format and auth; the core never imports this package's
// types directly, only agentic_debate/pkg/core/provider.Port.
package llm
