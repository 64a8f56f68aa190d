package ai

import "context"

// Runtime is the interface implemented by the local LLM backends the narrative
// can be generated with.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by the llm_provider setting.
const (
	ProviderOllama   = "ollama"
	ProviderLMStudio = "lmstudio"
)

// Providers lists the registered provider names in display order.
var Providers = []string{ProviderOllama, ProviderLMStudio}
