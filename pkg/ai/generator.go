package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// Providers (OpenAI-compatible endpoints, Ollama) implement this
// interface; the extraction adapter only depends on it.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
