package llm

import (
	"context"
	"strings"
)

// systemPrompt is the fixed instruction prepended to every expansion request.
const systemPrompt = "You are a visual scene designer AI. " +
	"Expand the following prompt with rich, detailed visual descriptions for image generation. " +
	"Take into account previous user creations ONLY WHEN THE PROMPT IS MENTIONING SOMETHING FROM PAST CREATIONS. " +
	"IMPORTANT: STICK TO THE PROMPT! DO NOT CREATE DESCRIPTIONS UNRELATED TO THE PROMPT!"

// Expander elaborates short scene prompts into detailed visual descriptions.
type Expander struct {
	completer Completer
	sampling  Sampling
}

// NewExpander creates an expander over a shared completer using DefaultSampling.
func NewExpander(completer Completer) *Expander {
	return &Expander{completer: completer, sampling: DefaultSampling}
}

// Expand asks the completer to elaborate userPrompt. When memoryContext is
// non-empty it is placed before the request so the model can draw on it.
// Errors from the completer are returned unchanged (LoadError or GenerationError).
func (x *Expander) Expand(ctx context.Context, userPrompt, memoryContext string) (string, error) {
	text, err := x.completer.Complete(ctx, BuildPrompt(userPrompt, memoryContext), x.sampling)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt renders the full completion prompt.
func BuildPrompt(userPrompt, memoryContext string) string {
	input := userPrompt
	if memoryContext != "" {
		input = memoryContext + "\nNew request: " + userPrompt
	}
	return systemPrompt + "\n\nUser: " + input + "\nAI:"
}
