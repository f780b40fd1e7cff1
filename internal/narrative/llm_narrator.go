package narrative

import (
	"context"
	"fmt"

	"github.com/dsoto/datarun/internal/llm"
)

// LLMNarrator implements Narrator using the LLM provider.
type LLMNarrator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMNarrator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMNarrator {
	return &LLMNarrator{provider: provider, config: cfg}
}

func (n *LLMNarrator) OpenMission(ctx context.Context, tc TurnContext) (string, error) {
	ctx = llm.WithPurpose(ctx, "mission-open")
	return n.generate(ctx, buildOpeningMessage(tc, n.config))
}

func (n *LLMNarrator) ResolveAction(ctx context.Context, tc TurnContext) (string, error) {
	ctx = llm.WithPurpose(ctx, "narrative-turn")
	return n.generate(ctx, buildTurnMessage(tc, n.config))
}

func (n *LLMNarrator) generate(ctx context.Context, userMsg string) (string, error) {
	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		MaxTokens:   n.config.MaxTokens,
		Temperature: n.config.Temperature,
	}

	resp, err := n.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("LLM generation failed: %w", err)
	}

	return resp.Text, nil
}
