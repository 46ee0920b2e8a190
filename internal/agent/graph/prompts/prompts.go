package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
)

//go:embed template/companion_prompt.txt
var companionSystemPrompt string

//go:embed template/triage_prompt.txt
var triageUserPrompt string

// triageSystemPrompt pins the output contract for the rating call.
const triageSystemPrompt = "You output only a single digit 1-5."

// RenderCompanionSystem renders the empathetic system prompt via the Eino
// prompt component. This triggers Prompt callbacks and returns the final
// system prompt string.
func RenderCompanionSystem(ctx context.Context, cfg model.CompanionPromptConfig) (string, error) {
	words := cfg.MaxReplyWords
	if words <= 0 {
		words = 150
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(companionSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"MaxReplyWords": words,
	})
	if err != nil {
		return "", fmt.Errorf("companion prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("companion prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderTriage renders the two-message rating context for one user text.
// The user text is interpolated as a template variable, never parsed as
// template source.
func RenderTriage(ctx context.Context, userText string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(triageSystemPrompt),
		schema.UserMessage(triageUserPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Message": userText,
	})
	if err != nil {
		return nil, fmt.Errorf("triage prompt render: %w", err)
	}
	if len(msgs) < 2 {
		return nil, fmt.Errorf("triage prompt render: incomplete result")
	}
	return msgs, nil
}
