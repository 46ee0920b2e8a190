package triage

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
	"github.com/xsharmas/Brainhealer-bot/internal/router"
)

// stubDispatcher returns one canned result and captures what the scorer
// asked for.
type stubDispatcher struct {
	reply string
	err   error

	gotMessages []*schema.Message
	gotOpts     router.CompletionOptions
}

func (s *stubDispatcher) Dispatch(ctx context.Context, messages []*schema.Message, opts router.CompletionOptions) (router.Result, error) {
	s.gotMessages = messages
	s.gotOpts = opts
	if s.err != nil {
		return router.Result{}, s.err
	}
	return router.Result{Reply: s.reply, Model: "stub-model", Attempts: 1}, nil
}

func TestParseStressLevel(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  int
		ok    bool
	}{
		{"bare_digit", "4", 4, true},
		{"lowest", "1", 1, true},
		{"highest", "5", 5, true},
		{"padded", "  3  ", 3, true},
		{"labelled", "Level: 4", 4, true},
		{"fraction", "4/5", 4, true},
		{"sentence", "I would rate this a 2.", 2, true},
		{"out_of_range_run_skipped", "10 out of 10, distress is 4", 4, true},
		{"zero_rejected", "0", 0, false},
		{"six_rejected", "6", 0, false},
		{"long_run_rejected", "12", 0, false},
		{"no_digits", "I cannot rate this message.", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStressLevel(tt.reply)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScorer_ScoreUsesTriageBudgetAndPrompt(t *testing.T) {
	d := &stubDispatcher{reply: "4"}
	s := NewScorer(d, model.TriageModelConfig{MaxTokens: 3, Temperature: 0})

	level := s.Score(context.Background(), `I feel "numb" today`, "user-7")
	require.Equal(t, 4, level)

	assert.Equal(t, 3, d.gotOpts.MaxTokens)
	assert.Zero(t, d.gotOpts.Temperature)
	assert.Equal(t, "user-7", d.gotOpts.User)

	require.Len(t, d.gotMessages, 2)
	assert.Equal(t, schema.System, d.gotMessages[0].Role)
	assert.Equal(t, "You output only a single digit 1-5.", d.gotMessages[0].Content)
	assert.Equal(t, schema.User, d.gotMessages[1].Role)
	assert.Contains(t, d.gotMessages[1].Content, "Rate emotional distress 1-5")
	assert.Contains(t, d.gotMessages[1].Content, `Message: "I feel "numb" today"`)
}

func TestScorer_ScoreDefaultsOnDispatchFailure(t *testing.T) {
	d := &stubDispatcher{err: router.ErrPoolExhausted}
	s := NewScorer(d, model.TriageModelConfig{MaxTokens: 3})

	level := s.Score(context.Background(), "rough week", "user-7")
	require.Equal(t, NeutralLevel, level, "an unreachable pool must not fake elevated distress")
}

func TestScorer_ScoreDefaultsOnUnreadableReply(t *testing.T) {
	d := &stubDispatcher{reply: "As an AI, I prefer not to put a number on feelings."}
	s := NewScorer(d, model.TriageModelConfig{MaxTokens: 3})

	level := s.Score(context.Background(), "rough week", "user-7")
	require.Equal(t, NeutralLevel, level)
}
