package triage

import (
	"context"
	"regexp"
	"strconv"

	"github.com/cloudwego/eino/schema"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph/prompts"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
	"github.com/xsharmas/Brainhealer-bot/internal/router"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// NeutralLevel is reported when the rating call fails or returns nothing
// usable. It assumes no elevated distress rather than over-triggering the
// breathing suggestion.
const NeutralLevel = 1

// SuggestionThreshold is the stress level at and above which a breathing
// suggestion rides along with the primary reply.
const SuggestionThreshold = 3

// Dispatcher is the slice of the failover dispatcher the scorer needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, messages []*schema.Message, opts router.CompletionOptions) (router.Result, error)
}

// Scorer rates the emotional distress of one message on a 1-5 scale
// through the shared model pool, competing for the same health-tracked
// models as the primary reply.
type Scorer struct {
	dispatcher Dispatcher
	cfg        model.TriageModelConfig
}

// NewScorer creates a scorer over the shared dispatcher.
func NewScorer(dispatcher Dispatcher, cfg model.TriageModelConfig) *Scorer {
	return &Scorer{dispatcher: dispatcher, cfg: cfg}
}

// Score returns the stress rating for userText. Failures never propagate:
// an unreachable pool or an unreadable reply scores NeutralLevel.
func (s *Scorer) Score(ctx context.Context, userText, userID string) int {
	msgs, err := prompts.RenderTriage(ctx, userText)
	if err != nil {
		logx.Warn().Err(err).Msg("Triage prompt render failed; defaulting stress level")
		return NeutralLevel
	}

	res, err := s.dispatcher.Dispatch(ctx, msgs, router.CompletionOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		User:        userID,
	})
	if err != nil {
		logx.Warn().Err(err).Str("user_id", userID).Msg("Stress rating call failed; defaulting stress level")
		return NeutralLevel
	}

	level, ok := ParseStressLevel(res.Reply)
	if !ok {
		logx.Warn().Str("reply", res.Reply).Msg("Unreadable stress rating; defaulting stress level")
		return NeutralLevel
	}
	return level
}

var digitRun = regexp.MustCompile(`\d+`)

// ParseStressLevel extracts the first in-range integer from a rating reply.
// Replies like "4", "Level: 4" or "4/5" resolve to 4; out-of-range runs
// such as "12" are skipped.
func ParseStressLevel(reply string) (int, bool) {
	for _, run := range digitRun.FindAllString(reply, -1) {
		n, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		if n >= 1 && n <= 5 {
			return n, true
		}
	}
	return 0, false
}
