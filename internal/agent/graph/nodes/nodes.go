package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph/conversations"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph/prompts"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/safety"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/triage"
	"github.com/xsharmas/Brainhealer-bot/internal/router"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// FallbackReply is the only text a user sees when every model in the pool
// failed for their turn.
const FallbackReply = "Sorry, something went wrong. Try /clear and send your message again."

// emptyReplyText stands in when a Completer hands back blank text; an empty
// message must never go out to the transport.
const emptyReplyText = "I'm here for you. Could you share more?"

// Dispatcher is the slice of the failover dispatcher the responder needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, messages []*schema.Message, opts router.CompletionOptions) (router.Result, error)
}

// NewCrisisGatePreHandler seeds per-invocation state before the gate runs.
func NewCrisisGatePreHandler() func(context.Context, model.IncomingMessage, *model.ChatState) (model.IncomingMessage, error) {
	return func(ctx context.Context, in model.IncomingMessage, s *model.ChatState) (model.IncomingMessage, error) {
		if s.RequestID == "" {
			s.RequestID = uuid.NewString()
		}
		s.UserID = in.UserID
		return in, nil
	}
}

// NewCrisisGateNode screens inbound text before any model is involved.
func NewCrisisGateNode(gate *safety.Gate) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.IncomingMessage) (model.ScreenedMessage, error) {
		return model.ScreenedMessage{
			UserID: in.UserID,
			Text:   in.Text,
			Crisis: gate.Scan(in.Text),
		}, nil
	})
}

// NewCrisisGatePostHandler records the gate verdict in state.
func NewCrisisGatePostHandler() func(context.Context, model.ScreenedMessage, *model.ChatState) (model.ScreenedMessage, error) {
	return func(ctx context.Context, out model.ScreenedMessage, s *model.ChatState) (model.ScreenedMessage, error) {
		s.CrisisTriggered = out.Crisis
		if out.Crisis {
			logx.Warn().
				Str("request_id", s.RequestID).
				Str("user_id", s.UserID).
				Msg("Crisis keywords detected; short-circuiting to helpline reply")
		}
		return out, nil
	}
}

// NewCrisisCondition routes a screened message to the crisis responder or
// the empathetic responder.
func NewCrisisCondition() func(context.Context, model.ScreenedMessage) (string, error) {
	return func(ctx context.Context, in model.ScreenedMessage) (string, error) {
		if in.Crisis {
			return NodeCrisisResponder, nil
		}
		return NodeEmpathyResponder, nil
	}
}

// NewCrisisResponderNode emits the fixed helpline reply. No model call and
// no history write: the exchange stays out of backend context.
func NewCrisisResponderNode(gate *safety.Gate, suggestion model.Suggestion) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ScreenedMessage) (model.OutboundReply, error) {
		sug := suggestion
		return model.OutboundReply{
			Text:       gate.Response(),
			Suggestion: &sug,
			Markdown:   true,
		}, nil
	})
}

// NewEmpathyResponderNode produces the primary empathetic reply. The stress
// rating runs concurrently with the main completion, both through the
// shared pool, and the (user, assistant) pair is committed only after a
// model answered. Every failure path collapses into a defined reply; the
// node itself never errors.
func NewEmpathyResponderNode(
	mm *conversations.Manager,
	dispatcher Dispatcher,
	scorer *triage.Scorer,
	respCfg model.ResponseModelConfig,
	promptCfg model.CompanionPromptConfig,
	suggestion model.Suggestion,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ScreenedMessage) (model.OutboundReply, error) {
		systemPrompt, err := prompts.RenderCompanionSystem(ctx, promptCfg)
		if err != nil {
			logx.Error().Err(err).Msg("Companion prompt render failed")
			return model.OutboundReply{Text: FallbackReply}, nil
		}

		messages, err := mm.BuildReplyContext(ctx, in.UserID, systemPrompt, in.Text)
		if err != nil {
			logx.Error().Err(err).Str("user_id", in.UserID).Msg("Failed to build reply context")
			return model.OutboundReply{Text: FallbackReply}, nil
		}

		levelCh := make(chan int, 1)
		go func() {
			levelCh <- scorer.Score(ctx, in.Text, in.UserID)
		}()

		res, dispatchErr := dispatcher.Dispatch(ctx, messages, router.CompletionOptions{
			MaxTokens:   respCfg.MaxTokens,
			Temperature: respCfg.Temperature,
			User:        in.UserID,
		})
		level := <-levelCh

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			s.StressLevel = level
			s.RepliedModel = res.Model
			s.Attempts = res.Attempts
			return nil
		}); err != nil {
			logx.Warn().Err(err).Msg("Failed to record dispatch outcome in state")
		}

		if dispatchErr != nil {
			logx.Error().Err(dispatchErr).Str("user_id", in.UserID).Msg("Primary dispatch failed; sending fallback reply")
			return model.OutboundReply{Text: FallbackReply}, nil
		}

		reply := strings.TrimSpace(res.Reply)
		if reply == "" {
			reply = emptyReplyText
		}

		if err := mm.CommitExchange(ctx, in.UserID, in.Text, reply); err != nil {
			logx.Error().Err(err).Str("user_id", in.UserID).Msg("Failed to persist exchange")
		}

		out := model.OutboundReply{Text: reply}
		if level >= triage.SuggestionThreshold {
			sug := suggestion
			out.Suggestion = &sug
		}
		return out, nil
	})
}

// NewEmpathyResponderPostHandler logs the assembled outcome once per turn.
func NewEmpathyResponderPostHandler() func(context.Context, model.OutboundReply, *model.ChatState) (model.OutboundReply, error) {
	return func(ctx context.Context, out model.OutboundReply, s *model.ChatState) (model.OutboundReply, error) {
		logx.Info().
			Str("request_id", s.RequestID).
			Str("user_id", s.UserID).
			Str("model", s.RepliedModel).
			Int("attempts", s.Attempts).
			Int("stress_level", s.StressLevel).
			Bool("suggestion", out.Suggestion != nil).
			Msg("Reply assembled")
		return out, nil
	}
}
