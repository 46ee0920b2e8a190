package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph/conversations"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph/nodes"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph/observers"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/safety"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/triage"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled pipeline with the public
// message types. Transports talk to this and nothing below it.
type Runner interface {
	HandleUserMessage(ctx context.Context, in model.IncomingMessage) model.OutboundReply
	ResetConversation(ctx context.Context, userID string) error
}

// Config holds everything needed to compose the full companion pipeline
// end-to-end. This is a convenience layer over GraphConfig that also
// constructs the conversation manager and triage scorer.
type Config struct {
	Dispatcher    nodes.Dispatcher
	Gate          *safety.Gate
	Store         model.ConversationStore
	ResponseModel model.ResponseModelConfig
	TriageModel   model.TriageModelConfig
	Prompt        model.CompanionPromptConfig
	Suggestion    model.Suggestion
}

// GraphConfig holds all configuration needed to build the pipeline graph
type GraphConfig struct {
	Manager       *conversations.Manager
	Gate          *safety.Gate
	Dispatcher    nodes.Dispatcher
	Scorer        *triage.Scorer
	ResponseModel model.ResponseModelConfig
	Prompt        model.CompanionPromptConfig
	Suggestion    model.Suggestion
}

// GraphBuilder handles the construction of the companion pipeline graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.IncomingMessage, model.OutboundReply]
}

type pipelineRunner struct {
	runnable compose.Runnable[model.IncomingMessage, model.OutboundReply]
	manager  *conversations.Manager
}

func (r *pipelineRunner) HandleUserMessage(ctx context.Context, in model.IncomingMessage) model.OutboundReply {
	out, err := r.runnable.Invoke(ctx, model.IncomingMessage{
		UserID: in.UserID,
		Text:   in.Text,
	}, compose.WithCallbacks(observers.NewPipelineCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("user_id", in.UserID).Msg("Pipeline invocation failed")
		return model.OutboundReply{Text: nodes.FallbackReply}
	}
	return out
}

func (r *pipelineRunner) ResetConversation(ctx context.Context, userID string) error {
	return r.manager.Reset(ctx, userID)
}

// BuildCompanionGraph composes the conversation manager and triage scorer,
// builds the graph, and returns a Runner.
func BuildCompanionGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is nil")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("safety gate is nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("conversation store is nil")
	}

	mm := conversations.NewManager(cfg.Store)
	scorer := triage.NewScorer(cfg.Dispatcher, cfg.TriageModel)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Manager:       mm,
		Gate:          cfg.Gate,
		Dispatcher:    cfg.Dispatcher,
		Scorer:        scorer,
		ResponseModel: cfg.ResponseModel,
		Prompt:        cfg.Prompt,
		Suggestion:    cfg.Suggestion,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Companion pipeline built successfully")
	return &pipelineRunner{runnable: runnable, manager: mm}, nil
}

// BuildGraph constructs and returns the compiled pipeline graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.IncomingMessage, model.OutboundReply], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Gate == nil {
		return nil, fmt.Errorf("safety gate is nil")
	}
	if config.Manager == nil {
		return nil, fmt.Errorf("conversation manager is nil")
	}
	if config.Dispatcher == nil || config.Scorer == nil {
		return nil, fmt.Errorf("dispatcher/scorer are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.IncomingMessage, model.OutboundReply](
			compose.WithGenLocalState(func(ctx context.Context) *model.ChatState {
				return &model.ChatState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeCrisisGate,
		nodes.NewCrisisGateNode(b.config.Gate),
		compose.WithStatePreHandler(nodes.NewCrisisGatePreHandler()),
		compose.WithStatePostHandler(nodes.NewCrisisGatePostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeCrisisResponder,
		nodes.NewCrisisResponderNode(b.config.Gate, b.config.Suggestion),
	)

	b.graph.AddLambdaNode(nodes.NodeEmpathyResponder,
		nodes.NewEmpathyResponderNode(
			b.config.Manager,
			b.config.Dispatcher,
			b.config.Scorer,
			b.config.ResponseModel,
			b.config.Prompt,
			b.config.Suggestion,
		),
		compose.WithStatePostHandler(nodes.NewEmpathyResponderPostHandler()),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeCrisisGate},
		{nodes.NodeCrisisResponder, compose.END},
		{nodes.NodeEmpathyResponder, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	crisisBranch := compose.NewGraphBranch(
		nodes.NewCrisisCondition(),
		map[string]bool{
			nodes.NodeCrisisResponder:  true,
			nodes.NodeEmpathyResponder: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeCrisisGate, crisisBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding crisis branch")
		return fmt.Errorf("error adding crisis branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.IncomingMessage, model.OutboundReply], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
