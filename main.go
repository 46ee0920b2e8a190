package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/repo"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/safety"
	"github.com/xsharmas/Brainhealer-bot/internal/core"
	"github.com/xsharmas/Brainhealer-bot/internal/router"
	"github.com/xsharmas/Brainhealer-bot/internal/transport/telegram"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// AppConfig defines all configurable parameters for the bot, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	OpenRouter router.Config
	Telegram   telegram.Config

	// Agent configs
	Response     model.ResponseModelConfig
	Triage       model.TriageModelConfig
	Prompt       model.CompanionPromptConfig
	Conversation model.ConversationConfig
	Safety       model.SafetyConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: envCfg.Environment})

	refreshEvery, err := time.ParseDuration(envCfg.OpenRouter.RefreshInterval)
	if err != nil {
		log.Fatalf("Invalid MODEL_REFRESH_INTERVAL '%s': %v", envCfg.OpenRouter.RefreshInterval, err)
	}

	gate, err := safety.NewGate(envCfg.Safety.RulesPath)
	if err != nil {
		log.Fatalf("Failed to load crisis rules: %v", err)
	}

	// ====================================================
	// Model pool: catalog + health tracking + failover dispatch
	tracker := router.NewTracker(
		envCfg.OpenRouter.FailureThreshold,
		time.Duration(envCfg.OpenRouter.CooldownSeconds)*time.Second,
	)
	pool := router.NewPool(router.NewCatalogClient(envCfg.OpenRouter), tracker)
	pool.Bootstrap(ctx)
	pool.StartRefresh(ctx, refreshEvery)

	dispatcher := router.NewDispatcher(
		pool,
		router.NewClient(envCfg.OpenRouter),
		time.Duration(envCfg.OpenRouter.RequestTimeout)*time.Second,
	)

	runner, err := graph.BuildCompanionGraph(ctx, graph.Config{
		Dispatcher:    dispatcher,
		Gate:          gate,
		Store:         repo.NewMemoryConversationStore(envCfg.Conversation),
		ResponseModel: envCfg.Response,
		TriageModel:   envCfg.Triage,
		Prompt:        envCfg.Prompt,
		Suggestion: model.Suggestion{
			Label: "🌸 Breathing Exercise",
			URL:   envCfg.Safety.BreathingPageURL,
		},
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	bot, err := telegram.NewBot(envCfg.Telegram, runner)
	if err != nil {
		log.Fatalf("Failed to initialise Telegram bot: %v", err)
	}

	fmt.Printf("Loaded %d models to cycle through\n", pool.Size())

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot stopped: %v", err)
	}

	logx.Info().Msg("Shutdown complete")
}
