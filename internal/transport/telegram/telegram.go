package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/xsharmas/Brainhealer-bot/internal/agent/graph"
	"github.com/xsharmas/Brainhealer-bot/internal/agent/model"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// Config carries the Telegram transport settings.
type Config struct {
	Token         string `envconfig:"TELEGRAM_TOKEN" required:"true"`
	UpdateTimeout int    `envconfig:"TELEGRAM_UPDATE_TIMEOUT" default:"30"`
}

const greeting = "💚 Hi! I'm your Mental Health Companion.\n\n" +
	"Feel free to share how you're feeling today.\n\n" +
	"⚠️ I'm an AI, not a replacement for professional help.\n\n" +
	"Commands:\n" +
	"/start - Restart\n" +
	"/clear - Clear history"

const clearedReply = "✅ Conversation cleared! Fresh start 💚"

// Bot polls Telegram for updates and forwards each text message through the
// companion pipeline.
type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    Config
	runner graph.Runner
	log    zerolog.Logger
}

// NewBot authenticates against the Telegram Bot API.
func NewBot(cfg Config, runner graph.Runner) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:    api,
		cfg:    cfg,
		runner: runner,
		log:    logx.Component("telegram"),
	}, nil
}

// Run long-polls for updates until ctx is cancelled. Each update is handled
// on its own goroutine so one slow model walk never blocks other users.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().Str("username", b.api.Self.UserName).Msg("Telegram bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, userID)
		return
	}

	b.sendTyping(msg.Chat.ID)
	reply := b.runner.HandleUserMessage(ctx, model.IncomingMessage{
		UserID: userID,
		Text:   msg.Text,
	})
	b.send(msg.Chat.ID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID string) {
	switch msg.Command() {
	case "start":
		b.send(msg.Chat.ID, model.OutboundReply{Text: greeting})
	case "clear":
		if err := b.runner.ResetConversation(ctx, userID); err != nil {
			b.log.Error().Err(err).Str("user_id", userID).Msg("Failed to reset conversation")
			return
		}
		b.send(msg.Chat.ID, model.OutboundReply{Text: clearedReply})
	default:
		b.log.Debug().Str("command", msg.Command()).Msg("Ignoring unknown command")
	}
}

func (b *Bot) send(chatID int64, reply model.OutboundReply) {
	out := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		out.ParseMode = tgbotapi.ModeMarkdown
	}
	if reply.Suggestion != nil {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL(reply.Suggestion.Label, reply.Suggestion.URL),
			),
		)
	}
	if _, err := b.api.Send(out); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(action); err != nil {
		b.log.Debug().Err(err).Int64("chat_id", chatID).Msg("Failed to send typing action")
	}
}
