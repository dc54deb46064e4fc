package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
)

// Classifier answers one utterance.
type Classifier interface {
	Classify(ctx context.Context, raw string) models.Classification
}

// TagSearcher lists intent tags matching a query.
type TagSearcher interface {
	SearchTags(query string) []string
}

type Bot struct {
	api        *tgbotapi.BotAPI
	classifier Classifier
	tags       TagSearcher
	logger     *zap.Logger
}

func New(token string, classifier Classifier, tags TagSearcher, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:        api,
		classifier: classifier,
		tags:       tags,
		logger:     logger,
	}, nil
}

// Start polls for updates until ctx is cancelled. Each message is handled
// on its own goroutine.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	reply := b.replyFor(ctx, message)

	msg := tgbotapi.NewMessage(message.Chat.ID, reply.text)
	msg.ReplyToMessageID = message.MessageID
	msg.ParseMode = reply.parseMode

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

type reply struct {
	text      string
	parseMode string
}

func (b *Bot) replyFor(ctx context.Context, message *tgbotapi.Message) reply {
	if message.IsCommand() {
		return b.handleCommand(message)
	}

	// Get content from message
	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if strings.TrimSpace(content) == "" {
		return reply{text: "Please send me a text message."}
	}

	result := b.classifier.Classify(ctx, content)
	b.logger.Debug("Classified message",
		zap.Int64("chat_id", message.Chat.ID),
		zap.String("tag", result.Tag),
		zap.Float64("confidence", result.Confidence))

	return reply{text: result.Response}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) reply {
	switch message.Command() {
	case "start":
		return reply{text: `Welcome! 👋
Just send me a message and I'll do my best to answer it.
Use /help to see all available commands.`}
	case "help":
		return reply{text: `Available commands:
/start - Start the bot
/help - Show this help message
/intents [query] - List the topics I know about

Anything else you send is answered directly.`}
	case "intents":
		return b.handleIntents(message.CommandArguments())
	default:
		return reply{text: "Unknown command. Use /help to see available commands."}
	}
}

func (b *Bot) handleIntents(query string) reply {
	tags := b.tags.SearchTags(query)
	if len(tags) == 0 {
		return reply{text: "I don't know any matching topics yet."}
	}

	var sb strings.Builder
	sb.WriteString("*Topics I know:*\n")
	for _, tag := range tags {
		sb.WriteString(escapeMarkdown("#" + strings.ReplaceAll(tag, " ", "_")))
		sb.WriteByte('\n')
	}
	return reply{text: sb.String(), parseMode: tgbotapi.ModeMarkdownV2}
}

var markdownEscaper = func() *strings.Replacer {
	var pairs []string
	for _, c := range `\_*[]()~` + "`" + `>#+-=|{}.!` {
		pairs = append(pairs, string(c), `\`+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

// escapeMarkdown escapes the characters MarkdownV2 reserves
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
