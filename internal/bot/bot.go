// internal/bot/bot.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/model"
	"github-trending-notifier/internal/notifier"
	"github-trending-notifier/internal/syncer"
)

const pollTimeout = 60

const usage = "Available commands:\n" +
	"/daily - daily trending repositories\n" +
	"/weekly - weekly trending repositories\n" +
	"/monthly - monthly trending repositories\n" +
	"/language <name> - daily trending repositories for a language"

// API is the part of *tgbotapi.BotAPI used by the bot.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Collector is satisfied by *syncer.Syncer.
type Collector interface {
	Collect(ctx context.Context, period, language string) (syncer.Result, error)
}

// Bot answers chat commands with trending digests.
type Bot struct {
	api             API
	collector       Collector
	digestSize      int
	defaultLanguage string
	logger          *slog.Logger
}

// New creates a new Bot. Period commands without an argument use defaultLanguage.
func New(api API, collector Collector, digestSize int, defaultLanguage string, logger *slog.Logger) *Bot {
	if digestSize <= 0 {
		digestSize = notifier.DefaultDigestSize
	}
	return &Bot{
		api:             api,
		collector:       collector,
		digestSize:      digestSize,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// Run long-polls for updates until ctx is cancelled, then stops polling and
// waits for in-flight commands.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot is polling for commands")
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot shutting down", "reason", ctx.Err())
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil || !msg.IsCommand() {
				continue
			}

			chatID := msg.Chat.ID
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handle(ctx, b.replier(chatID), msg.Command(), msg.CommandArguments())
			}()
		}
	}
}

func (b *Bot) replier(chatID int64) func(string) error {
	return func(text string) error {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.DisableWebPagePreview = true
		_, err := b.api.Send(msg)
		return err
	}
}

// handle executes one command. Every command gets at least one reply.
func (b *Bot) handle(ctx context.Context, reply func(string) error, command, args string) {
	command = strings.ToLower(command)
	args = strings.TrimSpace(args)
	logger := b.logger.With("command", command, "args", args)

	var period model.Period
	language := args
	switch command {
	case "daily":
		period = model.Daily
	case "weekly":
		period = model.Weekly
	case "monthly":
		period = model.Monthly
	case "language":
		period = model.Daily
	case "start", "help":
		b.send(logger, reply, usage)
		return
	default:
		b.send(logger, reply, fmt.Sprintf("Unknown command /%s.\n\n%s", command, usage))
		return
	}
	if language == "" && command != "language" {
		language = b.defaultLanguage
	}

	b.send(logger, reply, notifier.ProgressMessage(period, language))

	res, err := b.collector.Collect(ctx, period.String(), language)
	var languageErr *custom_errors.ErrInvalidLanguage
	switch {
	case err == nil:
	case errors.As(err, &languageErr):
		b.send(logger, reply, fmt.Sprintf("Unknown language %q. No %s trending repositories fetched.", languageErr.Language, period))
		return
	default:
		// Persist failures still return the fetched records.
		logger.Error("Command run failed", "error", err)
		if len(res.Records) == 0 {
			b.send(logger, reply, fmt.Sprintf("Failed to fetch %s trending repositories for %s.", period, model.LanguageLabel(language)))
			return
		}
	}

	b.send(logger, reply, notifier.FormatDigest(period, language, res.Records, b.digestSize))
}

func (b *Bot) send(logger *slog.Logger, reply func(string) error, text string) {
	if err := reply(text); err != nil {
		logger.Error("Failed to send reply", "error", err)
	}
}
