package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

const (
	msgHelp = "🤖 Bot SENAI Editais ativo!\n\n" +
		"Use:\n" +
		"/buscar → buscar editais agora\n" +
		"/auto → ativar busca automática (1x por dia)\n" +
		"/parar → desativar a busca automática"
	msgSearching    = "🔍 Buscando editais novos CABO + TI..."
	msgNothingNew   = "✅ Nenhum edital novo encontrado."
	msgSearchFailed = "⚠️ Não foi possível concluir a busca agora. Tente novamente mais tarde."
	msgAutoOn       = "✅ Busca automática ativada!\nO bot vai checar novos editais a cada %s."
	msgAutoFailed   = "⚠️ Não foi possível ativar a busca automática."
	msgAutoOff      = "⏹️ Busca automática desativada."
	msgAutoNotOn    = "Nenhuma busca automática ativa neste chat."

	retryDelay = 5 * time.Second
)

// Searcher is the search surface the bot drives.
type Searcher interface {
	TriggerSearch(ctx context.Context) ([]domain.Notice, error)
	RegisterRecurringSearch(ctx context.Context, subscriber string, interval, firstDelay time.Duration, sink ports.NoticeSink) error
	CancelRecurringSearch(subscriber string) bool
}

// BotDeps wires the bot to the API client and the searcher.
type BotDeps struct {
	Client       *Client
	Searcher     Searcher
	PollTimeout  time.Duration
	AutoInterval time.Duration
	AutoDelay    time.Duration
	Logger       *slog.Logger
}

// Bot answers /start, /buscar, /auto and /parar over long polling.
type Bot struct {
	client       *Client
	searcher     Searcher
	pollTimeout  time.Duration
	autoInterval time.Duration
	autoDelay    time.Duration
	logger       *slog.Logger

	offset int64
	wg     sync.WaitGroup
}

// NewBot constructs the bot front-end.
func NewBot(deps BotDeps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bot{
		client:       deps.Client,
		searcher:     deps.Searcher,
		pollTimeout:  deps.PollTimeout,
		autoInterval: deps.AutoInterval,
		autoDelay:    deps.AutoDelay,
		logger:       logger,
	}
}

// Run polls for updates until ctx is cancelled, then waits for in-flight searches.
func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()

	b.logger.Info("bot polling started")
	for {
		if ctx.Err() != nil {
			b.logger.Info("bot polling stopped")
			return nil
		}

		updates, err := b.client.GetUpdates(ctx, b.offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.logger.Warn("get updates", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= b.offset {
				b.offset = update.UpdateID + 1
			}
			b.handle(ctx, update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, update Update) {
	if update.Message == nil {
		return
	}
	command := parseCommand(update.Message.Text)
	if command == "" {
		return
	}
	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	log := b.logger.With("chat_id", chatID, "command", command)
	log.Debug("command received")

	switch command {
	case "/start", "/help":
		b.reply(ctx, log, chatID, msgHelp)
	case "/buscar":
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.search(ctx, log, chatID)
		}()
	case "/auto":
		b.enableAuto(ctx, log, chatID)
	case "/parar":
		if b.searcher.CancelRecurringSearch(subscriberKey(chatID)) {
			b.reply(ctx, log, chatID, msgAutoOff)
			return
		}
		b.reply(ctx, log, chatID, msgAutoNotOn)
	default:
		b.reply(ctx, log, chatID, msgHelp)
	}
}

func (b *Bot) search(ctx context.Context, log *slog.Logger, chatID string) {
	b.reply(ctx, log, chatID, msgSearching)

	notices, err := b.searcher.TriggerSearch(ctx)
	if err != nil {
		log.Error("search failed", "error", err)
		b.reply(ctx, log, chatID, msgSearchFailed)
		return
	}
	if len(notices) == 0 {
		b.reply(ctx, log, chatID, msgNothingNew)
		return
	}
	if err := NewChatSink(b.client, chatID, HeadlineManual).Deliver(ctx, notices); err != nil {
		log.Error("deliver notices", "error", err)
	}
}

func (b *Bot) enableAuto(ctx context.Context, log *slog.Logger, chatID string) {
	sink := NewChatSink(b.client, chatID, HeadlineScheduled)
	if err := b.searcher.RegisterRecurringSearch(ctx, subscriberKey(chatID), b.autoInterval, b.autoDelay, sink); err != nil {
		log.Error("register recurring search", "error", err)
		b.reply(ctx, log, chatID, msgAutoFailed)
		return
	}
	b.reply(ctx, log, chatID, fmt.Sprintf(msgAutoOn, humanInterval(b.autoInterval)))
}

func (b *Bot) reply(ctx context.Context, log *slog.Logger, chatID, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		log.Warn("send reply", "error", err)
	}
}

func subscriberKey(chatID string) string {
	return "telegram:" + chatID
}

// parseCommand returns the lowercased command word, dropping a @botname suffix.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	command, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(command)
}

func humanInterval(d time.Duration) string {
	if d > 0 && d%time.Hour == 0 {
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	}
	return d.String()
}
