package telegram

import (
	"context"
	"errors"
	"fmt"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

const (
	HeadlineManual    = "🚨 Novo edital encontrado!"
	HeadlineScheduled = "🚨 Novo edital CABO + TI!"
)

// ChatSink delivers each notice as its own message to a single chat.
type ChatSink struct {
	client   *Client
	chatID   string
	headline string
}

var _ ports.NoticeSink = (*ChatSink)(nil)

// NewChatSink binds a chat; an empty headline falls back to HeadlineManual.
func NewChatSink(client *Client, chatID, headline string) *ChatSink {
	if headline == "" {
		headline = HeadlineManual
	}
	return &ChatSink{client: client, chatID: chatID, headline: headline}
}

// Deliver keeps sending after a failed message and reports every failure.
func (s *ChatSink) Deliver(ctx context.Context, notices []domain.Notice) error {
	var errs []error
	for _, notice := range notices {
		if err := s.client.SendMessage(ctx, s.chatID, FormatNotice(s.headline, notice)); err != nil {
			errs = append(errs, fmt.Errorf("send %s: %w", notice.Link, err))
		}
	}
	return errors.Join(errs...)
}

// FormatNotice renders the chat message for one notice.
func FormatNotice(headline string, notice domain.Notice) string {
	return fmt.Sprintf("%s\n\n📄 %s\n🔗 %s", headline, notice.Title, notice.Link)
}
