package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"

	"github.com/Freeeeeet/slotswap/internal/model"
)

// ChatDirectory resolves a user id to a profile carrying the linked
// Telegram chat id, if any.
type ChatDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// TelegramSink sends a short text message to users who linked a Telegram
// account. Users without a linked chat are silently skipped.
type TelegramSink struct {
	bot   *bot.Bot
	users ChatDirectory
}

func NewTelegramSink(b *bot.Bot, users ChatDirectory) *TelegramSink {
	return &TelegramSink{bot: b, users: users}
}

func (s *TelegramSink) Deliver(ctx context.Context, msg Message) error {
	user, err := s.users.GetByID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("resolve chat: %w", err)
	}
	if user == nil || user.TelegramChatID == nil {
		return nil
	}

	text := messageText(msg)
	if text == "" {
		return nil
	}

	_, err = s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func messageText(msg Message) string {
	switch msg.Event {
	case EventSwapIncoming:
		return "You have a new incoming swap request."
	case EventSwapUpdate:
		if p, ok := msg.Payload.(SwapUpdatePayload); ok {
			switch model.SwapStatus(p.Status) {
			case model.SwapStatusAccepted:
				return "Your slot swap was accepted. The slots have changed owners."
			case model.SwapStatusRejected:
				return "Your slot swap was rejected."
			}
		}
		return "One of your swap requests was updated."
	}
	return ""
}
