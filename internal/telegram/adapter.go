package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/taskwing/internal/gateway"
	"github.com/user/taskwing/internal/types"
)

const maxTelegramMessage = 4096

// Adapter bridges Telegram to the gateway: updates become inbound events,
// command replies go back to the originating chat.
type Adapter struct {
	bot     *tgbotapi.BotAPI
	gateway *gateway.Gateway
}

// New creates a Telegram adapter.
func New(token string, gw *gateway.Gateway) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:     bot,
		gateway: gw,
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	inbound := &gateway.Inbound{
		Message: convertMessage(msg),
		Reply: func(response string) {
			a.sendResponse(chatID, response)
		},
	}

	if err := a.gateway.Enqueue(inbound); err != nil {
		slog.Warn("enqueue failed", "chat_id", chatID, "error", err)
		a.sendResponse(chatID, "I'm overloaded right now, please try again in a moment.")
	}
}

// convertMessage maps a Telegram message onto the internal message shape.
// Telegram message IDs are per-chat, so identity is chat-qualified.
func convertMessage(msg *tgbotapi.Message) *types.Message {
	author := msg.From.UserName
	if author == "" {
		author = msg.From.FirstName
	}
	return &types.Message{
		ID:        types.MessageID(strconv.FormatInt(msg.Chat.ID, 10) + ":" + strconv.Itoa(msg.MessageID)),
		ChannelID: types.ChannelID(msg.Chat.ID),
		Author:    author,
		Content:   msg.Text,
		At:        msg.Time(),
	}
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				slog.Error("send message failed", "chat_id", chatID, "error", err)
			}
		}
	}
}

// splitMessage chunks text to the Telegram size limit without cutting a
// UTF-8 rune in half.
func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > maxTelegramMessage {
		end := maxTelegramMessage
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == 0 {
			// Not valid UTF-8; fall back to a byte split.
			end = maxTelegramMessage
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return append(parts, text)
}
