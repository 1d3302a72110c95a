package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"unicode/utf8"

	"shiny/service/channel"
	"shiny/service/delivery"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

type MessageClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telego.InlineKeyboardMarkup) error
}

// Sender posts notifications to one Telegram chat. Channel actions become
// inline keyboard buttons.
type Sender struct {
	client     MessageClient
	chatID     int64
	openAppURL string
	logger     *slog.Logger
}

func NewSender(client MessageClient, chatID int64, openAppURL string, logger *slog.Logger) *Sender {
	return &Sender{
		client:     client,
		chatID:     chatID,
		openAppURL: openAppURL,
		logger:     logger,
	}
}

func (s *Sender) Send(ctx context.Context, msg delivery.Rendered) error {
	if s.client == nil {
		return delivery.NewPermanentError(fmt.Errorf("telegram integration not enabled"))
	}
	if s.chatID == 0 {
		return delivery.NewPermanentError(fmt.Errorf("no telegram chat configured"))
	}

	if err := s.client.SendMessage(ctx, s.chatID, FormatMessage(msg), Keyboard(msg, s.openAppURL)); err != nil {
		s.logger.Error("Failed to send telegram message", "chatID", s.chatID, "error", err)
		return err
	}
	return nil
}

func FormatMessage(msg delivery.Rendered) string {
	var b strings.Builder
	if msg.Title != "" {
		fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(msg.Title))
	}
	b.WriteString(html.EscapeString(msg.Message))
	if msg.Channel != "" && msg.Channel != channel.DefaultIdentifier {
		fmt.Fprintf(&b, "\n\n<i>#%s</i>", html.EscapeString(msg.Channel))
	}
	return b.String()
}

const maxCallbackData = 64

// Keyboard renders one button per action, in channel order. Callback data
// is "<channel>:<action>", capped at maxCallbackData bytes.
func Keyboard(msg delivery.Rendered, openAppURL string) *telego.InlineKeyboardMarkup {
	if len(msg.Actions) == 0 {
		return nil
	}

	buttons := make([]telego.InlineKeyboardButton, 0, len(msg.Actions))
	for _, a := range msg.Actions {
		label := a.Title
		if label == "" {
			label = a.Identifier
		}

		switch a.ActionType {
		case channel.ActionDestructive:
			label = "⚠️ " + label
		case channel.ActionTextReply:
			label = "✍️ " + label
		}

		button := tu.InlineKeyboardButton(label)
		if a.ActionType == channel.ActionOpenApp && openAppURL != "" {
			button = button.WithURL(openAppURL)
		} else {
			button = button.WithCallbackData(callbackData(msg.Channel, a.Identifier))
		}
		buttons = append(buttons, button)
	}

	return tu.InlineKeyboard(tu.InlineKeyboardRow(buttons...))
}

// callbackData cuts on a rune boundary; Telegram rejects invalid UTF-8.
func callbackData(channelID, actionID string) string {
	data := channelID + ":" + actionID
	if len(data) <= maxCallbackData {
		return data
	}
	end := maxCallbackData
	for end > 0 && !utf8.RuneStart(data[end]) {
		end--
	}
	return data[:end]
}
