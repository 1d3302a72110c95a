package telegram

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

type Client struct {
	bot *telego.Bot
}

func NewClient(token string, opts ...telego.BotOption) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Client{bot: bot}, nil
}

func (c *Client) GetMe(ctx context.Context) (*telego.User, error) {
	if c == nil || c.bot == nil {
		return nil, fmt.Errorf("telegram client not initialized")
	}
	return c.bot.GetMe(ctx)
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *telego.InlineKeyboardMarkup) error {
	if c == nil || c.bot == nil {
		return fmt.Errorf("telegram client not initialized")
	}

	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if keyboard != nil {
		msg = msg.WithReplyMarkup(keyboard)
	}

	_, err := c.bot.SendMessage(ctx, msg)
	return err
}
