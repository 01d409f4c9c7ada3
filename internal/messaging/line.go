package messaging

import (
	"context"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// LineMessenger wraps the LINE Messaging API client: webhook parsing,
// replies and push messages.
type LineMessenger struct {
	bot *linebot.Client
}

func NewLine(channelSecret, channelToken string) (*LineMessenger, error) {
	const op = "messaging.NewLine"

	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &LineMessenger{bot: bot}, nil
}

func (m *LineMessenger) Push(ctx context.Context, to, text string) error {
	const op = "messaging.LineMessenger.Push"

	_, err := m.bot.PushMessage(to, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *LineMessenger) Reply(ctx context.Context, replyToken, text string) error {
	const op = "messaging.LineMessenger.Reply"

	_, err := m.bot.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ParseWebhook verifies the channel signature and decodes the event
// envelope.
func (m *LineMessenger) ParseWebhook(r *http.Request) ([]*linebot.Event, error) {
	const op = "messaging.LineMessenger.ParseWebhook"

	events, err := m.bot.ParseRequest(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}
