package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"school-service/pkg/sl"
)

type ChatHandler interface {
	HandleIncomingMessage(ctx context.Context, text, lineID string) string
}

type EventSource interface {
	ParseWebhook(r *http.Request) ([]*linebot.Event, error)
	Reply(ctx context.Context, replyToken, text string) error
}

// New handles the LINE webhook: each text message event is run through the
// chat command handler and answered with its reply. Non-text events are
// ignored.
func New(log *slog.Logger, events EventSource, chat ChatHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.webhook.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		parsed, err := events.ParseWebhook(r)
		if err != nil {
			if errors.Is(err, linebot.ErrInvalidSignature) {
				log.Warn("Rejected webhook with invalid signature")
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			log.Error("Failed to parse webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		for _, event := range parsed {
			if event.Type != linebot.EventTypeMessage {
				continue
			}

			message, ok := event.Message.(*linebot.TextMessage)
			if !ok {
				continue
			}

			reply := chat.HandleIncomingMessage(r.Context(), message.Text, event.Source.UserID)

			if err := events.Reply(r.Context(), event.ReplyToken, reply); err != nil {
				log.Error("Failed to reply", sl.Err(err))
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
