package options

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/api"
	"school-service/internal/auth"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type OptionsGetter interface {
	HistoryOptions(ctx context.Context, userID string) (*api.HistoryOptionsResponse, error)
}

func New(log *slog.Logger, getter OptionsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.options.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing caller identity"))
			return
		}

		opts, err := getter.HistoryOptions(r.Context(), claims.UserID)
		if err != nil {
			log.Error("Failed to get history options", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get history options"))
			return
		}

		log.Info("History options retrieved", slog.Int("subjects", len(opts.Subjects)))

		render.JSON(w, r, opts)
	}
}
