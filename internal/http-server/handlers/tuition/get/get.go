package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/api"
	"school-service/internal/auth"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type TuitionGetter interface {
	TuitionStatus(ctx context.Context, userID, filter string) ([]api.TuitionRow, error)
}

func New(log *slog.Logger, getter TuitionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tuition.get.New"

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

		filter := r.URL.Query().Get("status")

		rows, err := getter.TuitionStatus(r.Context(), claims.UserID, filter)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid status filter", slog.String("status", filter))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "status must be all, paid or unpaid"))
			return
		}

		if err != nil {
			log.Error("Failed to get tuition status", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get tuition status"))
			return
		}

		log.Info("Tuition status retrieved", slog.Int("students", len(rows)))

		render.JSON(w, r, rows)
	}
}
