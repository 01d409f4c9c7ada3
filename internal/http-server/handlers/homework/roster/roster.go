package roster

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/api"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type RosterGetter interface {
	HomeworkRoster(ctx context.Context, homeworkID string) (*api.HomeworkRosterResponse, error)
}

func New(log *slog.Logger, getter RosterGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.homework.roster.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		homeworkID := chi.URLParam(r, "id")
		if homeworkID == "" {
			log.Error("homework id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "homework id is required"))
			return
		}

		rosterResp, err := getter.HomeworkRoster(r.Context(), homeworkID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Homework not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "homework not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get homework roster", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get homework roster"))
			return
		}

		log.Info("Homework roster retrieved", slog.Int("students", len(rosterResp.Students)))

		render.JSON(w, r, rosterResp)
	}
}
