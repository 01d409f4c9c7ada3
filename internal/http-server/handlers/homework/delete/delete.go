package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type HomeworkDeleter interface {
	DeleteHomework(ctx context.Context, homeworkID string) error
}

type Response struct {
	response.Response
	Message string `json:"message,omitempty"`
}

func New(log *slog.Logger, deleter HomeworkDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.homework.delete.New"

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

		err := deleter.DeleteHomework(r.Context(), homeworkID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Homework not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "homework not found"))
			return
		}

		if err != nil {
			log.Error("Failed to delete homework", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete homework"))
			return
		}

		log.Info("Homework deleted", slog.String("homework_id", homeworkID))

		render.JSON(w, r, Response{Message: "Homework deleted"})
	}
}
