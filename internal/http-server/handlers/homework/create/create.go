package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"school-service/api"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type HomeworkCreator interface {
	CreateHomework(ctx context.Context, req *api.CreateHomeworkRequest) (string, error)
}

type Response struct {
	response.Response
	Message    string `json:"message,omitempty"`
	HomeworkID string `json:"homework_id,omitempty"`
}

func New(log *slog.Logger, creator HomeworkCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.homework.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.CreateHomeworkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		homeworkID, err := creator.CreateHomework(r.Context(), &req)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Class not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "class not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create homework", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create homework"))
			return
		}

		log.Info("Homework created", slog.String("homework_id", homeworkID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Message:    "Homework created",
			HomeworkID: homeworkID,
		})
	}
}
