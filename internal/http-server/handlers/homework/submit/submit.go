package submit

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

type HomeworkSubmitter interface {
	SubmitHomework(ctx context.Context, req *api.SubmitHomeworkRequest) error
}

type Response struct {
	response.Response
	Message    string `json:"message,omitempty"`
	HomeworkID string `json:"homework_id,omitempty"`
}

func New(log *slog.Logger, submitter HomeworkSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.homework.submit.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.SubmitHomeworkRequest

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

		err := submitter.SubmitHomework(r.Context(), &req)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid status entries", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "invalid status entries"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Homework not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "homework not found"))
			return
		}

		if err != nil {
			log.Error("Failed to save homework submissions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to save homework submissions"))
			return
		}

		log.Info("Homework submissions saved", slog.String("homework_id", req.HomeworkID))

		render.JSON(w, r, Response{
			Message:    "Homework submission saved",
			HomeworkID: req.HomeworkID,
		})
	}
}
