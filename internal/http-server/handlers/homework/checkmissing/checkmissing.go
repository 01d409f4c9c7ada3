package checkmissing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/api"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type MissingChecker interface {
	CheckMissingHomework(ctx context.Context) (*api.SweepResult, error)
}

type Response struct {
	response.Response
	Message         string `json:"message,omitempty"`
	UpdatedCount    int    `json:"updatedCount"`
	CheckedHomework int    `json:"checkedHomework"`
}

// New triggers the homework backfill on demand, outside the scheduler.
func New(log *slog.Logger, checker MissingChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.homework.checkmissing.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := checker.CheckMissingHomework(r.Context())
		if err != nil {
			log.Error("Failed to check missing homework", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to check missing homework"))
			return
		}

		log.Info("Missing homework checked",
			slog.Int("checked", result.HomeworkChecked),
			slog.Int("updated", result.MissingMarked),
		)

		render.JSON(w, r, Response{
			Message:         "Checked and marked missing homework for past due dates",
			UpdatedCount:    result.MissingMarked,
			CheckedHomework: result.HomeworkChecked,
		})
	}
}
