package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/api"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type HomeworkLister interface {
	ListHomework(ctx context.Context, classID string) ([]api.HomeworkItem, error)
}

type Response struct {
	response.Response
	HomeworkList []api.HomeworkItem `json:"homeworkList"`
}

func New(log *slog.Logger, lister HomeworkLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.homework.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		classID := chi.URLParam(r, "id")
		if classID == "" {
			log.Error("class id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "class id is required"))
			return
		}

		list, err := lister.ListHomework(r.Context(), classID)
		if err != nil {
			log.Error("Failed to list homework", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list homework"))
			return
		}

		log.Info("Homework listed", slog.Int("count", len(list)))

		if list == nil {
			list = []api.HomeworkItem{}
		}

		render.JSON(w, r, Response{HomeworkList: list})
	}
}
