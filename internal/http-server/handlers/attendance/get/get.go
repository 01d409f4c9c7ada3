package get

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

type BoardGetter interface {
	GetAttendance(ctx context.Context, classID, date, startTime, endTime string) (*api.AttendanceBoardResponse, error)
}

func New(log *slog.Logger, getter BoardGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		classID := r.URL.Query().Get("class_id")
		date := r.URL.Query().Get("date")
		startTime := r.URL.Query().Get("start_time")
		endTime := r.URL.Query().Get("end_time")

		if classID == "" || date == "" || startTime == "" || endTime == "" {
			log.Error("Missing query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "class_id, date, start_time and end_time are required"))
			return
		}

		board, err := getter.GetAttendance(r.Context(), classID, date, startTime, endTime)
		if err != nil {
			log.Error("Failed to get attendance board", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get attendance"))
			return
		}

		log.Info("Attendance board retrieved", slog.Int("students", len(board.Students)))

		render.JSON(w, r, board)
	}
}
