package history

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/api"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type HistoryGetter interface {
	AttendanceHistory(ctx context.Context, classID, date string, startTime, endTime *string) (*api.AttendanceHistoryResponse, error)
}

func New(log *slog.Logger, getter HistoryGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.history.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		classID := r.URL.Query().Get("class_id")
		date := r.URL.Query().Get("date")

		if classID == "" || date == "" {
			log.Error("Missing query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "class_id and date are required"))
			return
		}

		// both bounds or neither
		var startTime, endTime *string
		if st, et := r.URL.Query().Get("start_time"), r.URL.Query().Get("end_time"); st != "" && et != "" {
			startTime, endTime = &st, &et
		}

		history, err := getter.AttendanceHistory(r.Context(), classID, date, startTime, endTime)

		if errors.Is(err, response.ErrNotFound) {
			log.Info("No attendance records found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "no attendance records found"))
			return
		}

		if err != nil {
			log.Error("Failed to get attendance history", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get attendance history"))
			return
		}

		log.Info("Attendance history retrieved", slog.Int("records", len(history.Attendance)))

		render.JSON(w, r, history)
	}
}
