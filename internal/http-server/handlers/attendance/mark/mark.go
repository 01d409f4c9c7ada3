package mark

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

type AttendanceMarker interface {
	MarkAttendance(ctx context.Context, req *api.MarkAttendanceRequest) (string, error)
}

type Response struct {
	response.Response
	Message      string `json:"message,omitempty"`
	AttendanceID string `json:"attendance_id,omitempty"`
}

func New(log *slog.Logger, marker AttendanceMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.mark.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.MarkAttendanceRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		attendanceID, err := marker.MarkAttendance(r.Context(), &req)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid status entries", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "invalid status entries"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Class or student not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to mark attendance", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to mark attendance"))
			return
		}

		log.Info("Attendance saved", slog.String("attendance_id", attendanceID))

		render.JSON(w, r, Response{
			Message:      "Attendance saved",
			AttendanceID: attendanceID,
		})
	}
}
