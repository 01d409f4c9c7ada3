package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"school-service/api"
	"school-service/internal/auth"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type SubjectLister interface {
	ListSubjects(ctx context.Context, userID string) ([]api.YearGroup, error)
}

func New(log *slog.Logger, lister SubjectLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subjects.get.New"

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

		groups, err := lister.ListSubjects(r.Context(), claims.UserID)
		if err != nil {
			log.Error("Failed to list subjects", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list subjects"))
			return
		}

		log.Info("Subjects listed", slog.Int("groups", len(groups)))

		render.JSON(w, r, groups)
	}
}
