package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"school-service/api"
	"school-service/internal/models"
	"school-service/pkg/response"
	"school-service/pkg/sl"
)

type UserLogin interface {
	Login(ctx context.Context, req *api.LoginRequest) (*models.User, error)
}

type Response struct {
	response.Response
	Status string        `json:"status,omitempty"`
	Token  string        `json:"token,omitempty"`
	User   api.LoginUser `json:"user,omitzero"`
}

func New(log *slog.Logger, svc UserLogin, issue func(user *models.User) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.LoginRequest

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

		user, err := svc.Login(r.Context(), &req)
		if err != nil {
			log.Error("Failed to log in", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to log in"))
			return
		}

		token, err := issue(user)
		if err != nil {
			log.Error("Failed to issue token", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to issue token"))
			return
		}

		log.Info("User logged in", slog.String("user_id", user.UserID))

		render.JSON(w, r, Response{
			Status: "ok",
			Token:  token,
			User: api.LoginUser{
				UserID:   user.UserID,
				FullName: user.FullName,
				Email:    user.Email,
			},
		})
	}
}
