package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"school-service/internal/auth"
	"school-service/internal/config"
	attendanceGet "school-service/internal/http-server/handlers/attendance/get"
	attendanceHistory "school-service/internal/http-server/handlers/attendance/history"
	attendanceMark "school-service/internal/http-server/handlers/attendance/mark"
	attendanceOptions "school-service/internal/http-server/handlers/attendance/options"
	authLogin "school-service/internal/http-server/handlers/auth/login"
	homeworkCheckMissing "school-service/internal/http-server/handlers/homework/checkmissing"
	homeworkClasses "school-service/internal/http-server/handlers/homework/classes"
	homeworkCreate "school-service/internal/http-server/handlers/homework/create"
	homeworkDelete "school-service/internal/http-server/handlers/homework/delete"
	homeworkList "school-service/internal/http-server/handlers/homework/list"
	homeworkRoster "school-service/internal/http-server/handlers/homework/roster"
	homeworkSubmit "school-service/internal/http-server/handlers/homework/submit"
	subjectsGet "school-service/internal/http-server/handlers/subjects/get"
	tuitionGet "school-service/internal/http-server/handlers/tuition/get"
	"school-service/internal/http-server/handlers/webhook"
	"school-service/internal/lock"
	"school-service/internal/messaging"
	"school-service/internal/models"
	"school-service/internal/scheduler"
	svc "school-service/internal/service"
	"school-service/internal/storage/postgres"
	"school-service/pkg/handlers/slogpretty"
	"school-service/pkg/middleware/mwlogger"
	"school-service/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("Failed to load timezone", sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	messenger, err := messaging.NewLine(cfg.Line.ChannelSecret, cfg.Line.ChannelToken)
	if err != nil {
		log.Error("Failed to init messenger", sl.Err(err))
		os.Exit(1)
	}

	authManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	service := svc.NewService(storage, messenger, log, loc, cfg.Notifications.AbsenceThreshold)

	sched := scheduler.New(log, service, locker, cfg.Scheduler.Interval, cfg.Scheduler.LockTTL)
	sched.Start(context.Background())

	issueToken := func(user *models.User) (string, error) {
		return authManager.IssueToken(user, time.Now().In(loc))
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Auth
	router.Post("/auth/login", authLogin.New(log, service, issueToken))

	// Messaging webhook
	router.Post("/webhook", webhook.New(log, messenger, service))

	// Attendance
	router.Get("/attendance", attendanceGet.New(log, service))
	router.Post("/attendance/mark", attendanceMark.New(log, service))
	router.Get("/attendance/history", attendanceHistory.New(log, service))

	// Homework
	router.Post("/homework/create", homeworkCreate.New(log, service))
	router.Post("/homework/submit", homeworkSubmit.New(log, service))
	router.Post("/homework/check-missing", homeworkCheckMissing.New(log, service))
	router.Get("/homework/{id}", homeworkList.New(log, service))
	router.Get("/homework/{id}/students", homeworkRoster.New(log, service))
	router.Delete("/homework/{id}", homeworkDelete.New(log, service))

	// Authenticated surface
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(log, authManager))

		r.Get("/subjects", subjectsGet.New(log, service))
		r.Get("/attendance/history-options", attendanceOptions.New(log, service))
		r.Get("/homework/classes", homeworkClasses.New(log, service))
		r.Get("/tuition/status", tuitionGet.New(log, service))
	})

	router.Get("/server-time", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().In(loc)
		render.JSON(w, r, map[string]any{
			"serverTime": now.Format(time.RFC3339),
			"timestamp":  now.UnixMilli(),
		})
	})

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	sched.Stop()

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
