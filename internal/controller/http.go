package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/mealmate/internal/controller/api"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type HTTPController struct {
	server *http.Server
	logger *zap.Logger
}

// NewRouter registers every API route on a gorilla router wrapped in CORS.
func NewRouter(h *api.Handlers, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(h.LogRequests, h.Recover)

	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()

	apiRouter.HandleFunc("/users", h.HandleRegister).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/login", h.HandleLogin).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/{userId}/timetables", h.HandleListTimetables).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userId}/matches", h.HandleListMatches).Methods(http.MethodGet)

	apiRouter.HandleFunc("/timetables/analyze", h.HandleAnalyzeTimetable).Methods(http.MethodPost)

	apiRouter.HandleFunc("/match-requests", h.HandleCreateMatchRequest).Methods(http.MethodPost)
	apiRouter.HandleFunc("/matches/{matchId}", h.HandleUpdateMatchStatus).Methods(http.MethodPatch)

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

func NewHTTPController(addr string, handler http.Handler, logger *zap.Logger) *HTTPController {
	return &HTTPController{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until ctx is cancelled, then drains open requests.
func (c *HTTPController) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		c.logger.Info("Starting HTTP server...", zap.String("addr", c.server.Addr))
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	c.logger.Info("Shutting down HTTP server...")
	if err := c.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
