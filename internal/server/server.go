// Package server exposes the Slack OAuth callback over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"whereabouts/internal/slack"
)

const (
	CallbackPath = "/auth/callback"
	HealthPath   = "/health"

	msgTokenObtained = "Access token obtained. Check the console for the token."
	msgTokenError    = "Error obtaining access token."
	msgMissingCode   = "Missing authorization code."
)

// TokenExchanger trades an authorization code for an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// NewRouter wires the OAuth callback and health routes.
func NewRouter(exchanger TokenExchanger, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get(CallbackPath, callbackHandler(exchanger, logger))
	return r
}

func callbackHandler(exchanger TokenExchanger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			logger.Warn("OAuth callback without authorization code", zap.String("remote_addr", r.RemoteAddr))
			http.Error(w, msgMissingCode, http.StatusBadRequest)
			return
		}

		token, err := exchanger.Exchange(r.Context(), code)
		switch {
		case err == nil:
			// The token goes to the operator log only, never to the caller.
			logger.Info("Access token obtained", zap.String("access_token", token))
			w.Write([]byte(msgTokenObtained))
		case errors.Is(err, slack.ErrMissingAccessToken):
			logger.Error("OAuth response did not contain an access token", zap.Error(err))
			http.Error(w, msgTokenError, http.StatusBadRequest)
		default:
			logger.Error("Error exchanging code for access token", zap.Error(err))
			http.Error(w, msgTokenError, http.StatusInternalServerError)
		}
	}
}

// New builds an *http.Server with bounded timeouts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run serves until ctx is cancelled and then shuts the server down.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server is listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
