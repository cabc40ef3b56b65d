// Package server receives GitHub webhook deliveries over HTTP and hands them
// to the dispatcher in the background.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/google/uuid"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/core/event"
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
)

// Dispatcher runs the pipeline for an event.
type Dispatcher interface {
	Handles(kind, action string) bool
	Dispatch(ctx context.Context, ev *pipeline.Event) (*pipeline.Result, error)
}

// Server is the webhook listener.
type Server struct {
	secret      []byte
	webhookPath string
	timeout     time.Duration
	dispatcher  Dispatcher
	log         *slog.Logger

	httpServer *http.Server

	// baseCtx outlives requests and is cancelled once shutdown gives up
	// waiting for in-flight deliveries.
	baseCtx context.Context
	cancel  context.CancelFunc

	// mu guards closing and orders wg.Add before the shutdown wait.
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// New creates a webhook server for the given configuration.
func New(cfg *config.Config, dispatcher Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Server.HandlerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		secret:      []byte(cfg.GitHub.WebhookSecret),
		webhookPath: cfg.Server.WebhookPath,
		timeout:     timeout,
		dispatcher:  dispatcher,
		log:         logger,
		baseCtx:     ctx,
		cancel:      cancel,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+s.webhookPath, s.handleWebhook)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return applyMiddleware(mux, s.log)
}

// ListenAndServe blocks until the server is shut down. It returns nil after
// a graceful shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("webhook server starting", "addr", s.httpServer.Addr, "path", s.webhookPath)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting deliveries and waits for in-flight ones until ctx
// is done. Deliveries still running after that are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("abandoning in-flight deliveries")
	}
	s.cancel()
	return err
}

// track registers a background delivery. It reports false once shutdown has
// started.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

// Wait blocks until all dispatched deliveries have finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	// An empty secret disables signature checks.
	payload, err := github.ValidatePayload(r, s.secret)
	if err != nil {
		s.log.Warn("rejected webhook delivery", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	kind := github.WebHookType(r)
	deliveryID := github.DeliveryID(r)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	ev, err := event.Parse(kind, deliveryID, payload)
	if err != nil {
		if errors.Is(err, event.ErrUnsupportedEvent) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.log.Warn("bad webhook payload", "event", kind, "delivery", deliveryID, "error", err)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !s.dispatcher.Handles(ev.Kind, ev.Action) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !s.track() {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
		defer cancel()

		// The dispatcher logs the outcome.
		_, _ = s.dispatcher.Dispatch(ctx, ev)
	}()

	writeJSON(w, http.StatusAccepted, acceptedResponse{Delivery: deliveryID})
}
