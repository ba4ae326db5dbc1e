package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/oncallzero/triage-cli/api/schemas"
	"github.com/oncallzero/triage-cli/internal/config"
)

// ackEnvelope is the notification API response: the acknowledgment plus an
// echo of the received payload.
type ackEnvelope struct {
	Status string                  `json:"status"`
	Ack    schemas.NotificationAck `json:"ack"`
	Data   json.RawMessage         `json:"data,omitempty"`
}

// Server is the notification API. It logs every notification and echoes an
// acknowledgment; it holds no state between requests.
type Server struct {
	cfg     config.NotifyConfig
	logger  *zap.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

// NewServer creates the notification API server.
func NewServer(cfg config.NotifyConfig, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger.Named("notify.server"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		now:     time.Now,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.rateLimit)
	r.HandleFunc("/notify", s.handleNotify).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// ListenAndServe runs the server until the context is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Notification API listening", zap.String("addr", s.cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// rateLimit rejects requests beyond the configured sustained rate.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Warn("Notification rate limit exceeded", zap.String("remote", r.RemoteAddr))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var payload schemas.Notification
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	s.logger.Info("Received notification",
		zap.String("error_id", payload.ErrorID),
		zap.String("status", payload.Status),
		zap.String("issue_file", payload.IssueFile),
		zap.String("type", payload.Summary.Type))

	echo, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to echo payload", http.StatusInternalServerError)
		return
	}

	resp := ackEnvelope{
		Status: "received",
		Ack: schemas.NotificationAck{
			Received:       true,
			NotificationID: uuid.NewString(),
			Timestamp:      s.now().UTC(),
		},
		Data: echo,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to write acknowledgment", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
