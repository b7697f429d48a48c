// Package httpapi serves the analysis dashboard HTTP API: report generation,
// user profiles, subscription checkout, and the chart assistant.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"pointblank/internal/analyst"
	"pointblank/internal/auth"
	"pointblank/internal/config"
	"pointblank/internal/domain"
	"pointblank/internal/payment"
	"pointblank/internal/quota"
	"pointblank/internal/store"
)

// Authenticator resolves access tokens to user identities.
type Authenticator interface {
	User(ctx context.Context, accessToken string) (*auth.User, error)
}

// Payments creates checkout orders and verifies their callback signatures.
type Payments interface {
	KeyID() string
	CreateOrder(ctx context.Context) (*payment.Order, error)
	VerifySignature(orderID, paymentID, signature string) error
}

// Assistant answers conversational and chart-image questions.
type Assistant interface {
	Chat(ctx context.Context, history []domain.ChatMessage) (string, error)
	AnalyzeImage(ctx context.Context, jpegBase64, prompt string) (string, error)
}

// session is one user's in-memory analysis state: their quota gate and the
// orchestrator running their cycles.
type session struct {
	gate *quota.Gate
	orch *analyst.Orchestrator
}

// Server serves the dashboard HTTP API.
type Server struct {
	authn     Authenticator
	payments  Payments
	gateway   analyst.Gateway
	assistant Assistant
	profiles  store.ProfileStore
	reports   store.ReportStore
	archive   store.HistoryArchive
	cfg       config.AnalysisConfig
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates a new dashboard HTTP server.
func NewServer(
	authn Authenticator,
	payments Payments,
	gateway analyst.Gateway,
	assistant Assistant,
	profiles store.ProfileStore,
	reports store.ReportStore,
	archive store.HistoryArchive,
	cfg config.AnalysisConfig,
	log *slog.Logger,
) *Server {
	return &Server{
		authn:     authn,
		payments:  payments,
		gateway:   gateway,
		assistant: assistant,
		profiles:  profiles,
		reports:   reports,
		archive:   archive,
		cfg:       cfg,
		log:       log,
		sessions:  make(map[string]*session),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze", s.requireAuth(s.handleAnalyze))
	mux.HandleFunc("GET /api/profile", s.requireAuth(s.handleProfile))
	mux.HandleFunc("POST /api/subscribe", s.requireAuth(s.handleSubscribe))
	mux.HandleFunc("POST /api/verify-subscription", s.requireAuth(s.handleVerifySubscription))
	mux.HandleFunc("POST /api/chat", s.requireAuth(s.handleChat))
	mux.HandleFunc("POST /api/analyze-image", s.requireAuth(s.handleAnalyzeImage))
	mux.HandleFunc("GET /api/reports/{ticker}", s.requireAuth(s.handleLatestReport))
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Auth middleware
// ---------------------------------------------------------------------------

type contextKey int

const userKey contextKey = 0

// requireAuth resolves the bearer token and stores the user in the request
// context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		user, err := s.authn.User(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			s.log.Error("resolving access token", "error", err)
			writeError(w, http.StatusInternalServerError, genericErrorMsg)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func userFrom(ctx context.Context) *auth.User {
	return ctx.Value(userKey).(*auth.User)
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

const genericErrorMsg = "An unexpected error occurred. Please try again."

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// writeAnalysisError maps lifecycle errors to the API's error taxonomy.
func (s *Server) writeAnalysisError(w http.ResponseWriter, ticker string, err error) {
	var dataErr *analyst.DataUnavailableError
	switch {
	case errors.Is(err, analyst.ErrQuotaExceeded):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(errorResponse{
			Error:           "You have used all your free analyses. Subscribe for unlimited access.",
			UpgradeRequired: true,
		})
	case errors.As(err, &dataErr):
		writeError(w, http.StatusUnprocessableEntity,
			"Could not retrieve data for \""+dataErr.Ticker+"\". Please check the ticker symbol and try again.")
	case errors.Is(err, analyst.ErrSuperseded):
		writeError(w, http.StatusConflict, "A newer analysis request replaced this one.")
	case errors.Is(err, analyst.ErrEmptyTicker):
		writeError(w, http.StatusBadRequest, "ticker required")
	default:
		s.log.Error("analysis cycle failed", "ticker", ticker, "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
	}
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// sessionFor returns the user's session, creating one on first use. The
// quota gate is refreshed from the stored profile on every call so that
// subscription changes and counts survive restarts. The refresh is
// monotonic: a stored snapshot read before a concurrent cycle committed
// must not roll the in-memory counter backward and re-admit spent quota.
func (s *Server) sessionFor(profile *domain.Profile) *session {
	state := quota.State{Count: profile.AnalysisCount, Subscribed: profile.Subscribed}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[profile.ID]
	if !ok {
		gate := quota.NewGate(s.cfg.FreeLimit, state)
		sess = &session{
			gate: gate,
			orch: analyst.NewOrchestrator(s.gateway, gate,
				time.Duration(s.cfg.TimeoutSeconds)*time.Second, s.cfg.MaxAttempts),
		}
		s.sessions[profile.ID] = sess
	} else {
		sess.gate.Refresh(state)
	}
	return sess
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := s.profiles.EnsureProfile(r.Context(), user.ID, user.Email)
	if err != nil {
		s.log.Error("loading profile", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}

	sess := s.sessionFor(profile)
	report, err := sess.orch.Analyze(r.Context(), req.Ticker)
	if err != nil {
		s.writeAnalysisError(w, req.Ticker, err)
		return
	}

	// Persist the outcome. The cycle already succeeded, so persistence
	// problems are logged rather than surfaced.
	if !profile.Subscribed {
		if err := s.profiles.IncrementAnalysisCount(r.Context(), user.ID); err != nil {
			s.log.Error("recording analysis usage", "user", user.ID, "error", err)
		}
	}
	if err := s.reports.SaveReport(r.Context(), user.ID, report); err != nil {
		s.log.Error("saving report", "user", user.ID, "ticker", report.Ticker, "error", err)
	}
	if err := s.archive.WriteHistory(r.Context(), report.Ticker, report.History); err != nil {
		s.log.Warn("archiving history", "ticker", report.Ticker, "error", err)
	}

	writeJSON(w, report)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	profile, err := s.profiles.EnsureProfile(r.Context(), user.ID, user.Email)
	if err != nil {
		s.log.Error("loading profile", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}
	writeJSON(w, profile)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	order, err := s.payments.CreateOrder(r.Context())
	if err != nil {
		s.log.Error("creating payment order", "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}
	writeJSON(w, SubscribeResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.payments.KeyID(),
	})
}

func (s *Server) handleVerifySubscription(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req VerifySubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
		s.log.Warn("payment verification failed", "user", user.ID, "order", req.OrderID)
		writeError(w, http.StatusBadRequest, "Payment verification failed. If you were charged, contact support.")
		return
	}

	if err := s.profiles.SetSubscribed(r.Context(), user.ID); err != nil {
		s.log.Error("activating subscription", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}

	s.mu.Lock()
	if sess, ok := s.sessions[user.ID]; ok {
		sess.gate.Subscribe()
	}
	s.mu.Unlock()

	profile, err := s.profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		s.log.Error("loading profile after subscribe", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}
	s.log.Info("subscription activated", "user", user.ID, "order", req.OrderID)
	writeJSON(w, profile)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 || req.Messages[len(req.Messages)-1].Role != domain.RoleUser {
		writeError(w, http.StatusBadRequest, "the last message must be from the user")
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.Messages)
	if err != nil {
		s.log.Error("chat turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}
	writeJSON(w, ChatResponse{Reply: reply})
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image required")
		return
	}

	reply, err := s.assistant.AnalyzeImage(r.Context(), req.Image, req.Prompt)
	if err != nil {
		s.log.Error("image analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}
	writeJSON(w, ChatResponse{Reply: reply})
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	ticker := strings.ToUpper(r.PathValue("ticker"))

	report, err := s.reports.LatestReport(r.Context(), user.ID, ticker)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no report for "+ticker)
		return
	}
	if err != nil {
		s.log.Error("loading report", "user", user.ID, "ticker", ticker, "error", err)
		writeError(w, http.StatusInternalServerError, genericErrorMsg)
		return
	}
	writeJSON(w, report)
}
