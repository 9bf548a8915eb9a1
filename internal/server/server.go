package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/database"
	"github.com/omriShneor/meeting_agent/internal/dialogue"
	"github.com/omriShneor/meeting_agent/internal/gcal"
	"github.com/omriShneor/meeting_agent/internal/session"
	"github.com/omriShneor/meeting_agent/internal/sse"
)

// ChatEngine runs conversations
type ChatEngine interface {
	HandleTurn(ctx context.Context, userID, text string) (*dialogue.TurnResult, error)
	Reset(userID string)
	Snapshot(userID string) (*session.State, bool)
}

// BookingStore reads the booking log
type BookingStore interface {
	ListBookingsByUser(ctx context.Context, userID string, limit int) ([]database.Booking, error)
	Ping(ctx context.Context) error
}

// CalendarConnector is the OAuth side of the calendar client
type CalendarConnector interface {
	IsAuthenticated() bool
	AuthURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code string) error
	ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error)
}

// SessionCounter reports live conversations
type SessionCounter interface {
	Len() int
}

type Server struct {
	engine   ChatEngine
	bookings BookingStore
	gcal     CalendarConnector
	sessions SessionCounter
	events   *sse.Hub
	logger   *zap.Logger

	httpSrv *http.Server
	port    int

	oauthMu     sync.Mutex
	oauthStates map[string]time.Time
}

// Config holds the server's collaborators. Only Engine is required.
type Config struct {
	Engine             ChatEngine
	Bookings           BookingStore
	GCal               CalendarConnector
	Sessions           SessionCounter
	Events             *sse.Hub
	Logger             *zap.Logger
	Port               int
	CORSAllowedOrigin  string
	RateLimitPerMinute int
	// TrustProxyHeaders keys rate limiting on X-Forwarded-For
	TrustProxyHeaders bool
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		engine:      cfg.Engine,
		bookings:    cfg.Bookings,
		gcal:        cfg.GCal,
		sessions:    cfg.Sessions,
		events:      cfg.Events,
		logger:      logger,
		port:        cfg.Port,
		oauthStates: make(map[string]time.Time),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = mux
	handler = newRateLimiter(cfg.RateLimitPerMinute, cfg.TrustProxyHeaders, logger).middleware(handler)
	handler = corsMiddleware(cfg.CORSAllowedOrigin, handler)
	handler = requestLogger(logger, handler)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	// Conversation API
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/{userId}", s.handleGetConversation)
	mux.HandleFunc("DELETE /api/chat/{userId}", s.handleResetConversation)

	// Booking log
	mux.HandleFunc("GET /api/bookings", s.handleListBookings)

	// Live bookings and calendar status
	mux.HandleFunc("GET /api/events", s.handleEventStream)

	// Google Calendar API
	mux.HandleFunc("GET /api/gcal/status", s.handleGCalStatus)
	mux.HandleFunc("GET /api/gcal/calendars", s.handleGCalListCalendars)
	mux.HandleFunc("GET /api/gcal/connect", s.handleGCalConnect)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", fmt.Sprintf("http://localhost:%d", s.port)))
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
