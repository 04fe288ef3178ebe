package http

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	appconfig "github.com/broseidonlordofthebrocean/hedge/internal/config"
	"github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http/handlers"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
	"github.com/broseidonlordofthebrocean/hedge/internal/portfolio"
	"github.com/broseidonlordofthebrocean/hedge/internal/vendors"
)

// Server represents the read-only HTTP server
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *handlers.Handlers
	config   ServerConfig
	alertHub *AlertHub
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	port := 8080
	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	return ServerConfig{
		Host:         "127.0.0.1", // Local-only by default
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new HTTP server instance, wired to the repository
// layer, the Portfolio Aggregator, the vendor manager (for GET /health's
// provider status), the JWT auth boundary, and the alert websocket hub.
func NewServer(config ServerConfig, authCfg appconfig.AuthConfig, repos *persistence.Repository, aggregator *portfolio.Aggregator, vendorMgr *vendors.Manager, dbHealth persistence.RepositoryHealth, alertHub *AlertHub) (*Server, error) {
	// Check if port is available
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", config.Port, err)
	}
	listener.Close()

	router := mux.NewRouter()

	// Initialize handlers
	handlerManager := handlers.NewHandlers(repos, aggregator, vendorMgr, dbHealth)

	auth, err := newAuthMiddleware(authCfg)
	if err != nil {
		return nil, fmt.Errorf("build auth middleware: %w", err)
	}

	if alertHub == nil {
		alertHub = NewAlertHub()
	}

	server := &Server{
		router:   router,
		handlers: handlerManager,
		config:   config,
		alertHub: alertHub,
	}

	// Setup routes
	server.setupRoutes(auth)

	// Create HTTP server
	server.server = &http.Server{
		Addr:         addr,
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return server, nil
}

// AlertHub exposes the websocket alert-push hub so the caller can wire it
// as the Alert Evaluator's Notifier alongside any email/push channel.
func (s *Server) AlertHub() *AlertHub {
	return s.alertHub
}

// setupRoutes configures all HTTP routes. Every /api/v1 route requires a
// valid bearer token except /health, which stays at the root, unauthenticated,
// for liveness probes.
func (s *Server) setupRoutes(auth *authMiddleware) {
	// Middleware for all routes
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	// Health endpoint: unauthenticated, outside /api/v1.
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")

	// Prometheus scrape endpoint: unauthenticated, same convention as /health.
	if DefaultMetrics != nil {
		s.router.Handle("/metrics", DefaultMetrics.MetricsHandler()).Methods("GET")
	}

	// Websocket alert push: authenticated via the upgrade request's bearer
	// token, but not JSON, so it sits outside the jsonContentType subrouter.
	ws := s.router.PathPrefix("/api/v1/ws").Subrouter()
	ws.Use(auth.middleware)
	ws.HandleFunc("/alerts", s.alertHub.ServeHTTP).Methods("GET")

	// API routes (JSON, bearer-token authenticated)
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.middleware)
	api.Use(s.jsonContentTypeMiddleware)

	// Company listing and detail
	api.HandleFunc("/companies", s.handlers.Companies).Methods("GET")
	api.HandleFunc("/companies/{ticker}", s.handlers.Company).Methods("GET")
	api.HandleFunc("/companies/{ticker}/scores", s.handlers.CompanyScores).Methods("GET")

	// Rankings
	api.HandleFunc("/rankings", s.handlers.Rankings).Methods("GET")
	api.HandleFunc("/rankings/movers", s.handlers.Movers).Methods("GET")
	api.HandleFunc("/rankings/tiers", s.handlers.Tiers).Methods("GET")

	// Portfolio analysis and scenario projection
	api.HandleFunc("/portfolio/{id}/analyze", s.handlers.PortfolioAnalyze).Methods("GET")
	api.HandleFunc("/portfolio/{id}/scenario", s.handlers.PortfolioScenario).Methods("POST")

	// Macro data
	api.HandleFunc("/macro/current", s.handlers.MacroCurrent).Methods("GET")
	api.HandleFunc("/macro/dashboard", s.handlers.MacroDashboard).Methods("GET")
	api.HandleFunc("/macro/history", s.handlers.MacroHistory).Methods("GET")

	// 404 handler
	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// requestIDMiddleware adds unique request ID to each request
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs all requests with structured format
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Context().Value("request_id")

		// Capture response status
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		log.Printf("REQ %s %s %s %d %v %s",
			requestID,
			r.Method,
			r.URL.Path,
			wrapper.statusCode,
			duration,
			r.RemoteAddr,
		)
	})
}

// timeoutMiddleware enforces request timeouts
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware adds CORS headers for local development
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow localhost origins
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// jsonContentTypeMiddleware sets JSON content type for API responses
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting HTTP server on %s:%d (local-only, read-only)",
		s.config.Host, s.config.Port)

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Printf("Shutting down HTTP server...")
	return s.server.Shutdown(ctx)
}

// GetAddress returns the server address
func (s *Server) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
