package api

import (
	"context"
	"net/http"

	"github.com/rs/cors"
)

// Server wraps an HTTP server with engine-specific routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address.
func NewServer(h *Handler, listenAddr string) *Server {
	mux := http.NewServeMux()

	// Health endpoint.
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Session endpoints.
	mux.HandleFunc("POST /api/v1/session", h.CreateSession)
	mux.HandleFunc("GET /api/v1/session/{sessionKey}", h.GetSession)
	mux.HandleFunc("POST /api/v1/session/{sessionKey}/decision", h.SubmitDecision)
	mux.HandleFunc("POST /api/v1/session/{sessionKey}/resume", h.ResumeSession)

	// Critique endpoint.
	mux.HandleFunc("GET /api/v1/session/{sessionKey}/critiques", h.ListCritiques)

	// Event endpoints.
	mux.HandleFunc("GET /api/v1/session/{sessionKey}/events", h.ListEvents)
	mux.HandleFunc("GET /api/v1/session/{sessionKey}/events/stream", h.StreamEvents)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: c.Handler(mux),
	}

	return &Server{
		httpServer: srv,
	}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
