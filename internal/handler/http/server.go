package http

import (
	"net/http"
	"strings"

	"github.com/Mikkybeardless/shortClick/internal/auth"
	"github.com/Mikkybeardless/shortClick/internal/repository"
	"github.com/Mikkybeardless/shortClick/internal/service"
	"github.com/Mikkybeardless/shortClick/pkg/useragent"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Server wires all HTTP handlers and middleware.
type Server struct {
	urlsHandler     *URLsHandler
	redirectHandler *RedirectHandler
	healthHandler   *HealthHandler
	authMiddleware  *auth.Middleware
	log             *zap.Logger
}

func NewServer(
	storage repository.Storage,
	urlShortener *service.URLShortenerService,
	jwtService *auth.JWTService,
	uaParser *useragent.Parser,
	log *zap.Logger,
) *Server {
	return &Server{
		urlsHandler:     NewURLsHandler(urlShortener, log),
		redirectHandler: NewRedirectHandler(urlShortener, uaParser, log),
		healthHandler:   NewHealthHandler(storage, log),
		authMiddleware:  auth.NewMiddleware(jwtService, log),
		log:             log,
	}
}

// SetupRoutes builds the route table.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Probes, no authentication.
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Swagger UI.
	mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Creation endpoints: authenticated and anonymous variants of the
	// same operation.
	mux.HandleFunc("/api/urls/free", s.withCORS(s.urlsHandler.CreateURLFree))
	mux.HandleFunc("/api/urls/user", s.withCORS(s.authMiddleware.RequireAuth(s.handleUserURLs)))
	mux.HandleFunc("/api/urls/qrcode", s.withCORS(s.authMiddleware.RequireAuth(s.urlsHandler.GetQRCode)))

	// Per-record endpoints under /api/urls/{id}[...].
	mux.HandleFunc("/api/urls/", s.withCORS(s.authMiddleware.RequireAuth(s.handleURLByID)))

	// Redirects match everything else; must be registered last.
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

// handleUserURLs dispatches /api/urls/user by method.
func (s *Server) handleUserURLs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.urlsHandler.CreateURL(w, r)
	case http.MethodGet:
		s.urlsHandler.ListURLs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleURLByID dispatches /api/urls/{id} and /api/urls/{id}/analytics.
func (s *Server) handleURLByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/urls/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")

	id, err := ParseRecordID(segments[0])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(segments) == 2 && segments[1] == "analytics" && r.Method == http.MethodGet:
		s.urlsHandler.GetAnalytics(w, r, id)
	case len(segments) == 1 && r.Method == http.MethodDelete:
		s.urlsHandler.DeleteURL(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// withCORS adds CORS headers to a handler.
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}
