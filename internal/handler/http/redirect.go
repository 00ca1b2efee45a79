package http

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Mikkybeardless/shortClick/internal/geo"
	"github.com/Mikkybeardless/shortClick/internal/repository"
	"github.com/Mikkybeardless/shortClick/internal/service"
	"github.com/Mikkybeardless/shortClick/pkg/useragent"
	"go.uber.org/zap"
)

// RedirectHandler serves short-URL hits.
type RedirectHandler struct {
	urlShortener *service.URLShortenerService
	uaParser     *useragent.Parser
	log          *zap.Logger
}

func NewRedirectHandler(urlShortener *service.URLShortenerService, uaParser *useragent.Parser, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		urlShortener: urlShortener,
		uaParser:     uaParser,
		log:          log,
	}
}

// HandleRedirect resolves a short id, records the click and redirects to
// the original URL.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortID := strings.TrimPrefix(r.URL.Path, "/")

	// Everything under the API and probe prefixes is not a short id.
	if shortID == "" || strings.Contains(shortID, "/") ||
		strings.HasPrefix(shortID, "api") || strings.HasPrefix(shortID, "health") ||
		strings.HasPrefix(shortID, "ready") || strings.HasPrefix(shortID, "swagger") {
		http.NotFound(w, r)
		return
	}

	clientIP := extractIPAddress(r)
	device := h.uaParser.Parse(r.UserAgent())

	record, err := h.urlShortener.ResolveAndRecordClick(r.Context(), shortID, clientIP, device)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			h.log.Debug("short id not found", zap.String("short_id", shortID))
			http.NotFound(w, r)
			return
		}
		if errors.Is(err, geo.ErrUnavailable) {
			h.log.Error("geo resolver unavailable", zap.String("short_id", shortID), zap.Error(err))
			http.Error(w, "Service temporarily unavailable", http.StatusBadGateway)
			return
		}
		h.log.Error("failed to process redirect", zap.String("short_id", shortID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Info("successful redirect",
		zap.String("short_id", shortID),
		zap.String("original_url", record.OriginalURL),
		zap.String("ip", clientIP),
		zap.Int64("click_count", record.ClickCount),
		zap.String("device_type", device.DeviceType))

	http.Redirect(w, r, record.OriginalURL, http.StatusFound)
}

// extractIPAddress extracts the client IP, honoring proxy headers.
func extractIPAddress(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For may hold a comma separated chain.
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
