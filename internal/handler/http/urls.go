package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Mikkybeardless/shortClick/internal/auth"
	"github.com/Mikkybeardless/shortClick/internal/domain"
	"github.com/Mikkybeardless/shortClick/internal/qrcode"
	"github.com/Mikkybeardless/shortClick/internal/repository"
	"github.com/Mikkybeardless/shortClick/internal/service"
	"go.uber.org/zap"
)

// URLsHandler serves the /api/urls endpoints.
type URLsHandler struct {
	urlShortener *service.URLShortenerService
	log          *zap.Logger
}

func NewURLsHandler(urlShortener *service.URLShortenerService, log *zap.Logger) *URLsHandler {
	return &URLsHandler{
		urlShortener: urlShortener,
		log:          log,
	}
}

// CreateURLRequest is the request body for URL creation.
type CreateURLRequest struct {
	OriginalURL  string `json:"original_url"`
	CustomDomain string `json:"custom_domain,omitempty"`
	CustomSlug   string `json:"custom_slug,omitempty"`
}

// URLInfo describes one shortened URL in responses.
type URLInfo struct {
	ID          int64  `json:"id"`
	ShortID     string `json:"short_id"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	ClickCount  int64  `json:"click_count"`
	CreatedAt   string `json:"created_at"`
}

// CreateURLResponse is the response body for URL creation.
type CreateURLResponse struct {
	Message string  `json:"message"`
	Data    URLInfo `json:"data"`
}

// ListURLsResponse is the response body for owner listings.
type ListURLsResponse struct {
	URLs []URLInfo `json:"urls"`
}

// AnalyticsResponse is the response body for the analytics endpoint.
type AnalyticsResponse struct {
	Clicks    int64                   `json:"clicks"`
	Analytics []domain.AnalyticsEntry `json:"analytics"`
}

// QRCodeRequest is the request body for QR code retrieval.
type QRCodeRequest struct {
	ShortURL string `json:"short_url"`
}

// QRCodeResponse is the response body for QR code retrieval.
type QRCodeResponse struct {
	Message string `json:"message"`
	QRCode  string `json:"qr_code"`
}

// CreateURL creates a short URL for the authenticated owner.
//
//	@Summary		Create a short URL
//	@Description	Create a shortened URL owned by the authenticated identity
//	@Tags			URLs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateURLRequest	true	"URL creation request"
//	@Success		201		{object}	CreateURLResponse	"URL shortened"
//	@Failure		400		{object}	map[string]string	"Invalid request data"
//	@Failure		401		{object}	map[string]string	"Authentication required"
//	@Failure		409		{object}	map[string]string	"Custom slug already taken"
//	@Router			/api/urls/user [post]
func (h *URLsHandler) CreateURL(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.GetOwnerIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "Owner not found in context", http.StatusUnauthorized)
		return
	}
	h.createURL(w, r, &ownerID)
}

// CreateURLFree creates a short URL without an owner.
//
//	@Summary		Create a short URL anonymously
//	@Tags			URLs
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateURLRequest	true	"URL creation request"
//	@Success		201		{object}	CreateURLResponse	"URL shortened"
//	@Failure		400		{object}	map[string]string	"Invalid request data"
//	@Failure		409		{object}	map[string]string	"Custom slug already taken"
//	@Router			/api/urls/free [post]
func (h *URLsHandler) CreateURLFree(w http.ResponseWriter, r *http.Request) {
	h.createURL(w, r, nil)
}

func (h *URLsHandler) createURL(w http.ResponseWriter, r *http.Request, ownerID *string) {
	var req CreateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create url request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.OriginalURL == "" {
		h.writeError(w, "Original URL is required", http.StatusBadRequest)
		return
	}
	if parsed, err := url.Parse(req.OriginalURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		h.writeError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	input := service.CreateURLInput{
		OriginalURL:  req.OriginalURL,
		CustomDomain: req.CustomDomain,
		CustomSlug:   req.CustomSlug,
	}

	record, err := h.urlShortener.CreateShortURL(r.Context(), input, ownerID)
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			h.writeError(w, "Custom slug already taken", http.StatusConflict)
			return
		}
		h.log.Error("failed to create short url", zap.Error(err))
		h.writeError(w, "Failed to create short url", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, CreateURLResponse{
		Message: "URL successfully shortened",
		Data:    toURLInfo(record),
	})
}

// ListURLs lists the authenticated owner's URLs.
//
//	@Summary		List my URLs
//	@Tags			URLs
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	ListURLsResponse
//	@Failure		401	{object}	map[string]string	"Authentication required"
//	@Router			/api/urls/user [get]
func (h *URLsHandler) ListURLs(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.GetOwnerIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "Owner not found in context", http.StatusUnauthorized)
		return
	}

	records, err := h.urlShortener.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.log.Error("failed to list urls", zap.String("owner_id", ownerID), zap.Error(err))
		h.writeError(w, "Failed to list urls", http.StatusInternalServerError)
		return
	}

	resp := ListURLsResponse{URLs: make([]URLInfo, 0, len(records))}
	for _, record := range records {
		resp.URLs = append(resp.URLs, toURLInfo(record))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetAnalytics returns click analytics for a record.
//
//	@Summary		Get URL analytics
//	@Tags			URLs
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Record id"
//	@Success		200	{object}	AnalyticsResponse
//	@Failure		404	{object}	map[string]string	"URL not found"
//	@Router			/api/urls/{id}/analytics [get]
func (h *URLsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request, id int64) {
	record, err := h.urlShortener.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			h.writeError(w, "URL not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to fetch analytics", zap.Int64("id", id), zap.Error(err))
		h.writeError(w, "Failed to fetch analytics", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, AnalyticsResponse{
		Clicks:    record.ClickCount,
		Analytics: record.Analytics,
	})
}

// GetQRCode returns the QR code for a short URL, generating it on first
// access. The image is returned as a base64 PNG data URL.
//
//	@Summary		Get or create a QR code
//	@Tags			URLs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		QRCodeRequest	true	"Short URL"
//	@Success		200		{object}	QRCodeResponse
//	@Failure		400		{object}	map[string]string	"Generation failed"
//	@Failure		404		{object}	map[string]string	"URL not found"
//	@Router			/api/urls/qrcode [put]
func (h *URLsHandler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	var req QRCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShortURL == "" {
		h.writeError(w, "Short URL is required", http.StatusBadRequest)
		return
	}

	image, err := h.urlShortener.GetOrCreateQRCode(r.Context(), req.ShortURL)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrURLNotFound):
			h.writeError(w, "URL not found", http.StatusNotFound)
		case errors.Is(err, qrcode.ErrGeneration):
			h.writeError(w, "Failed to generate QR code", http.StatusBadRequest)
		default:
			h.log.Error("failed to get qr code", zap.String("short_url", req.ShortURL), zap.Error(err))
			h.writeError(w, "Failed to get QR code", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, QRCodeResponse{
		Message: "QRcode successfully created",
		QRCode:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
	})
}

// DeleteURL removes a record by id.
//
//	@Summary		Delete a URL
//	@Tags			URLs
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Record id"
//	@Success		200	{object}	map[string]string	"Deleted"
//	@Failure		404	{object}	map[string]string	"URL not found"
//	@Router			/api/urls/{id} [delete]
func (h *URLsHandler) DeleteURL(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.urlShortener.RemoveURL(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			h.writeError(w, "URL not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete url", zap.Int64("id", id), zap.Error(err))
		h.writeError(w, "Failed to delete url", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "url deleted successfully",
	})
}

// ParseRecordID extracts a record id from a path segment.
func ParseRecordID(segment string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(segment), 10, 64)
}

func toURLInfo(record *domain.URLRecord) URLInfo {
	return URLInfo{
		ID:          record.ID,
		ShortID:     record.ShortID,
		ShortURL:    record.ShortURL,
		OriginalURL: record.OriginalURL,
		ClickCount:  record.ClickCount,
		CreatedAt:   record.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *URLsHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *URLsHandler) writeError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
