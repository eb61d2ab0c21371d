// AngelaMos | 2026
// handler.go

package wix

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/middleware"
	"github.com/carterperez-dev/socialai/internal/post"
)

type PostRecorder interface {
	RecordWixPublish(
		ctx context.Context,
		userID, originalContent, publishedContent, wixPostID string,
	) (*post.Post, error)
}

type PublishRequest struct {
	Title    string `json:"title"    validate:"required,max=200"`
	Content  string `json:"content"  validate:"required"`
	Platform string `json:"platform" validate:"required,max=50"`
}

type PublishResponse struct {
	Success     bool      `json:"success"`
	WixPost     *BlogPost `json:"wixPost"`
	PreviewHTML string    `json:"previewHtml"`
	Message     string    `json:"message"`
}

type StatusResponse struct {
	WixConnected bool   `json:"wixConnected"`
	SiteID       string `json:"siteId,omitempty"`
	HasAPIKey    bool   `json:"hasApiKey"`
	Message      string `json:"message"`
}

type Handler struct {
	client    *Client
	posts     PostRecorder
	validator *validator.Validate
}

func NewHandler(client *Client, posts PostRecorder) *Handler {
	return &Handler{
		client:    client,
		posts:     posts,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/wix", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/publish", h.Publish)
		r.Get("/collections", h.Collections)
		r.Get("/status", h.Status)
	})
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, "Missing required fields")
		return
	}

	pub, err := h.client.PublishSocialContent(r.Context(), req.Title, req.Content, req.Platform)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	if _, err := h.posts.RecordWixPublish(
		r.Context(),
		userID,
		req.Title,
		req.Content,
		pub.Post.ID,
	); err != nil {
		slog.WarnContext(r.Context(), "record wix publish",
			"user_id", userID,
			"wix_post_id", pub.Post.ID,
			"error", err,
		)
	}

	core.OK(w, PublishResponse{
		Success:     true,
		WixPost:     pub.Post,
		PreviewHTML: pub.PreviewHTML,
		Message:     "Content published to Wix blog successfully!",
	})
}

func (h *Handler) Collections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.client.ListCollections(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	core.OK(w, map[string]any{"collections": collections})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if !h.client.Configured() {
		core.OK(w, StatusResponse{
			WixConnected: false,
			HasAPIKey:    false,
			Message:      "Missing Wix credentials. Set WIX_API_KEY and WIX_SITE_ID.",
		})
		return
	}

	if err := h.client.Ping(r.Context()); err != nil {
		core.OK(w, StatusResponse{
			WixConnected: false,
			SiteID:       h.client.siteID,
			HasAPIKey:    true,
			Message:      "Wix credentials present but connection failed: " + err.Error(),
		})
		return
	}

	core.OK(w, StatusResponse{
		WixConnected: true,
		SiteID:       h.client.siteID,
		HasAPIKey:    true,
		Message:      "Successfully connected to Wix",
	})
}

func (h *Handler) writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotConfigured) {
		core.JSON(w, http.StatusServiceUnavailable, core.ErrorBody{
			Error: "Wix integration is not configured",
			Code:  "WIX_NOT_CONFIGURED",
		})
		return
	}

	slog.Error("wix request failed", "error", err)

	core.JSON(w, http.StatusBadGateway, core.ErrorBody{
		Error: "Wix API request failed",
		Code:  "WIX_UPSTREAM_ERROR",
	})
}
