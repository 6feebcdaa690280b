package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taitanx/media-delivery-backend/internal/models"
	"github.com/taitanx/media-delivery-backend/internal/services/delivery"
)

// MediaHandler handles the public /audio and /video endpoints.
type MediaHandler struct {
	delivery *delivery.Service
}

// NewMediaHandler creates a new MediaHandler instance
func NewMediaHandler(deliveryService *delivery.Service) *MediaHandler {
	return &MediaHandler{delivery: deliveryService}
}

// Audio handles GET /audio
// @Summary Download audio
// @Description Resolve a YouTube url, id or search name into a durable mp3 delivery URL
// @Tags media
// @Produce json
// @Param url query string false "YouTube URL or 11-character video id"
// @Param name query string false "Free-text search"
// @Param api_key query string true "API key"
// @Success 200 {object} models.DeliveryResponse
// @Failure 400 {object} models.DeliveryResponse
// @Failure 401 {object} models.DeliveryResponse
// @Router /audio [get]
func (h *MediaHandler) Audio(c *gin.Context) {
	h.serve(c, models.KindAudio)
}

// Video handles GET /video
// @Summary Download video
// @Description Resolve a YouTube url, id or search name into a durable mp4 delivery URL (max 720p)
// @Tags media
// @Produce json
// @Param url query string false "YouTube URL or 11-character video id"
// @Param name query string false "Free-text search"
// @Param api_key query string true "API key"
// @Success 200 {object} models.DeliveryResponse
// @Failure 400 {object} models.DeliveryResponse
// @Failure 401 {object} models.DeliveryResponse
// @Router /video [get]
func (h *MediaHandler) Video(c *gin.Context) {
	h.serve(c, models.KindVideo)
}

func (h *MediaHandler) serve(c *gin.Context, kind models.MediaKind) {
	apiKey := c.Query("api_key")
	if apiKey == "" {
		c.JSON(http.StatusBadRequest, &models.DeliveryResponse{
			Status: false,
			Type:   kind.Label(),
			Result: models.DeliveryResult{Duration: "PT0S", Quality: "Unknown"},
			Error:  "Missing api_key parameter",
		})
		return
	}

	resp, status := h.delivery.Handle(c.Request.Context(), kind, c.Query("url"), c.Query("name"), apiKey)
	c.JSON(status, resp)
}
