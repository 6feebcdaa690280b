package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taitanx/media-delivery-backend/internal/services/mediacache"
)

// CacheHandler handles cache administration endpoints.
type CacheHandler struct {
	cache *mediacache.Service
}

// NewCacheHandler creates a new CacheHandler instance
func NewCacheHandler(cache *mediacache.Service) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Clear handles DELETE /cache/:content_id and DELETE /cache/clear/:content_id
// @Summary Invalidate cache
// @Description Remove the cached audio and video responses for a content id
// @Tags cache
// @Produce json
// @Param content_id path string true "Canonical content id"
// @Success 200 {object} map[string]interface{} "success: true"
// @Router /cache/{content_id} [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	contentID := c.Param("content_id")

	audioRemoved, videoRemoved := h.cache.Invalidate(mediacache.ContentID(contentID))

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"message":             "Cache cleared for content_id: " + contentID,
		"audio_cache_deleted": audioRemoved,
		"video_cache_deleted": videoRemoved,
	})
}

// Stats handles GET /cache/stats
// @Summary Cache statistics
// @Description Aggregate entry counts per cache
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{} "entry counts"
// @Failure 500 {object} map[string]interface{} "error"
// @Router /cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	audioCount, videoCount, err := h.cache.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audio_cache_entries": audioCount,
		"video_cache_entries": videoCount,
		"total_entries":       audioCount + videoCount,
	})
}
