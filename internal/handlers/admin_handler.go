package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taitanx/media-delivery-backend/internal/database/repository"
	"github.com/taitanx/media-delivery-backend/internal/models"
	"github.com/taitanx/media-delivery-backend/internal/services/export"
	"github.com/taitanx/media-delivery-backend/internal/services/quota"
)

// IssueKeyRequest is the body for POST /admin/keys.
type IssueKeyRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Tier   string `json:"tier"`
}

// AdminHandler handles the admin surface: key management, daily stats and
// usage exports. Routes are guarded by the admin-key middleware.
type AdminHandler struct {
	quota   *quota.Service
	records *repository.RequestRecordRepository
	export  *export.Service
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(quotaService *quota.Service, records *repository.RequestRecordRepository, exportService *export.Service) *AdminHandler {
	return &AdminHandler{
		quota:   quotaService,
		records: records,
		export:  exportService,
	}
}

// IssueKey handles POST /admin/keys
// @Summary Issue API key
// @Description Issue a new key for a user, revoking their previous active key
// @Tags admin
// @Accept json
// @Produce json
// @Param request body handlers.IssueKeyRequest true "User and tier"
// @Success 201 {object} map[string]interface{} "success: true, api_key"
// @Failure 400 {object} map[string]interface{} "success: false, error"
// @Router /admin/keys [post]
func (h *AdminHandler) IssueKey(c *gin.Context) {
	var req IssueKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	tier := models.TierStandard
	if req.Tier == string(models.TierAdmin) {
		tier = models.TierAdmin
	}

	key, err := h.quota.Issue(req.UserID, tier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"api_key":    key.Key,
		"tier":       key.Tier,
		"expires_at": key.ExpiresAt,
	})
}

// ListKeys handles GET /admin/keys
// @Summary List API keys
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "success: true, keys"
// @Router /admin/keys [get]
func (h *AdminHandler) ListKeys(c *gin.Context) {
	keys, err := h.quota.ListKeys()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(keys),
		"keys":    keys,
	})
}

// RevokeKey handles DELETE /admin/keys/:key
// @Summary Revoke API key
// @Tags admin
// @Produce json
// @Param key path string true "API key token"
// @Success 200 {object} map[string]interface{} "success: true, existed"
// @Router /admin/keys/{key} [delete]
func (h *AdminHandler) RevokeKey(c *gin.Context) {
	existed, err := h.quota.Revoke(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"existed": existed,
	})
}

// Stats handles GET /admin/stats
// @Summary Daily request statistics
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "success: true, stats"
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats, err := h.records.DailyStats(startOfDay)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"date":    startOfDay.Format("2006-01-02"),
		"stats":   stats,
	})
}

// Export handles GET /admin/export
// @Summary Export usage workbook
// @Description Download an xlsx workbook of all keys and today's request stats
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /admin/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	result, err := h.export.ExportUsage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.FileAttachment(result.Path, result.Filename)
}
