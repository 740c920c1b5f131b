package handler

import (
	"net/http"
	"time"

	"wastelink/internal/middleware"
	"wastelink/internal/model"
	"wastelink/internal/service"
	"wastelink/pkg/response"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	moderationService service.ModerationService
}

func NewModerationHandler(moderationService service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func (h *ModerationHandler) RegisterRoutes(router *gin.RouterGroup) {
	moderation := router.Group("/api/moderation", middleware.RequireRole("admin"))
	{
		moderation.GET("/queue", h.GetQueue)
		moderation.GET("/export", h.ExportQueue)
		moderation.POST("/actions", h.ExecuteAction)
	}
}

// GetQueue returns the filtered moderation queue plus the full-queue counters
// @Summary  Moderation queue
// @Tags     moderation
// @Produce  json
// @Param    filter query string false "all|pending|resolved|priority|urgent|content|user|recent"
// @Success  200 {object} response.Response
// @Router   /api/moderation/queue [get]
func (h *ModerationHandler) GetQueue(c *gin.Context) {
	filterName := c.DefaultQuery("filter", service.FilterAll)

	queue, counts, err := h.moderationService.Queue(c.Request.Context(), filterName)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   queue,
		"counts": counts,
		"filter": filterName,
		"total":  len(queue),
	})
}

// ExportQueue streams the filtered queue view as CSV
func (h *ModerationHandler) ExportQueue(c *gin.Context) {
	filterName := c.DefaultQuery("filter", service.FilterAll)

	csv, err := h.moderationService.ExportCSV(c.Request.Context(), filterName)
	if err != nil {
		abortWithError(c, err)
		return
	}

	filename := service.ExportFilePrefix(filterName, time.Now()) + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// ExecuteAction resolves a queue item with one of the recognized moderation
// actions. Synthesized items are materialized into the reports collection;
// stored reports are updated in place.
func (h *ModerationHandler) ExecuteAction(c *gin.Context) {
	var req struct {
		Item       model.ModerationItem `json:"item" binding:"required"`
		ActionType string               `json:"action_type" binding:"required"`
		Notes      string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	err := h.moderationService.ExecuteAction(c.Request.Context(), req.Item, req.ActionType, req.Notes, adminID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"id":           req.Item.ID,
		"action_taken": req.ActionType,
	}))
}
