package handler

import (
	"net/http"

	"wastelink/internal/middleware"
	"wastelink/internal/service"
	"wastelink/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit", middleware.RequireRole("admin"), h.ListAuditLogs)
}

// ListAuditLogs returns the most recent system_logs entries
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, err := h.auditService.List(c.Request.Context(), int64(params.Limit))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   logs,
		"limit":  params.Limit,
	})
}
