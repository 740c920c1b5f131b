package handler

import (
	"errors"
	"net/http"

	"wastelink/internal/middleware"
	"wastelink/internal/model"
	"wastelink/internal/service"
	"wastelink/pkg/response"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verificationService service.VerificationService
}

func NewVerificationHandler(verificationService service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

func (h *VerificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	verifications := router.Group("/api/verifications", middleware.RequireRole("admin"))
	{
		verifications.POST("", h.CreateVerification)
		verifications.GET("", h.ListVerifications)
		verifications.GET("/stats", h.GetStats)
		verifications.GET("/search", h.SearchVerifications)
		verifications.GET("/export", h.ExportVerifications)
		verifications.GET("/pending/:role", h.PendingByRole)
		verifications.PUT("/bulk", h.BulkUpdate)
		verifications.PUT("/:id/status", h.UpdateStatus)
		verifications.DELETE("/:id", h.DeleteVerification)
	}
}

// CreateVerification registers a new document-submission claim in pending state
// @Summary  Create verification
// @Tags     verifications
// @Accept   json
// @Produce  json
// @Param    request body service.CreateVerificationInput true "Verification data"
// @Success  201 {object} response.Response
// @Router   /api/verifications [post]
func (h *VerificationHandler) CreateVerification(c *gin.Context) {
	var input service.CreateVerificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	id, err := h.verificationService.Create(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"id": id}))
}

// ListVerifications returns verifications filtered by status/role/user/type,
// ordered by creation time descending
func (h *VerificationHandler) ListVerifications(c *gin.Context) {
	var filter model.VerificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	verifications, err := h.verificationService.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   verifications,
		"total":  len(verifications),
	})
}

// GetStats returns the aggregate verification counters
func (h *VerificationHandler) GetStats(c *gin.Context) {
	stats, err := h.verificationService.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// SearchVerifications performs a case-insensitive substring search over shop
// name, business license, owner id and address
func (h *VerificationHandler) SearchVerifications(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "query parameter q is required"))
		return
	}

	matches, err := h.verificationService.Search(c.Request.Context(), term)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   matches,
		"total":  len(matches),
	})
}

// ExportVerifications streams the filtered listing as CSV
func (h *VerificationHandler) ExportVerifications(c *gin.Context) {
	var filter model.VerificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	verifications, err := h.verificationService.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="verifications.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(service.ExportVerificationsCSV(verifications)))
}

// PendingByRole returns pending verifications for one user role
func (h *VerificationHandler) PendingByRole(c *gin.Context) {
	role := c.Param("role")
	if !model.ValidUserRole(role) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "unknown role "+role))
		return
	}

	verifications, err := h.verificationService.PendingByRole(c.Request.Context(), role)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   verifications,
		"total":  len(verifications),
	})
}

// UpdateStatus moves a verification through the review state machine
func (h *VerificationHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status          string `json:"status" binding:"required"`
		RejectionReason string `json:"rejection_reason"`
		AdminNotes      string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	err := h.verificationService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, adminID(c), service.StatusOptions{
		RejectionReason: req.RejectionReason,
		AdminNotes:      req.AdminNotes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": c.Param("id"), "new_status": req.Status}))
}

// BulkUpdate applies a batch of partial updates atomically
func (h *VerificationHandler) BulkUpdate(c *gin.Context) {
	var req struct {
		Updates []service.BulkVerificationUpdate `json:"updates" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	if err := h.verificationService.BulkUpdate(c.Request.Context(), adminID(c), req.Updates); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": len(req.Updates)}))
}

// DeleteVerification soft-deletes a record; the document is kept
func (h *VerificationHandler) DeleteVerification(c *gin.Context) {
	if err := h.verificationService.SoftDelete(c.Request.Context(), c.Param("id"), adminID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": c.Param("id"), "deleted": true}))
}

// --- shared helpers ---

func adminID(c *gin.Context) string {
	id, _ := c.Get("userID")
	s, _ := id.(string)
	return s
}

// abortWithError maps the error taxonomy onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	var (
		validation *model.ValidationError
		notFound   *model.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
