package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"prodboard-backend/internal/triage/domain"
	"prodboard-backend/internal/triage/usecase"

	"github.com/gin-gonic/gin"
)

// TriageHandler handles triage-related HTTP requests
type TriageHandler struct {
	triageUsecase usecase.TriageUsecase
}

// NewTriageHandler creates a new TriageHandler
func NewTriageHandler(triageUsecase usecase.TriageUsecase) *TriageHandler {
	return &TriageHandler{
		triageUsecase: triageUsecase,
	}
}

// ProcessMessage triggers the triage workflow for one inbound message
// POST /api/triage/messages/:id
func (h *TriageHandler) ProcessMessage(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	sourceID := c.Param("id")

	result, err := h.triageUsecase.ProcessMessage(c.Request.Context(), tenantID, sourceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Skipped {
		c.JSON(http.StatusOK, gin.H{
			"skipped": true,
			"message": "Message requires no action",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOutcomes returns triage outcomes for the authenticated tenant
// GET /api/triage/outcomes?status=pending&limit=50&offset=0
func (h *TriageHandler) GetOutcomes(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var statusFilter *domain.OutcomeStatus
	if status != "" {
		s := domain.OutcomeStatus(status)
		statusFilter = &s
	}

	outcomes, total, err := h.triageUsecase.ListOutcomes(c.Request.Context(), tenantID, statusFilter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcomes": outcomes,
		"total":    total,
	})
}

// GetOutcomeByID returns a specific triage outcome
// GET /api/triage/outcomes/:id
func (h *TriageHandler) GetOutcomeByID(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	outcomeID := c.Param("id")

	outcome, err := h.triageUsecase.GetOutcome(c.Request.Context(), tenantID, outcomeID)
	if err != nil {
		respondOutcomeError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// ApproveOutcome executes a pending outcome's action
// POST /api/triage/outcomes/:id/approve
func (h *TriageHandler) ApproveOutcome(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	outcomeID := c.Param("id")

	outcome, err := h.triageUsecase.ApproveOutcome(c.Request.Context(), tenantID, outcomeID)
	if err != nil {
		respondOutcomeError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// RejectOutcome rejects a pending outcome without executing its action
// POST /api/triage/outcomes/:id/reject
func (h *TriageHandler) RejectOutcome(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	outcomeID := c.Param("id")

	outcome, err := h.triageUsecase.RejectOutcome(c.Request.Context(), tenantID, outcomeID)
	if err != nil {
		respondOutcomeError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func respondOutcomeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrOutcomeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Outcome not found"})
	case errors.Is(err, usecase.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	case errors.Is(err, usecase.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Outcome is not pending"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
