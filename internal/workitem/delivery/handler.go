package delivery

import (
	"net/http"
	"strconv"

	"prodboard-backend/internal/workitem/usecase"

	"github.com/gin-gonic/gin"
)

// WorkItemHandler handles work-item-related HTTP requests
type WorkItemHandler struct {
	itemUsecase usecase.WorkItemUsecase
}

// NewWorkItemHandler creates a new WorkItemHandler
func NewWorkItemHandler(itemUsecase usecase.WorkItemUsecase) *WorkItemHandler {
	return &WorkItemHandler{
		itemUsecase: itemUsecase,
	}
}

// GetWorkItems returns work items for the authenticated tenant
// GET /api/work-items?status=todo&limit=50&offset=0
func (h *WorkItemHandler) GetWorkItems(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var statusPtr *string
	if status != "" {
		statusPtr = &status
	}

	items, total, err := h.itemUsecase.GetTenantWorkItems(c.Request.Context(), tenantID, statusPtr, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_items": items,
		"total":      total,
	})
}

// GetWorkItemByID returns a specific work item
// GET /api/work-items/:id
func (h *WorkItemHandler) GetWorkItemByID(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	itemID := c.Param("id")

	item, err := h.itemUsecase.GetWorkItemByID(c.Request.Context(), tenantID, itemID)
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// CreateWorkItem creates a new work item manually
// POST /api/work-items
func (h *WorkItemHandler) CreateWorkItem(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	var req usecase.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemUsecase.CreateWorkItem(c.Request.Context(), tenantID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// UpdateWorkItem updates an existing work item
// PUT /api/work-items/:id
func (h *WorkItemHandler) UpdateWorkItem(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	itemID := c.Param("id")

	var updates usecase.UpdateRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.itemUsecase.UpdateWorkItem(c.Request.Context(), tenantID, itemID, updates)
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteWorkItem deletes a work item
// DELETE /api/work-items/:id
func (h *WorkItemHandler) DeleteWorkItem(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	itemID := c.Param("id")

	if err := h.itemUsecase.DeleteWorkItem(c.Request.Context(), tenantID, itemID); err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Work item deleted successfully"})
}

// SearchWorkItems ranks items by relevance to a free-text query
// GET /api/work-items/search?q=billing&limit=20
func (h *WorkItemHandler) SearchWorkItems(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.itemUsecase.SearchWorkItems(c.Request.Context(), tenantID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_items": items,
		"count":      len(items),
	})
}

// GetComments returns the comments on a work item
// GET /api/work-items/:id/comments
func (h *WorkItemHandler) GetComments(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	itemID := c.Param("id")

	comments, err := h.itemUsecase.GetComments(c.Request.Context(), tenantID, itemID)
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

func respondUsecaseError(c *gin.Context, err error) {
	switch err.Error() {
	case "work item not found":
		c.JSON(http.StatusNotFound, gin.H{"error": "Work item not found"})
	case "unauthorized":
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
