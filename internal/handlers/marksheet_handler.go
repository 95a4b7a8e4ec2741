package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/SAP-F-2025/marksheet-service/internal/services"
	"github.com/SAP-F-2025/marksheet-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type MarksheetHandler struct {
	BaseHandler
	marksheetService services.MarksheetService
}

func NewMarksheetHandler(marksheetService services.MarksheetService, logger utils.Logger) *MarksheetHandler {
	return &MarksheetHandler{
		BaseHandler:      NewBaseHandler(logger),
		marksheetService: marksheetService,
	}
}

// CreateMarksheet stores a marksheet from numeric subject marks
// @Summary Create marksheet
// @Tags marksheets
// @Accept json
// @Produce json
// @Param marksheet body services.CreateMarksheetRequest true "Marksheet data"
// @Success 201 {object} models.Marksheet
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /marksheets [post]
func (h *MarksheetHandler) CreateMarksheet(c *gin.Context) {
	var req services.CreateMarksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	m, err := h.marksheetService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Marksheet created", "marksheet_id", m.ID, "roll_no", m.RollNo)
	c.JSON(http.StatusCreated, m)
}

// ListMarksheets returns stored marksheets, newest first by default
// @Summary List marksheets
// @Tags marksheets
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param branch query string false "Branch filter"
// @Param semester query string false "Semester filter"
// @Param exam_type query string false "Exam type filter"
// @Param search query string false "Name or roll number"
// @Success 200 {object} services.MarksheetListResponse
// @Router /marksheets [get]
func (h *MarksheetHandler) ListMarksheets(c *gin.Context) {
	resp, err := h.marksheetService.List(c.Request.Context(), parseListFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MarksheetHandler) GetMarksheet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	m, err := h.marksheetService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// VerifyMarksheet looks a result up by roll number
// @Summary Verify marksheet
// @Tags marksheets
// @Produce json
// @Param roll_no path string true "Roll number"
// @Success 200 {object} models.Marksheet
// @Failure 404 {object} ErrorResponse
// @Router /marksheets/verify/{roll_no} [get]
func (h *MarksheetHandler) VerifyMarksheet(c *gin.Context) {
	m, err := h.marksheetService.VerifyByRollNo(c.Request.Context(), c.Param("roll_no"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// BulkCreateMarksheets stores a batch of students, typically an import
// @Summary Bulk create marksheets
// @Tags marksheets
// @Accept json
// @Produce json
// @Param students body services.BulkCreateRequest true "Students"
// @Success 201 {object} SuccessResponse{data=repositories.BulkCreateResult}
// @Router /marksheets/bulk [post]
func (h *MarksheetHandler) BulkCreateMarksheets(c *gin.Context) {
	var req services.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	result, err := h.marksheetService.BulkCreate(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, bulkCreateMessage(result), result)
}

// ClearMarksheets deletes every stored marksheet
// @Summary Clear all marksheets
// @Tags marksheets
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /marksheets [delete]
func (h *MarksheetHandler) ClearMarksheets(c *gin.Context) {
	deleted, err := h.marksheetService.ClearAll(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "All marksheet data cleared", "deleted_count", deleted)
	h.RespondWithSuccess(c, http.StatusOK, "All data cleared successfully", gin.H{"deleted": deleted})
}

func bulkCreateMessage(result *repositories.BulkCreateResult) string {
	message := fmt.Sprintf("Successfully created %d marksheets", result.Created)
	if n := len(result.Duplicates); n > 0 {
		message += fmt.Sprintf(", skipped %d duplicates", n)
	}
	return message
}

func parseListFilters(c *gin.Context) repositories.MarksheetFilters {
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := parseIntQuery(c, "size", defaultPageSize)
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	return repositories.MarksheetFilters{
		MarksheetFilter: parseFilter(c),
		Search:          strings.TrimSpace(c.Query("search")),
		Limit:           size,
		Offset:          (page - 1) * size,
		SortBy:          c.Query("sort_by"),
		SortOrder:       c.Query("sort_order"),
	}
}
