package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SAP-F-2025/marksheet-service/internal/services"
	"github.com/SAP-F-2025/marksheet-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
	dashboard        *services.DashboardRefresher
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, dashboard *services.DashboardRefresher, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
		dashboard:        dashboard,
	}
}

// GetPerformanceMetrics buckets students into performance bands
// @Summary Performance metrics
// @Tags analytics
// @Produce json
// @Param branch query string false "Branch filter"
// @Param semester query string false "Semester filter"
// @Param exam_type query string false "Exam type filter"
// @Success 200 {object} models.PerformanceMetrics
// @Router /analytics/metrics [get]
func (h *AnalyticsHandler) GetPerformanceMetrics(c *gin.Context) {
	metrics, err := h.analyticsService.GetPerformanceMetrics(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *AnalyticsHandler) GetTopPerformers(c *gin.Context) {
	var req services.TopPerformersRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	performers, err := h.analyticsService.GetTopPerformers(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"performers": performers})
}

// GetPerformersByType ranks students overall or groups them by branch or subject
// @Summary Performers by type
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body services.PerformersByTypeRequest true "Type and filters"
// @Success 200 {object} services.PerformersByTypeResponse
// @Router /analytics/performers-by-type [post]
func (h *AnalyticsHandler) GetPerformersByType(c *gin.Context) {
	var req services.PerformersByTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	resp, err := h.analyticsService.GetPerformersByType(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) GetAtRiskStudents(c *gin.Context) {
	students, err := h.analyticsService.GetAtRiskStudents(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "count": len(students)})
}

func (h *AnalyticsHandler) GetStarPerformers(c *gin.Context) {
	students, err := h.analyticsService.GetStarPerformers(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "count": len(students)})
}

func (h *AnalyticsHandler) GetGradeDistribution(c *gin.Context) {
	dist, err := h.analyticsService.GetGradeDistribution(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

func (h *AnalyticsHandler) GetSemesterStats(c *gin.Context) {
	stats, err := h.analyticsService.GetSemesterStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"semesters": stats})
}

// GetDashboard serves the most recent periodically refreshed snapshot
// @Summary Dashboard snapshot
// @Tags analytics
// @Produce json
// @Success 200 {object} models.DashboardSnapshot
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	snapshot, err := h.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
