package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/services"
	"github.com/SAP-F-2025/marksheet-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ActorHeader names the caller for audit logs. Requests without it are
// attributed to the client address.
const ActorHeader = "X-Actor"

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parseIDParam parses a numeric path parameter; ok is false once an error
// response has been written.
func parseIDParam(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// parseIndexParam parses a zero based subject index from the path.
func parseIndexParam(c *gin.Context, param string) (int, bool) {
	index, err := strconv.Atoi(c.Param(param))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "index must be a non-negative integer",
		})
		return 0, false
	}
	return index, true
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(param))
	if err != nil {
		return defaultValue
	}
	return value
}

// parseFilter reads the branch, semester and exam_type query parameters.
func parseFilter(c *gin.Context) models.MarksheetFilter {
	var filter models.MarksheetFilter
	_ = c.ShouldBindQuery(&filter)
	return filter
}

// RequestContext copies the request id and the actor onto the request
// context so service operation logs carry them.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = c.ClientIP()
		}

		ctx := services.WithActor(c.Request.Context(), actor)
		if requestID := utils.GetRequestID(c); requestID != "" {
			ctx = services.WithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "marksheet-service",
	})
}
