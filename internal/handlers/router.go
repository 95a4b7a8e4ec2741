package handlers

import (
	"github.com/SAP-F-2025/marksheet-service/internal/services"
	"github.com/SAP-F-2025/marksheet-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	sessionHandler      *SessionHandler
	marksheetHandler    *MarksheetHandler
	importExportHandler *ImportExportHandler
	analyticsHandler    *AnalyticsHandler
	logger              utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	maxUploadSize int64,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:      NewSessionHandler(serviceManager.Session(), logger),
		marksheetHandler:    NewMarksheetHandler(serviceManager.Marksheet(), logger),
		importExportHandler: NewImportExportHandler(serviceManager.ImportExport(), maxUploadSize, logger),
		analyticsHandler:    NewAnalyticsHandler(serviceManager.Analytics(), serviceManager.Dashboard(), logger),
		logger:              logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(utils.ContextLogger(hm.logger), RequestContext())

	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Form sessions
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.DeleteSession)
			sessions.PUT("/:id/meta", hm.sessionHandler.UpdateMeta)

			sessions.POST("/:id/subjects", hm.sessionHandler.AddSubject)
			sessions.PUT("/:id/subjects/:index", hm.sessionHandler.EditSubject)
			sessions.POST("/:id/subjects/:index/blur", hm.sessionHandler.BlurSubject)
			sessions.DELETE("/:id/subjects/:index", hm.sessionHandler.RemoveSubject)

			sessions.POST("/:id/import", hm.sessionHandler.ImportSubjects)
			sessions.POST("/:id/reset", hm.sessionHandler.ResetSession)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
		}

		// Stored marksheets
		marksheets := v1.Group("/marksheets")
		{
			marksheets.POST("", hm.marksheetHandler.CreateMarksheet)
			marksheets.GET("", hm.marksheetHandler.ListMarksheets)
			marksheets.DELETE("", hm.marksheetHandler.ClearMarksheets)
			marksheets.POST("/bulk", hm.marksheetHandler.BulkCreateMarksheets)
			marksheets.GET("/verify/:roll_no", hm.marksheetHandler.VerifyMarksheet)
			marksheets.GET("/:id", hm.marksheetHandler.GetMarksheet)
		}

		// Spreadsheet import and export
		importGroup := v1.Group("/import")
		{
			importGroup.POST("/excel", hm.importExportHandler.ImportExcel)
			importGroup.GET("/template", hm.importExportHandler.DownloadTemplate)
			importGroup.GET("/jobs", hm.importExportHandler.ListImportJobs)
			importGroup.GET("/jobs/:id", hm.importExportHandler.GetImportJob)
		}

		export := v1.Group("/export")
		{
			export.GET("/marksheets", hm.importExportHandler.ExportMarksheets)
			export.GET("/at-risk", hm.importExportHandler.ExportAtRisk)
		}

		// Analytics
		analytics := v1.Group("/analytics")
		{
			analytics.GET("/metrics", hm.analyticsHandler.GetPerformanceMetrics)
			analytics.POST("/top-performers", hm.analyticsHandler.GetTopPerformers)
			analytics.POST("/performers-by-type", hm.analyticsHandler.GetPerformersByType)
			analytics.GET("/at-risk", hm.analyticsHandler.GetAtRiskStudents)
			analytics.GET("/star-performers", hm.analyticsHandler.GetStarPerformers)
			analytics.GET("/grade-distribution", hm.analyticsHandler.GetGradeDistribution)
			analytics.GET("/semester-stats", hm.analyticsHandler.GetSemesterStats)
			analytics.GET("/dashboard", hm.analyticsHandler.GetDashboard)
		}
	}
}
