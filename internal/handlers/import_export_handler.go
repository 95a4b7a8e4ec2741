package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/marksheet-service/internal/services"
	"github.com/SAP-F-2025/marksheet-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ImportFileField is the multipart field carrying the uploaded spreadsheet.
const ImportFileField = "excel_file"

type ImportExportHandler struct {
	BaseHandler
	importExportService services.ImportExportService
	maxUploadSize       int64
}

func NewImportExportHandler(importExportService services.ImportExportService, maxUploadSize int64, logger utils.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		BaseHandler:         NewBaseHandler(logger),
		importExportService: importExportService,
		maxUploadSize:       maxUploadSize,
	}
}

// ImportExcel parses an uploaded .xlsx, .xls or .csv file into students
// @Summary Import students from spreadsheet
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param excel_file formData file true "Spreadsheet"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /import/excel [post]
func (h *ImportExportHandler) ImportExcel(c *gin.Context) {
	if h.maxUploadSize > 0 {
		// multipart overhead on top of the file itself
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)
	}

	header, err := c.FormFile(ImportFileField)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "No file uploaded", err)
		return
	}
	if header.Filename == "" {
		h.RespondWithError(c, http.StatusBadRequest, "No file selected", nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Could not read uploaded file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing spreadsheet", "filename", header.Filename, "size", header.Size)

	result, err := h.importExportService.ImportStudentsFromFile(c.Request.Context(), file, header.Filename, header.Size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImportExportHandler) DownloadTemplate(c *gin.Context) {
	file, err := h.importExportService.GenerateImportTemplate(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendFile(c, file)
}

// ExportMarksheets downloads every matching marksheet as a workbook
// @Summary Export marksheets
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param branch query string false "Branch filter"
// @Param semester query string false "Semester filter"
// @Param exam_type query string false "Exam type filter"
// @Router /export/marksheets [get]
func (h *ImportExportHandler) ExportMarksheets(c *gin.Context) {
	file, err := h.importExportService.ExportMarksheetsToExcel(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *ImportExportHandler) ExportAtRisk(c *gin.Context) {
	file, err := h.importExportService.ExportAtRiskToCSV(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *ImportExportHandler) GetImportJob(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	job, err := h.importExportService.GetImportJob(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *ImportExportHandler) ListImportJobs(c *gin.Context) {
	jobs, err := h.importExportService.ListImportJobs(c.Request.Context(), parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func sendFile(c *gin.Context, file *services.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
