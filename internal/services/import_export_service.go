package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

// ImportExportService handles spreadsheet import and export of marksheets
type ImportExportService interface {
	// Import operations
	ImportStudentsFromFile(ctx context.Context, reader io.Reader, filename string, size int64) (*ImportResult, error)
	ParseStudentRows(rows [][]string) ([]models.ImportedStudent, *models.ImportSummary, error)

	// Export operations
	ExportMarksheetsToExcel(ctx context.Context, filter models.MarksheetFilter) (*ExportFile, error)
	ExportAtRiskToCSV(ctx context.Context, filter models.MarksheetFilter) (*ExportFile, error)
	GenerateImportTemplate(ctx context.Context) (*ExportFile, error)

	// Job management
	GetImportJob(ctx context.Context, jobID string) (*models.ImportJob, error)
	ListImportJobs(ctx context.Context, limit int) ([]*models.ImportJob, error)
}

// Column headers of the import sheet. Every other column is a subject.
const (
	ColumnStudentName = "Student Name"
	ColumnRollNumber  = "Roll Number"
	ColumnBranch      = "Branch"
	ColumnSemester    = "Semester"
	ColumnExamType    = "Exam Type"
)

var RequiredImportColumns = []string{
	ColumnStudentName,
	ColumnRollNumber,
	ColumnBranch,
	ColumnSemester,
	ColumnExamType,
}

// Imported marks are accepted within this range and stored out of
// importMaxMarks.
const (
	importMinMarks = 0.0
	importMaxMarks = 100
)

type ImportResult struct {
	JobID    string                   `json:"job_id"`
	Status   models.ImportJobStatus   `json:"status"`
	Students []models.ImportedStudent `json:"data"`
	Summary  *models.ImportSummary    `json:"summary"`
	Message  string                   `json:"message"`
}

type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"
)

type importExportService struct {
	repo          repositories.Repository
	notifications NotificationEventService
	logger        *slog.Logger
	maxUploadSize int64
	now           func() time.Time
}

func NewImportExportService(
	repo repositories.Repository,
	notifications NotificationEventService,
	logger *slog.Logger,
	maxUploadSize int64,
) ImportExportService {
	return &importExportService{
		repo:          repo,
		notifications: notifications,
		logger:        logger,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
	}
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportStudentsFromFile(ctx context.Context, reader io.Reader, filename string, size int64) (*ImportResult, error) {
	s.logger.Info("Starting file import", "filename", filename, "size", size)

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" && ext != ".xls" && ext != ".csv" {
		return nil, ErrUnsupportedFile
	}
	if s.maxUploadSize > 0 && size > s.maxUploadSize {
		return nil, ErrFileTooLarge
	}

	started := s.now()
	job := &models.ImportJob{
		ID:        uuid.NewString(),
		FileName:  filename,
		FileType:  strings.TrimPrefix(ext, "."),
		FileSize:  size,
		Status:    models.ImportProcessing,
		StartedAt: &started,
	}
	if err := s.repo.ImportJob().Create(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}

	var rows [][]string
	var err error
	if ext == ".csv" {
		rows, err = readCSVRows(reader)
	} else {
		rows, err = readExcelRows(reader)
	}
	if err != nil {
		s.finishJob(ctx, job, models.ImportFailed, nil, nil)
		return nil, err
	}

	students, summary, err := s.ParseStudentRows(rows)
	if err != nil {
		s.finishJob(ctx, job, models.ImportValidationFailed, summary, students)
		return nil, err
	}
	summary.ProcessingTime = s.now().Sub(started)
	s.finishJob(ctx, job, models.ImportCompleted, summary, students)

	s.logger.Info("File import completed",
		"job_id", job.ID,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"skipped_count", summary.SkippedCount)

	return &ImportResult{
		JobID:    job.ID,
		Status:   job.Status,
		Students: students,
		Summary:  summary,
		Message:  fmt.Sprintf("Successfully processed %d students", len(students)),
	}, nil
}

// ParseStudentRows applies the import column contract to a sheet whose first
// row is the header. Rows without a single valid subject mark are skipped.
func (s *importExportService) ParseStudentRows(rows [][]string) ([]models.ImportedStudent, *models.ImportSummary, error) {
	summary := &models.ImportSummary{}
	if len(rows) == 0 {
		return nil, summary, ErrNoValidStudentData
	}

	headers := make([]string, len(rows[0]))
	headerMap := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
		if _, dup := headerMap[headers[i]]; !dup {
			headerMap[headers[i]] = i
		}
	}

	var missing []string
	for _, col := range RequiredImportColumns {
		if _, ok := headerMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, summary, NewValidationError("file",
			fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")), missing)
	}

	required := make(map[string]bool, len(RequiredImportColumns))
	for _, col := range RequiredImportColumns {
		required[col] = true
	}
	var subjectColumns []int
	for i, header := range headers {
		if header != "" && !required[header] {
			subjectColumns = append(subjectColumns, i)
			summary.SubjectColumns = append(summary.SubjectColumns, header)
		}
	}

	var students []models.ImportedStudent
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rowNum := i + 2
		summary.TotalRows++

		student := models.ImportedStudent{
			Row:      rowNum,
			Name:     cell(row, headerMap[ColumnStudentName]),
			RollNo:   cell(row, headerMap[ColumnRollNumber]),
			Branch:   cell(row, headerMap[ColumnBranch]),
			Semester: cell(row, headerMap[ColumnSemester]),
			ExamType: cell(row, headerMap[ColumnExamType]),
		}

		for _, col := range subjectColumns {
			raw := cell(row, col)
			if raw == "" {
				continue
			}
			marks, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(marks) || math.IsInf(marks, 0) {
				summary.Errors = append(summary.Errors, models.ImportValidationError{
					Row: rowNum, Column: headers[col], Value: raw,
					Message: "marks are not a number", Code: "invalid_marks",
				})
				continue
			}
			if marks < importMinMarks || marks > importMaxMarks {
				summary.Errors = append(summary.Errors, models.ImportValidationError{
					Row: rowNum, Column: headers[col], Value: raw,
					Message: "marks must be between 0 and 100", Code: "marks_out_of_range",
				})
				continue
			}
			student.Subjects = append(student.Subjects, models.ImportedSubject{
				Name:     headers[col],
				Marks:    int(marks),
				MaxMarks: importMaxMarks,
			})
		}

		if len(student.Subjects) == 0 {
			summary.SkippedCount++
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row: rowNum, Message: "row has no valid subject marks", Code: "no_valid_subjects",
			})
			continue
		}
		students = append(students, student)
		summary.SuccessCount++
	}
	summary.ErrorCount = len(summary.Errors)

	if len(students) == 0 {
		return nil, summary, ErrNoValidStudentData
	}
	return students, summary, nil
}

func (s *importExportService) finishJob(ctx context.Context, job *models.ImportJob, status models.ImportJobStatus, summary *models.ImportSummary, students []models.ImportedStudent) {
	completed := s.now()
	job.Status = status
	job.CompletedAt = &completed

	if summary != nil {
		job.TotalRows = summary.TotalRows
		job.SuccessCount = summary.SuccessCount
		job.SkippedCount = summary.SkippedCount
		job.ErrorCount = summary.ErrorCount
		if data, err := json.Marshal(summary.Errors); err == nil {
			job.Errors = datatypes.JSON(data)
		}
		if data, err := json.Marshal(summary); err == nil {
			job.Summary = datatypes.JSON(data)
		}
	}

	if err := s.repo.ImportJob().Update(ctx, nil, job); err != nil {
		s.logger.Error("Failed to update import job", "job_id", job.ID, "error", err)
	}
	if err := s.notifications.NotifyImportCompleted(ctx, job); err != nil {
		s.logger.Warn("Failed to publish import completed event", "job_id", job.ID, "error", err)
	}
}

// ===== EXPORT OPERATIONS =====

var (
	studentSheetHeaders = []string{
		"ID", "Name", "Roll Number", "Branch", "Semester", "Exam Type",
		"Total Marks", "Max Marks", "Percentage", "Grade", "Remarks",
		"Class Teacher", "Principal", "Created At",
	}
	subjectSheetHeaders = []string{
		"ID", "Marksheet ID", "Roll Number", "Subject", "Marks", "Max Marks", "Grade",
	}
	atRiskHeaders = []string{"Name", "Roll Number", "Branch", "Semester", "Exam Type", "Percentage"}
)

// ExportMarksheetsToExcel writes every matching marksheet to a workbook with
// a Students sheet and a Subjects sheet.
func (s *importExportService) ExportMarksheetsToExcel(ctx context.Context, filter models.MarksheetFilter) (*ExportFile, error) {
	marksheets, err := s.repo.Marksheet().ListWithSubjects(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load marksheets: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const studentsSheet, subjectsSheet = "Students", "Subjects"
	if err := f.SetSheetName("Sheet1", studentsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(subjectsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := writeSheetRow(f, studentsSheet, 1, toCells(studentSheetHeaders), headerStyle); err != nil {
		return nil, err
	}
	if err := writeSheetRow(f, subjectsSheet, 1, toCells(subjectSheetHeaders), headerStyle); err != nil {
		return nil, err
	}

	subjectRow := 2
	for i, m := range marksheets {
		row := []interface{}{
			m.ID, m.Name, m.RollNo, m.Branch, m.Semester, m.ExamType,
			m.TotalMarks, m.MaxMarks, m.Percentage, m.Grade, m.Remarks,
			derefString(m.ClassTeacher), derefString(m.Principal), m.CreatedAt.Format(time.RFC3339),
		}
		if err := writeSheetRow(f, studentsSheet, i+2, row, 0); err != nil {
			return nil, err
		}

		for _, subject := range m.Subjects {
			row := []interface{}{subject.ID, m.ID, m.RollNo, subject.Name, subject.Marks, subject.MaxMarks, subject.Grade}
			if err := writeSheetRow(f, subjectsSheet, subjectRow, row, 0); err != nil {
				return nil, err
			}
			subjectRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Marksheets exported", "count", len(marksheets))
	return &ExportFile{
		FileName:    fmt.Sprintf("marksheet_data_%s.xlsx", s.now().Format("20060102_150405")),
		ContentType: contentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

// ExportAtRiskToCSV lists students below the at-risk threshold, lowest first.
func (s *importExportService) ExportAtRiskToCSV(ctx context.Context, filter models.MarksheetFilter) (*ExportFile, error) {
	students, err := s.repo.Marksheet().GetBelowPercentage(ctx, nil, models.AtRiskThreshold, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load at-risk students: %w", err)
	}
	if len(students) == 0 {
		return nil, ErrNoDataToExport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(atRiskHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, st := range students {
		record := []string{
			st.Name, st.RollNo, st.Branch, st.Semester, st.ExamType,
			strconv.FormatFloat(st.Percentage, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}

	return &ExportFile{
		FileName:    "at_risk_students.csv",
		ContentType: contentTypeCSV,
		Data:        buf.Bytes(),
	}, nil
}

// GenerateImportTemplate returns a workbook with the expected header row and
// one example student.
func (s *importExportService) GenerateImportTemplate(ctx context.Context) (*ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Students"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := append(append([]string{}, RequiredImportColumns...), "Mathematics", "Physics", "Chemistry")
	example := []interface{}{"John Doe", "CS2024001", "Computer Science", "3", "Mid Term", 85, 78, 92}

	if err := writeSheetRow(f, sheet, 1, toCells(headers), headerStyle); err != nil {
		return nil, err
	}
	if err := writeSheetRow(f, sheet, 2, example, 0); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return &ExportFile{
		FileName:    "marksheet_import_template.xlsx",
		ContentType: contentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

// ===== JOB MANAGEMENT =====

func (s *importExportService) GetImportJob(ctx context.Context, jobID string) (*models.ImportJob, error) {
	job, err := s.repo.ImportJob().GetByID(ctx, nil, jobID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrImportJobNotFound
		}
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}
	return job, nil
}

func (s *importExportService) ListImportJobs(ctx context.Context, limit int) ([]*models.ImportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	jobs, err := s.repo.ImportJob().ListRecent(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	return jobs, nil
}

// ===== HELPERS =====

func readCSVRows(reader io.Reader) ([][]string, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, NewValidationError("file", fmt.Sprintf("Error reading CSV file: %v", err), nil)
	}
	return records, nil
}

func readExcelRows(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, NewValidationError("file", fmt.Sprintf("Error reading Excel file: %v", err), nil)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

func writeSheetRow(f *excelize.File, sheet string, rowNum int, values []interface{}, style int) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet, err)
	}
	if style != 0 {
		end, err := excelize.CoordinatesToCellName(len(values), rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return fmt.Errorf("failed to style row %d of %s: %w", rowNum, sheet, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
