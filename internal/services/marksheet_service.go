package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/marksheet-service/internal/cache"
	"github.com/SAP-F-2025/marksheet-service/internal/marksheet"
	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
	"gorm.io/gorm"
)

// MarksheetService stores generated marksheets and serves them back. It is
// also the transport form sessions submit through.
type MarksheetService interface {
	marksheet.Transport

	Create(ctx context.Context, req *CreateMarksheetRequest) (*models.Marksheet, error)
	GetByID(ctx context.Context, id uint) (*models.Marksheet, error)
	VerifyByRollNo(ctx context.Context, rollNo string) (*models.Marksheet, error)
	List(ctx context.Context, filters repositories.MarksheetFilters) (*MarksheetListResponse, error)
	BulkCreate(ctx context.Context, req *BulkCreateRequest) (*repositories.BulkCreateResult, error)
	ClearAll(ctx context.Context) (int64, error)
}

// ===== REQUEST / RESPONSE TYPES =====

type SubjectInput struct {
	Name     string `json:"name" validate:"required,not_blank,max=100"`
	Marks    int    `json:"marks" validate:"marks_value"`
	MaxMarks int    `json:"max_marks" validate:"min=1"`
}

type CreateMarksheetRequest struct {
	StudentName      string         `json:"student_name" validate:"required,not_blank,max=100"`
	RollNo           string         `json:"roll_no" validate:"required,not_blank,max=50"`
	Branch           string         `json:"branch" validate:"required,not_blank,max=100"`
	Semester         string         `json:"semester" validate:"required,not_blank,max=20"`
	ExamType         string         `json:"exam_type" validate:"required,not_blank,max=50"`
	ClassTeacher     string         `json:"class_teacher" validate:"max=100"`
	Principal        string         `json:"principal" validate:"max=100"`
	IncludeSignature bool           `json:"include_signature"`
	IncludeSeal      bool           `json:"include_seal"`
	Subjects         []SubjectInput `json:"subjects" validate:"required,min=1,dive"`
}

// ValidateBusiness checks every subject against its own maximum.
func (r *CreateMarksheetRequest) ValidateBusiness() ValidationErrors {
	var errs ValidationErrors
	for i, subject := range r.Subjects {
		if subject.Marks > subject.MaxMarks {
			message := fmt.Sprintf("Marks cannot exceed maximum marks for %s", strings.TrimSpace(subject.Name))
			errs = append(errs, *NewSubjectValidationError(i, "marks", message, subject.Marks))
		}
	}
	return errs
}

// MaxBulkStudents caps a single bulk create request.
const MaxBulkStudents = 1000

type BulkCreateRequest struct {
	Students []CreateMarksheetRequest `json:"students" validate:"required,min=1"`
}

type MarksheetListResponse struct {
	Marksheets []*models.Marksheet `json:"marksheets"`
	Total      int64               `json:"total"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

type marksheetService struct {
	repo          repositories.Repository
	cache         cache.CacheService
	notifications NotificationEventService
	logger        *slog.Logger
	validator     *validator.Validator
	serviceLogger *ServiceLogger
}

func NewMarksheetService(
	repo repositories.Repository,
	cache cache.CacheService,
	notifications NotificationEventService,
	logger *slog.Logger,
	validator *validator.Validator,
) MarksheetService {
	return &marksheetService{
		repo:          repo,
		cache:         cache,
		notifications: notifications,
		logger:        logger,
		validator:     validator,
		serviceLogger: NewServiceLogger(logger, LogConfig{Service: "marksheet-service", Component: "marksheet"}),
	}
}

// ===== TRANSPORT =====

// Submit stores a draft that already passed form validation.
func (s *marksheetService) Submit(ctx context.Context, draft marksheet.Draft) (marksheet.Receipt, error) {
	req := &CreateMarksheetRequest{
		StudentName:      draft.Meta.StudentName,
		RollNo:           draft.Meta.RollNo,
		Branch:           draft.Meta.Branch,
		Semester:         draft.Meta.Semester,
		ExamType:         draft.Meta.ExamType,
		ClassTeacher:     draft.Meta.ClassTeacher,
		Principal:        draft.Meta.Principal,
		IncludeSignature: draft.Meta.IncludeSignature,
		IncludeSeal:      draft.Meta.IncludeSeal,
	}
	for _, entry := range draft.Subjects {
		marks, maxMarks, ok := entry.Numbers()
		if !ok {
			return marksheet.Receipt{}, NewValidationError("subjects", fmt.Sprintf("Invalid marks for %s", entry.Name), entry.MarksObtained)
		}
		req.Subjects = append(req.Subjects, SubjectInput{Name: entry.Name, Marks: marks, MaxMarks: maxMarks})
	}

	created, err := s.Create(ctx, req)
	if err != nil {
		return marksheet.Receipt{}, err
	}
	return marksheet.Receipt{ID: created.ID}, nil
}

// ===== CORE OPERATIONS =====

func (s *marksheetService) Create(ctx context.Context, req *CreateMarksheetRequest) (*models.Marksheet, error) {
	op := s.serviceLogger.WithOperation(ctx, "create_marksheet", actorFromContext(ctx))

	m, err := s.create(ctx, req)
	if err != nil {
		op.LogResult(req.RollNo, "marksheet", err)
		return nil, err
	}

	op.LogResult(strconv.FormatUint(uint64(m.ID), 10), "marksheet", nil)
	op.LogAudit(AuditEventCreate, strconv.FormatUint(uint64(m.ID), 10), "marksheet", map[string]interface{}{
		"roll_no": m.RollNo,
		"grade":   m.Grade,
	})

	if err := s.notifications.NotifyMarksheetCreated(ctx, m); err != nil {
		s.logger.Warn("Failed to publish marksheet created event", "marksheet_id", m.ID, "error", err)
	}
	s.invalidateAnalytics(ctx)
	return m, nil
}

func (s *marksheetService) create(ctx context.Context, req *CreateMarksheetRequest) (*models.Marksheet, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	m := buildMarksheet(req)
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.Marksheet().ExistsByRollNo(ctx, tx, m.RollNo)
		if err != nil {
			return fmt.Errorf("failed to check roll number: %w", err)
		}
		if exists {
			return ErrDuplicateRollNo
		}
		if err := s.repo.Marksheet().Create(ctx, tx, m); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrDuplicateRollNo
			}
			return fmt.Errorf("failed to create marksheet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *marksheetService) GetByID(ctx context.Context, id uint) (*models.Marksheet, error) {
	m, err := s.repo.Marksheet().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMarksheetNotFound
		}
		return nil, fmt.Errorf("failed to get marksheet: %w", err)
	}
	return m, nil
}

// VerifyByRollNo looks up a published result by roll number.
func (s *marksheetService) VerifyByRollNo(ctx context.Context, rollNo string) (*models.Marksheet, error) {
	rollNo = strings.TrimSpace(rollNo)
	if rollNo == "" {
		return nil, NewValidationError("roll_no", "Please enter a verification code!", rollNo)
	}

	m, err := s.repo.Marksheet().GetByRollNo(ctx, nil, rollNo)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMarksheetNotFound
		}
		return nil, fmt.Errorf("failed to verify marksheet: %w", err)
	}
	return m, nil
}

func (s *marksheetService) List(ctx context.Context, filters repositories.MarksheetFilters) (*MarksheetListResponse, error) {
	marksheets, total, err := s.repo.Marksheet().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list marksheets: %w", err)
	}
	return &MarksheetListResponse{
		Marksheets: marksheets,
		Total:      total,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}, nil
}

// BulkCreate stores imported students in one transaction. Students whose
// roll number already exists, or repeats within the batch, are skipped, and
// so are students that do not validate.
func (s *marksheetService) BulkCreate(ctx context.Context, req *BulkCreateRequest) (*repositories.BulkCreateResult, error) {
	op := s.serviceLogger.WithOperation(ctx, "bulk_create_marksheets", actorFromContext(ctx))

	if err := s.validator.Validate(req); err != nil {
		op.LogResult("", "marksheet", err)
		return nil, err
	}
	if len(req.Students) > MaxBulkStudents {
		err := NewBusinessRuleError("bulk_batch_limit",
			fmt.Sprintf("A batch may hold at most %d students", MaxBulkStudents),
			map[string]interface{}{"count": len(req.Students)})
		op.LogResult("", "marksheet", err)
		return nil, err
	}

	result := &repositories.BulkCreateResult{}
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		seen := make(map[string]bool, len(req.Students))
		for i := range req.Students {
			student := req.Students[i]
			student.IncludeSignature = true
			student.IncludeSeal = true

			if err := s.validator.Validate(&student); err != nil {
				s.logger.Warn("Skipping invalid student in bulk create",
					"roll_no", student.RollNo,
					"error", err)
				result.Invalid = append(result.Invalid, student.RollNo)
				continue
			}

			rollNo := strings.TrimSpace(student.RollNo)
			if seen[rollNo] {
				result.Duplicates = append(result.Duplicates, rollNo)
				continue
			}
			seen[rollNo] = true

			exists, err := s.repo.Marksheet().ExistsByRollNo(ctx, tx, rollNo)
			if err != nil {
				return fmt.Errorf("failed to check roll number %s: %w", rollNo, err)
			}
			if exists {
				result.Duplicates = append(result.Duplicates, rollNo)
				continue
			}

			if err := s.repo.Marksheet().Create(ctx, tx, buildMarksheet(&student)); err != nil {
				return fmt.Errorf("failed to create marksheet for %s: %w", rollNo, err)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		op.LogResult("", "marksheet", err)
		return nil, err
	}

	op.LogResult(strconv.Itoa(result.Created), "marksheet", nil)
	if err := s.notifications.NotifyBulkCreated(ctx, result); err != nil {
		s.logger.Warn("Failed to publish bulk created event", "error", err)
	}
	if result.Created > 0 {
		s.invalidateAnalytics(ctx)
	}
	return result, nil
}

// ClearAll deletes every marksheet and its subjects.
func (s *marksheetService) ClearAll(ctx context.Context) (int64, error) {
	op := s.serviceLogger.WithOperation(ctx, "clear_all_marksheets", actorFromContext(ctx))

	var deleted int64
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.Marksheet().DeleteAll(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to delete marksheets: %w", err)
		}
		deleted = n
		return nil
	})
	op.LogResult("*", "marksheet", err)
	if err != nil {
		return 0, err
	}

	op.LogAudit(AuditEventDelete, "*", "marksheet", map[string]interface{}{"deleted_count": deleted})
	if err := s.notifications.NotifyDataCleared(ctx, deleted); err != nil {
		s.logger.Warn("Failed to publish data cleared event", "error", err)
	}
	s.invalidateAnalytics(ctx)
	return deleted, nil
}

// ===== HELPERS =====

func (s *marksheetService) invalidateAnalytics(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, AnalyticsCachePrefix+"*"); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache", "error", err)
	}
}

// buildMarksheet computes the totals, the overall grade and a grade per
// subject from a validated request.
func buildMarksheet(req *CreateMarksheetRequest) *models.Marksheet {
	entries := make([]marksheet.SubjectEntry, 0, len(req.Subjects))
	subjects := make([]models.Subject, 0, len(req.Subjects))
	for _, in := range req.Subjects {
		entries = append(entries, marksheet.SubjectEntry{
			Name:          in.Name,
			MarksObtained: strconv.Itoa(in.Marks),
			MaxMarks:      strconv.Itoa(in.MaxMarks),
		})
		subjects = append(subjects, models.Subject{
			Name:     strings.TrimSpace(in.Name),
			Marks:    in.Marks,
			MaxMarks: in.MaxMarks,
			Grade:    string(marksheet.Classify(marksheet.Percentage(in.Marks, in.MaxMarks)).Grade),
		})
	}
	agg := marksheet.Aggregate(entries)

	return &models.Marksheet{
		Name:             strings.TrimSpace(req.StudentName),
		RollNo:           strings.TrimSpace(req.RollNo),
		Branch:           strings.TrimSpace(req.Branch),
		Semester:         strings.TrimSpace(req.Semester),
		ExamType:         strings.TrimSpace(req.ExamType),
		TotalMarks:       agg.TotalMarks,
		MaxMarks:         agg.TotalMaxMarks,
		Percentage:       agg.Percentage,
		Grade:            string(agg.Grade),
		Remarks:          agg.Remarks,
		ClassTeacher:     optionalString(req.ClassTeacher),
		Principal:        optionalString(req.Principal),
		IncludeSignature: req.IncludeSignature,
		IncludeSeal:      req.IncludeSeal,
		Subjects:         subjects,
		SubjectCount:     len(subjects),
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
