package postgres

import (
	"context"
	"strings"

	"github.com/SAP-F-2025/marksheet-service/internal/models"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories"
	"gorm.io/gorm"
)

const defaultHistoryLimit = 50

type MarksheetPostgreSQL struct {
	db *gorm.DB
}

func NewMarksheetPostgreSQL(db *gorm.DB) repositories.MarksheetRepository {
	return &MarksheetPostgreSQL{db: db}
}

// Create stores a marksheet together with its subjects
func (m *MarksheetPostgreSQL) Create(ctx context.Context, tx *gorm.DB, marksheet *models.Marksheet) error {
	return getDB(m.db, tx).WithContext(ctx).Create(marksheet).Error
}

func (m *MarksheetPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Marksheet, error) {
	var marksheet models.Marksheet
	if err := getDB(m.db, tx).WithContext(ctx).
		Preload("Subjects", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&marksheet, id).Error; err != nil {
		return nil, err
	}
	marksheet.SubjectCount = len(marksheet.Subjects)
	return &marksheet, nil
}

func (m *MarksheetPostgreSQL) GetByRollNo(ctx context.Context, tx *gorm.DB, rollNo string) (*models.Marksheet, error) {
	var marksheet models.Marksheet
	if err := getDB(m.db, tx).WithContext(ctx).
		Preload("Subjects", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("roll_no = ?", rollNo).
		First(&marksheet).Error; err != nil {
		return nil, err
	}
	marksheet.SubjectCount = len(marksheet.Subjects)
	return &marksheet, nil
}

func (m *MarksheetPostgreSQL) ExistsByRollNo(ctx context.Context, tx *gorm.DB, rollNo string) (bool, error) {
	var count int64
	if err := getDB(m.db, tx).WithContext(ctx).
		Model(&models.Marksheet{}).
		Where("roll_no = ?", rollNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteAll removes every marksheet; subjects go with them through the cascade.
func (m *MarksheetPostgreSQL) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := getDB(m.db, tx).WithContext(ctx)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Subject{}).Error; err != nil {
		return 0, err
	}
	result := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Marksheet{})
	return result.RowsAffected, result.Error
}

func (m *MarksheetPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.MarksheetFilters) ([]*models.Marksheet, int64, error) {
	var marksheets []*models.Marksheet
	var total int64

	// apply filter first
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filters.MarksheetFilter, "")
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR roll_no ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = applyPaginationAndSort(query, filters)

	if err := query.Preload("Subjects").Find(&marksheets).Error; err != nil {
		return nil, 0, err
	}
	for _, ms := range marksheets {
		ms.SubjectCount = len(ms.Subjects)
	}

	return marksheets, total, nil
}

func (m *MarksheetPostgreSQL) ListWithSubjects(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]*models.Marksheet, error) {
	var marksheets []*models.Marksheet
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filter, "")
	if err := query.
		Preload("Subjects", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Order("id ASC").
		Find(&marksheets).Error; err != nil {
		return nil, err
	}
	return marksheets, nil
}

// ===== ANALYTICS =====

func (m *MarksheetPostgreSQL) GetPerformanceMetrics(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) (*models.PerformanceMetrics, error) {
	var metrics models.PerformanceMetrics
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filter, "")

	err := query.Select(`
		COUNT(CASE WHEN percentage >= ? THEN 1 END) AS excellent,
		COUNT(CASE WHEN percentage >= ? AND percentage < ? THEN 1 END) AS good,
		COUNT(CASE WHEN percentage >= ? AND percentage < ? THEN 1 END) AS average,
		COUNT(CASE WHEN percentage < ? THEN 1 END) AS poor,
		COUNT(*) AS total,
		COALESCE(ROUND(AVG(percentage)::numeric, 2), 0) AS avg_percentage`,
		models.ExcellentThreshold,
		models.GoodThreshold, models.ExcellentThreshold,
		models.AverageThreshold, models.GoodThreshold,
		models.AverageThreshold,
	).Scan(&metrics).Error
	if err != nil {
		return nil, err
	}

	if metrics.Total > 0 {
		metrics.ExcellentShare = float64(metrics.Excellent) / float64(metrics.Total) * 100
	}
	return &metrics, nil
}

func (m *MarksheetPostgreSQL) GetTopPerformers(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter, limit int) ([]models.Performer, error) {
	var performers []models.Performer
	if limit <= 0 {
		limit = 10
	}
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filter, "")
	if err := query.
		Select(performerColumns).
		Order("percentage DESC, name ASC").
		Limit(limit).
		Scan(&performers).Error; err != nil {
		return nil, err
	}
	return performers, nil
}

func (m *MarksheetPostgreSQL) GetBranchPerformance(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]models.GroupPerformance, error) {
	var groups []models.GroupPerformance
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filter, "")
	if err := query.
		Select(`branch AS name, COUNT(*) AS count,
			ROUND(AVG(percentage)::numeric, 2) AS avg_percentage,
			MAX(percentage) AS max_percentage`).
		Group("branch").
		Order("avg_percentage DESC").
		Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (m *MarksheetPostgreSQL) GetSubjectPerformance(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) ([]models.GroupPerformance, error) {
	var groups []models.GroupPerformance
	query := getDB(m.db, tx).WithContext(ctx).
		Table("subjects").
		Joins("JOIN marksheets ON marksheets.id = subjects.marksheet_id").
		Where("subjects.max_marks > 0")
	query = applyMarksheetFilter(query, filter, "marksheets")
	if err := query.
		Select(`subjects.name AS name, COUNT(*) AS count,
			ROUND(AVG(subjects.marks * 100.0 / subjects.max_marks)::numeric, 2) AS avg_percentage,
			ROUND(MAX(subjects.marks * 100.0 / subjects.max_marks)::numeric, 2) AS max_percentage`).
		Group("subjects.name").
		Order("avg_percentage DESC").
		Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (m *MarksheetPostgreSQL) GetBelowPercentage(ctx context.Context, tx *gorm.DB, threshold float64, filter models.MarksheetFilter) ([]models.Performer, error) {
	var performers []models.Performer
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filter, "")
	if err := query.
		Select(performerColumns).
		Where("percentage < ?", threshold).
		Order("percentage ASC").
		Scan(&performers).Error; err != nil {
		return nil, err
	}
	return performers, nil
}

func (m *MarksheetPostgreSQL) GetAtOrAbovePercentage(ctx context.Context, tx *gorm.DB, threshold float64, filter models.MarksheetFilter) ([]models.Performer, error) {
	var performers []models.Performer
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filter, "")
	if err := query.
		Select(performerColumns).
		Where("percentage >= ?", threshold).
		Order("percentage DESC").
		Scan(&performers).Error; err != nil {
		return nil, err
	}
	return performers, nil
}

func (m *MarksheetPostgreSQL) GetGradeDistribution(ctx context.Context, tx *gorm.DB, filter models.MarksheetFilter) (*models.GradeDistribution, error) {
	var dist models.GradeDistribution
	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Marksheet{})
	query = applyMarksheetFilter(query, filter, "")
	if err := query.Select(`
		COUNT(CASE WHEN percentage >= 90 THEN 1 END) AS a_plus,
		COUNT(CASE WHEN percentage >= 85 AND percentage < 90 THEN 1 END) AS a,
		COUNT(CASE WHEN percentage >= 75 AND percentage < 85 THEN 1 END) AS b_plus,
		COUNT(CASE WHEN percentage >= 65 AND percentage < 75 THEN 1 END) AS b,
		COUNT(CASE WHEN percentage >= 55 AND percentage < 65 THEN 1 END) AS c,
		COUNT(CASE WHEN percentage >= 40 AND percentage < 55 THEN 1 END) AS d,
		COUNT(CASE WHEN percentage < 40 THEN 1 END) AS f`).
		Scan(&dist).Error; err != nil {
		return nil, err
	}
	return &dist, nil
}

func (m *MarksheetPostgreSQL) GetSemesterStats(ctx context.Context, tx *gorm.DB) ([]models.SemesterStat, error) {
	var stats []models.SemesterStat
	if err := getDB(m.db, tx).WithContext(ctx).
		Model(&models.Marksheet{}).
		Select(`semester, COUNT(*) AS count,
			ROUND(AVG(percentage)::numeric, 2) AS avg_percentage,
			COUNT(CASE WHEN grade <> 'F' THEN 1 END) AS pass_count`).
		Group("semester").
		Order("semester ASC").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (m *MarksheetPostgreSQL) GetBranchStats(ctx context.Context, tx *gorm.DB) ([]models.BranchStat, error) {
	var stats []models.BranchStat
	if err := getDB(m.db, tx).WithContext(ctx).
		Model(&models.Marksheet{}).
		Select("branch, COUNT(*) AS count, ROUND(AVG(percentage)::numeric, 2) AS avg_percentage").
		Group("branch").
		Order("branch ASC").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (m *MarksheetPostgreSQL) GetOverview(ctx context.Context, tx *gorm.DB) (*repositories.OverviewStats, error) {
	var stats repositories.OverviewStats
	if err := getDB(m.db, tx).WithContext(ctx).
		Model(&models.Marksheet{}).
		Select(`COUNT(*) AS total,
			COUNT(CASE WHEN grade <> 'F' THEN 1 END) AS passed,
			COALESCE(ROUND(AVG(percentage)::numeric, 2), 0) AS avg_percentage,
			COALESCE(MIN(percentage), 0) AS min_percentage,
			COALESCE(MAX(percentage), 0) AS max_percentage`).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// ===== HELPERS =====

const performerColumns = "id, name, roll_no, branch, semester, exam_type, percentage, grade"

// applyMarksheetFilter adds the branch, semester and exam type conditions.
// table qualifies the columns when the query joins other tables.
func applyMarksheetFilter(query *gorm.DB, filter models.MarksheetFilter, table string) *gorm.DB {
	col := func(name string) string {
		if table == "" {
			return name
		}
		return table + "." + name
	}
	if filter.HasBranch() {
		query = query.Where(col("branch")+" = ?", filter.Branch)
	}
	if filter.HasSemester() {
		query = query.Where(col("semester")+" = ?", filter.Semester)
	}
	if filter.HasExamType() {
		query = query.Where(col("exam_type")+" = ?", filter.ExamType)
	}
	return query
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"percentage": "percentage",
	"name":       "name",
	"roll_no":    "roll_no",
}

func applyPaginationAndSort(query *gorm.DB, filters repositories.MarksheetFilters) *gorm.DB {
	column, ok := sortColumns[filters.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		order = "ASC"
	}
	query = query.Order(column + " " + order)

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query = query.Limit(limit)
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
