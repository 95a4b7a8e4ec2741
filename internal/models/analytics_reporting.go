package models

import "time"

// Percentage bands used by the performance metrics.
const (
	ExcellentThreshold = 85.0
	GoodThreshold      = 70.0
	AverageThreshold   = 55.0
	AtRiskThreshold    = 40.0
	StarThreshold      = 90.0
)

type PerformanceMetrics struct {
	Excellent      int     `json:"excellent"`
	Good           int     `json:"good"`
	Average        int     `json:"average"`
	Poor           int     `json:"poor"`
	Total          int     `json:"total"`
	AvgPercentage  float64 `json:"avg_percentage"`
	ExcellentShare float64 `json:"excellent_share"`
}

type Performer struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	RollNo     string  `json:"roll_no"`
	Branch     string  `json:"branch"`
	Semester   string  `json:"semester"`
	ExamType   string  `json:"exam_type"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

// GroupPerformance is an aggregate row of performers grouped by branch or subject.
type GroupPerformance struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgPercentage float64 `json:"avg_percentage"`
	MaxPercentage float64 `json:"max_percentage"`
}

type GradeDistribution struct {
	APlus int `json:"a_plus"`
	A     int `json:"a"`
	BPlus int `json:"b_plus"`
	B     int `json:"b"`
	C     int `json:"c"`
	D     int `json:"d"`
	F     int `json:"f"`
}

type SemesterStat struct {
	Semester      string  `json:"semester"`
	Count         int     `json:"count"`
	AvgPercentage float64 `json:"avg_percentage"`
	PassCount     int     `json:"pass_count"`
}

type BranchStat struct {
	Branch        string  `json:"branch"`
	Count         int     `json:"count"`
	AvgPercentage float64 `json:"avg_percentage"`
}

// DashboardSnapshot is the read-only analytics view refreshed on an interval.
type DashboardSnapshot struct {
	TotalStudents     int               `json:"total_students"`
	Passed            int               `json:"passed"`
	Failed            int               `json:"failed"`
	AvgPercentage     float64           `json:"avg_percentage"`
	MinPercentage     float64           `json:"min_percentage"`
	MaxPercentage     float64           `json:"max_percentage"`
	ConsistencyScore  float64           `json:"consistency_score"`
	AtRiskCount       int               `json:"at_risk_count"`
	StarCount         int               `json:"star_count"`
	BranchStats       []BranchStat      `json:"branch_stats"`
	SemesterStats     []SemesterStat    `json:"semester_stats"`
	GradeDistribution GradeDistribution `json:"grade_distribution"`
	TopPerformers     []Performer       `json:"top_performers"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
