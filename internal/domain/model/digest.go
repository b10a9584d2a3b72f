package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DigestMetrics are the numbers reported alongside a narrative.
type DigestMetrics struct {
	EffortTypeBreakdown map[Category]int `json:"effortTypeBreakdown"`
	AverageImpactScore  float64          `json:"averageImpactScore"`
	RecognitionRate     float64          `json:"recognitionRate"`
	ActiveContributors  int              `json:"activeContributors"`
}

func (m DigestMetrics) Value() (driver.Value, error) { return jsonValue(m) }

func (m *DigestMetrics) Scan(value any) error { return scanJSON(value, m) }

// StringList is a []string stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue(l)
}

func (l *StringList) Scan(value any) error { return scanJSON(value, l) }

// WeeklyDigest summarizes one employee's [WeekStart, WeekEnd) window.
type WeeklyDigest struct {
	ID                 string        `gorm:"primaryKey;size:36" json:"id"`
	EmployeeID         string        `gorm:"size:64;uniqueIndex:idx_digest_week" json:"employeeId"`
	WeekStart          time.Time     `gorm:"uniqueIndex:idx_digest_week" json:"weekStart"`
	WeekEnd            time.Time     `json:"weekEnd"`
	Summary            string        `gorm:"type:text" json:"summary"`
	Narrative          string        `gorm:"type:text" json:"narrative"`
	Metrics            DigestMetrics `gorm:"type:text" json:"metrics"`
	Highlights         StringList    `gorm:"type:text" json:"highlights"`
	TopContributors    StringList    `gorm:"type:text" json:"topContributors"`
	TopRecognitions    StringList    `gorm:"type:text" json:"topRecognitions"`
	LearningWins       StringList    `gorm:"type:text" json:"learningWins"`
	CollaborationScore float64       `json:"collaborationScore"`
	TotalEfforts       int           `json:"totalEfforts"`
	TotalRecognitions  int           `json:"totalRecognitions"`
	GeneratedAt        time.Time     `json:"generatedAt"`
}

func (WeeklyDigest) TableName() string { return "weekly_digests" }

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(value any, dst any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return errors.New("invalid type for JSON column")
}
