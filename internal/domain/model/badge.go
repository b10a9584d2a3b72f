package model

import (
	"database/sql/driver"
	"slices"
	"time"
)

// BadgeID names a badge definition. The set is closed: every id needs an
// evaluation rule.
type BadgeID string

const (
	CollaborationHero   BadgeID = "collaboration-hero"
	ProblemSolver       BadgeID = "problem-solver"
	KnowledgeSharer     BadgeID = "knowledge-sharer"
	ConsistencyChampion BadgeID = "consistency-champion"
	InnovationSpark     BadgeID = "innovation-spark"
	TeamPlayer          BadgeID = "team-player"
)

// BadgeIDs lists every badge in display order.
var BadgeIDs = []BadgeID{CollaborationHero, ProblemSolver, KnowledgeSharer, ConsistencyChampion, InnovationSpark, TeamPlayer}

func (b BadgeID) Valid() bool { return slices.Contains(BadgeIDs, b) }

// Criteria maps threshold names (minBugFixes, minImpactScore, ...) to values.
type Criteria map[string]float64

// Get returns the named threshold or def when it is not configured.
func (c Criteria) Get(name string, def float64) float64 {
	if v, ok := c[name]; ok {
		return v
	}
	return def
}

func (c Criteria) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return jsonValue(c)
}

func (c *Criteria) Scan(value any) error {
	*c = Criteria{}
	return scanJSON(value, c)
}

// Badge is an achievement definition. Badges are configuration data.
type Badge struct {
	ID           BadgeID  `gorm:"primaryKey;size:32" json:"badgeId" yaml:"id"`
	Name         string   `gorm:"size:64" json:"name" yaml:"name"`
	Description  string   `gorm:"type:text" json:"description" yaml:"description"`
	Icon         string   `gorm:"size:16" json:"icon" yaml:"icon"`
	Rarity       string   `gorm:"size:16" json:"rarity" yaml:"rarity"`
	Points       int      `json:"points" yaml:"points"`
	DisplayOrder int      `json:"displayOrder" yaml:"displayOrder"`
	Criteria     Criteria `gorm:"type:text" json:"criteria" yaml:"criteria"`
}

func (Badge) TableName() string { return "badges" }

// EarnedProgress is the progress value of an earned badge.
const EarnedProgress = 100

// BadgeAward records that an employee earned a badge. The pair is unique.
type BadgeAward struct {
	EmployeeID string    `gorm:"primaryKey;size:64" json:"employeeId"`
	BadgeID    BadgeID   `gorm:"primaryKey;size:32" json:"badgeId"`
	EarnedAt   time.Time `json:"earnedAt"`
	Progress   int       `json:"progress"`
}

func (BadgeAward) TableName() string { return "badge_awards" }
