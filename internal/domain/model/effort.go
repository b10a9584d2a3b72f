// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"slices"
	"time"
)

// Category is one entry of the fixed work taxonomy.
type Category string

const (
	BugFix        Category = "bug-fix"
	FeatureWork   Category = "feature-work"
	CodeReview    Category = "code-review"
	Collaboration Category = "collaboration"
	Mentoring     Category = "mentoring"
	Learning      Category = "learning"
)

// Categories lists the taxonomy in declaration order. Ties are broken by this order.
var Categories = []Category{BugFix, FeatureWork, CodeReview, Collaboration, Mentoring, Learning}

// Valid reports whether c belongs to the taxonomy.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Source identifies the system an effort came from.
type Source string

const (
	SourceJira      Source = "jira"
	SourceGitHub    Source = "github"
	SourceBitbucket Source = "bitbucket"
	SourceSlack     Source = "slack"
	SourceTest      Source = "test"
	SourceUnknown   Source = "unknown"
)

// Sources lists every known source tag.
var Sources = []Source{SourceJira, SourceGitHub, SourceBitbucket, SourceSlack, SourceTest, SourceUnknown}

// ParseSource maps a tag to a Source, returning SourceUnknown for anything else.
func ParseSource(tag string) Source {
	s := Source(tag)
	if slices.Contains(Sources, s) {
		return s
	}
	return SourceUnknown
}

// Effort is one observed unit of work.
//
// EmployeeID is empty when the identity could not be resolved. Category is empty
// until classified and ImpactScore is zero until scored.
type Effort struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	EmployeeID  string    `gorm:"size:64;index" json:"employeeId,omitempty"`
	Source      Source    `gorm:"size:16;index" json:"source"`
	Category    Category  `gorm:"size:32;index" json:"category,omitempty"`
	ImpactScore int       `gorm:"default:0" json:"impactScore,omitempty"`
	Payload     Payload   `gorm:"type:text" json:"payload"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
}

func (Effort) TableName() string { return "efforts" }

// Scored reports whether the impact score has been set.
func (e Effort) Scored() bool { return e.ImpactScore != 0 }

// Validate checks the invariants that hold for any persisted effort.
func (e Effort) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEffort)
	}
	if e.ImpactScore < 0 || e.ImpactScore > MaxImpactScore {
		return fmt.Errorf("%w: impact score %d out of range", ErrInvalidEffort, e.ImpactScore)
	}
	return nil
}

// Impact score bounds.
const (
	MinImpactScore = 1
	MaxImpactScore = 10
)
