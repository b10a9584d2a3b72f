package model

import "time"

// Recognition is a generated appreciation for exactly one effort.
type Recognition struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	EffortID    string    `gorm:"size:36;index" json:"effortId"`
	EmployeeID  string    `gorm:"size:64;index" json:"employeeId,omitempty"`
	Message     string    `gorm:"type:text" json:"message"`
	Badge       string    `gorm:"size:16" json:"badge"`
	Category    Category  `gorm:"size:32" json:"category"`
	ImpactScore int       `json:"impactScore"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
}

func (Recognition) TableName() string { return "recognitions" }
