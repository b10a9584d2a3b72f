package model

import "time"

// Employee is a directory record. Jira efforts resolve identity by Email.
type Employee struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Name           string    `gorm:"size:128" json:"name"`
	Email          string    `gorm:"size:255;uniqueIndex" json:"email"`
	Team           string    `gorm:"size:64" json:"team,omitempty"`
	GithubUsername string    `gorm:"size:64" json:"githubUsername,omitempty"`
	SlackID        string    `gorm:"size:64" json:"slackId,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Employee) TableName() string { return "employees" }
