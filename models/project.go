package models

import "time"

type Project struct {
	Base

	OrganizationID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_projects_org_code,priority:1" json:"organization_id"`
	Name           string `gorm:"size:255;not null" json:"name"`
	Code           string `gorm:"size:50;not null;uniqueIndex:idx_projects_org_code,priority:2" json:"code"`
	Description    string `json:"description,omitempty"`

	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	MaxHoursPerDay  *int       `json:"max_hours_per_day,omitempty"`
	MaxHoursPerWeek *int       `json:"max_hours_per_week,omitempty"`

	IsActive   bool   `gorm:"not null;default:true" json:"is_active"`
	IsArchived bool   `gorm:"not null;default:false" json:"is_archived"`
	CreatedBy  string `gorm:"type:varchar(36)" json:"created_by"`
}

// ProjectAssignment links a worker to a project. Revoking an assignment
// flips IsActive instead of deleting the row.
type ProjectAssignment struct {
	Base

	ProjectID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_assignment,priority:1" json:"project_id"`
	EmployeeID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_assignment,priority:2;index" json:"employee_id"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
}
