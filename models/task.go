package models

import "time"

// DefaultTaskCode is the code given to the fallback task of a project.
const DefaultTaskCode = "DEFAULT"

type Task struct {
	Base

	ProjectID   string `gorm:"type:varchar(36);not null;uniqueIndex:idx_tasks_project_code,priority:1" json:"project_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Code        string `gorm:"size:50;not null;uniqueIndex:idx_tasks_project_code,priority:2" json:"code"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `gorm:"not null;default:false" json:"is_default"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
	CreatedBy   string `gorm:"type:varchar(36)" json:"created_by"`
}

type TaskAssignment struct {
	Base

	TaskID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_task_assignment,priority:1" json:"task_id"`
	EmployeeID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_task_assignment,priority:2;index" json:"employee_id"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
}
