package models

import "time"

// TimeTrackingSession is one clock-in/clock-out interval of a worker.
// A row with ClockOut == nil and IsActive is the worker's open session;
// the database allows at most one per worker.
type TimeTrackingSession struct {
	Base

	EmployeeID string  `gorm:"type:varchar(36);not null;index" json:"employee_id"`
	ProjectID  *string `gorm:"type:varchar(36);index" json:"project_id,omitempty"`
	TaskID     *string `gorm:"type:varchar(36);index" json:"task_id,omitempty"`

	ClockIn    time.Time  `gorm:"not null;index" json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out,omitempty"`
	BreakStart *time.Time `json:"break_start,omitempty"`
	BreakEnd   *time.Time `json:"break_end,omitempty"`

	BreakDurationMinutes int      `gorm:"not null;default:0" json:"break_duration_minutes"`
	TotalMinutes         *int     `json:"total_minutes,omitempty"`
	TotalHours           *float64 `json:"total_hours,omitempty"`

	Notes    string `json:"notes,omitempty"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

func (s *TimeTrackingSession) IsOpen() bool {
	return s.ClockOut == nil && s.IsActive
}

func (s *TimeTrackingSession) IsOnBreak() bool {
	return s.BreakStart != nil && s.BreakEnd == nil
}
