package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momentum/metrics"
	"momentum/models"
	"momentum/utils"
)

// TimeTrackingService drives the session state machine:
// no session -> open -> on break -> open -> closed.
//
// Every transition runs in one transaction that first locks the worker row,
// so concurrent transitions for the same worker serialize. The partial unique
// index on open sessions rejects anything that slips past.
type TimeTrackingService struct {
	db     *gorm.DB
	policy *Policy
	now    func() time.Time
}

func NewTimeTrackingService(db *gorm.DB, policy *Policy) *TimeTrackingService {
	return &TimeTrackingService{
		db:     db,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *TimeTrackingService) WithClock(now func() time.Time) *TimeTrackingService {
	s.now = func() time.Time { return now().UTC() }
	return s
}

type ClockInInput struct {
	TaskID    *string `json:"task_id" validate:"omitempty,max=36"`
	ProjectID *string `json:"project_id" validate:"omitempty,max=36"`
	Notes     string  `json:"notes" validate:"max=2000"`
}

type ClockOutInput struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type StartBreakInput struct {
	BreakStart *time.Time `json:"break_start"`
	Notes      string     `json:"notes" validate:"max=2000"`
}

type EndBreakInput struct {
	BreakEnd *time.Time `json:"break_end"`
}

type AdminUpdateInput struct {
	ClockIn   *time.Time `json:"clock_in"`
	ClockOut  *time.Time `json:"clock_out"`
	Notes     *string    `json:"notes" validate:"omitempty,max=4000"`
	TaskID    *string    `json:"task_id" validate:"omitempty,max=36"`
	ProjectID *string    `json:"project_id" validate:"omitempty,max=36"`
}

// CurrentSession is the open session with a live duration.
type CurrentSession struct {
	ID                     string     `json:"id"`
	EmployeeID             string     `json:"employee_id"`
	EmployeeName           string     `json:"employee_name"`
	EmployeeEmail          string     `json:"employee_email"`
	ProjectID              *string    `json:"project_id,omitempty"`
	TaskID                 *string    `json:"task_id,omitempty"`
	ClockIn                time.Time  `json:"clock_in"`
	CurrentDurationMinutes int        `json:"current_duration_minutes"`
	CurrentDurationHours   float64    `json:"current_duration_hours"`
	IsOnBreak              bool       `json:"is_on_break"`
	BreakStart             *time.Time `json:"break_start,omitempty"`
	BreakDurationMinutes   int        `json:"break_duration_minutes"`
	Notes                  string     `json:"notes,omitempty"`
}

type LogFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	ProjectID string
	TaskID    string
	IsActive  *bool
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}

var logSortColumns = map[string]string{
	"clock_in":    "clock_in",
	"total_hours": "total_hours",
	"created_at":  "created_at",
}

func (s *TimeTrackingService) ClockIn(ctx context.Context, actor models.Principal, employeeID string, in ClockInInput) (*models.TimeTrackingSession, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	var session models.TimeTrackingSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		emp, err := lockEmployee(tx, employeeID)
		if err != nil {
			return err
		}
		if !emp.IsActive {
			return utils.ErrNotFound("Employee not found or inactive")
		}

		projectID, taskID, err := resolveWorkTarget(tx, emp.OrganizationID, normalizeIDPtr(in.ProjectID), normalizeIDPtr(in.TaskID))
		if err != nil {
			return err
		}

		if _, err := findOpenSession(tx, employeeID); err == nil {
			return utils.ErrConflict("Employee already has an active session")
		} else if !utils.IsKind(err, utils.KindNotFound) {
			return err
		}

		session = models.TimeTrackingSession{
			EmployeeID: employeeID,
			ProjectID:  projectID,
			TaskID:     taskID,
			ClockIn:    s.now(),
			Notes:      strings.TrimSpace(in.Notes),
			IsActive:   true,
		}
		return createOpenSession(tx, &session)
	})
	if err != nil {
		return nil, serviceError(err, "Failed to clock in")
	}

	metrics.SessionTransitions.WithLabelValues(metrics.TransitionClockIn).Inc()
	utils.LogEvent("clock_in", map[string]interface{}{
		"employee_id": employeeID,
		"session_id":  session.ID,
	})
	return &session, nil
}

func (s *TimeTrackingService) ClockOut(ctx context.Context, actor models.Principal, employeeID string, in ClockOutInput) (*models.TimeTrackingSession, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	var session *models.TimeTrackingSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEmployee(tx, employeeID); err != nil {
			return err
		}
		open, err := findOpenSession(tx, employeeID)
		if err != nil {
			return err
		}

		now := s.now()
		if now.Before(open.ClockIn) {
			now = open.ClockIn
		}
		// A break left open is closed at the clock-out instant.
		if open.IsOnBreak() {
			end := now
			open.BreakEnd = &end
			open.BreakDurationMinutes += ElapsedMinutes(*open.BreakStart, end)
		}

		minutes, hours := SessionTotals(open.ClockIn, now, open.BreakDurationMinutes)
		open.ClockOut = &now
		open.TotalMinutes = &minutes
		open.TotalHours = &hours
		open.Notes = utils.AppendNote(open.Notes, "Clock out", in.Notes)

		if err := tx.Save(open).Error; err != nil {
			return err
		}
		session = open
		return nil
	})
	if err != nil {
		return nil, serviceError(err, "Failed to clock out")
	}

	metrics.SessionTransitions.WithLabelValues(metrics.TransitionClockOut).Inc()
	utils.LogEvent("clock_out", map[string]interface{}{
		"employee_id":   employeeID,
		"session_id":    session.ID,
		"total_minutes": *session.TotalMinutes,
	})
	return session, nil
}

func (s *TimeTrackingService) StartBreak(ctx context.Context, actor models.Principal, employeeID string, in StartBreakInput) (*models.TimeTrackingSession, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	var session *models.TimeTrackingSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEmployee(tx, employeeID); err != nil {
			return err
		}
		open, err := findOpenSession(tx, employeeID)
		if err != nil {
			return err
		}
		if open.IsOnBreak() {
			return utils.ErrConflict("Break already started")
		}

		now := s.now()
		start := now
		if in.BreakStart != nil {
			start = in.BreakStart.UTC()
		}
		if start.Before(open.ClockIn) {
			return utils.ErrInvalidState("Break cannot start before clock-in")
		}
		if open.BreakEnd != nil && start.Before(*open.BreakEnd) {
			return utils.ErrInvalidState("Break cannot start before the previous break ended")
		}
		if start.After(now) {
			return utils.ErrInvalidState("Break cannot start in the future")
		}

		open.BreakStart = &start
		open.BreakEnd = nil
		open.Notes = utils.AppendNote(open.Notes, "Break start", in.Notes)
		if err := tx.Save(open).Error; err != nil {
			return err
		}
		session = open
		return nil
	})
	if err != nil {
		return nil, serviceError(err, "Failed to start break")
	}

	metrics.SessionTransitions.WithLabelValues(metrics.TransitionBreakStart).Inc()
	return session, nil
}

// EndBreak closes the open break and adds its whole minutes to the session's
// break total. The session itself stays open.
func (s *TimeTrackingService) EndBreak(ctx context.Context, actor models.Principal, employeeID string, in EndBreakInput) (*models.TimeTrackingSession, error) {
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	var session *models.TimeTrackingSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEmployee(tx, employeeID); err != nil {
			return err
		}
		open, err := findOpenSession(tx, employeeID)
		if err != nil {
			return err
		}
		if !open.IsOnBreak() {
			return utils.ErrInvalidState("No active break found")
		}

		now := s.now()
		end := now
		if in.BreakEnd != nil {
			end = in.BreakEnd.UTC()
		}
		if end.Before(*open.BreakStart) {
			return utils.ErrInvalidState("Break cannot end before it started")
		}
		if end.After(now) {
			return utils.ErrInvalidState("Break cannot end in the future")
		}

		open.BreakEnd = &end
		open.BreakDurationMinutes += ElapsedMinutes(*open.BreakStart, end)
		if err := tx.Save(open).Error; err != nil {
			return err
		}
		session = open
		return nil
	})
	if err != nil {
		return nil, serviceError(err, "Failed to end break")
	}

	metrics.SessionTransitions.WithLabelValues(metrics.TransitionBreakEnd).Inc()
	return session, nil
}

func (s *TimeTrackingService) GetCurrentSession(ctx context.Context, actor models.Principal, employeeID string) (*CurrentSession, error) {
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var emp models.Employee
	if err := db.Where("id = ?", employeeID).Take(&emp).Error; err != nil {
		return nil, serviceError(notFound(err, "Employee not found"), "Failed to load employee")
	}
	open, err := findOpenSession(db, employeeID)
	if err != nil {
		return nil, serviceError(err, "Failed to load current session")
	}

	minutes := ElapsedMinutes(open.ClockIn, s.now())
	return &CurrentSession{
		ID:                     open.ID,
		EmployeeID:             emp.ID,
		EmployeeName:           emp.Name,
		EmployeeEmail:          emp.Email,
		ProjectID:              open.ProjectID,
		TaskID:                 open.TaskID,
		ClockIn:                open.ClockIn,
		CurrentDurationMinutes: minutes,
		CurrentDurationHours:   MinutesToHours(minutes),
		IsOnBreak:              open.IsOnBreak(),
		BreakStart:             open.BreakStart,
		BreakDurationMinutes:   open.BreakDurationMinutes,
		Notes:                  open.Notes,
	}, nil
}

func (s *TimeTrackingService) GetEntry(ctx context.Context, actor models.Principal, sessionID string) (*models.TimeTrackingSession, error) {
	var session models.TimeTrackingSession
	if err := s.db.WithContext(ctx).Where("id = ?", sessionID).Take(&session).Error; err != nil {
		return nil, serviceError(notFound(err, "Time entry not found"), "Failed to load time entry")
	}
	if err := s.policy.RequireActOnEmployee(ctx, actor, session.EmployeeID); err != nil {
		return nil, err
	}
	return &session, nil
}

// AdminUpdate corrects a session. Totals are recomputed whenever both ends
// are known, using the stored break minutes.
func (s *TimeTrackingService) AdminUpdate(ctx context.Context, actor models.Principal, sessionID string, in AdminUpdateInput) (*models.TimeTrackingSession, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	existing, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireManageEmployee(ctx, actor, existing.EmployeeID); err != nil {
		return nil, err
	}

	var session *models.TimeTrackingSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		emp, err := lockEmployee(tx, existing.EmployeeID)
		if err != nil {
			return err
		}
		var current models.TimeTrackingSession
		if err := tx.Where("id = ? AND is_active = ?", sessionID, true).Take(&current).Error; err != nil {
			return notFound(err, "Time entry not found")
		}

		if in.ClockIn != nil {
			current.ClockIn = in.ClockIn.UTC()
		}
		if in.ClockOut != nil {
			out := in.ClockOut.UTC()
			current.ClockOut = &out
		}
		if in.Notes != nil {
			current.Notes = *in.Notes
		}
		if in.ProjectID != nil || in.TaskID != nil {
			projectID, taskID := current.ProjectID, current.TaskID
			if in.ProjectID != nil {
				projectID = normalizeID(*in.ProjectID)
			}
			if in.TaskID != nil {
				taskID = normalizeID(*in.TaskID)
				if in.ProjectID == nil && taskID != nil {
					projectID = nil
				}
			}
			current.ProjectID, current.TaskID, err = resolveWorkTarget(tx, emp.OrganizationID, projectID, taskID)
			if err != nil {
				return err
			}
		}

		if current.ClockOut != nil {
			if current.ClockOut.Before(current.ClockIn) {
				return utils.ErrInvalidState("Clock-out cannot be before clock-in")
			}
			if current.BreakStart != nil && current.BreakStart.Before(current.ClockIn) {
				return utils.ErrInvalidState("Clock-in cannot be after the recorded break")
			}
			if current.BreakStart != nil && current.ClockOut.Before(*current.BreakStart) {
				return utils.ErrInvalidState("Clock-out cannot be before the recorded break")
			}
			if current.IsOnBreak() {
				end := *current.ClockOut
				current.BreakEnd = &end
				current.BreakDurationMinutes += ElapsedMinutes(*current.BreakStart, end)
			}
			minutes, hours := SessionTotals(current.ClockIn, *current.ClockOut, current.BreakDurationMinutes)
			current.TotalMinutes = &minutes
			current.TotalHours = &hours
		}

		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		session = &current
		return nil
	})
	if err != nil {
		return nil, serviceError(err, "Failed to update time entry")
	}

	metrics.SessionTransitions.WithLabelValues(metrics.TransitionAdminUpdate).Inc()
	utils.LogEvent("time_entry_updated", map[string]interface{}{
		"session_id": sessionID,
		"actor_id":   actor.PrincipalID(),
	})
	return session, nil
}

// AdminDelete soft-deletes a session. An inactive row no longer counts as
// open, so the worker may clock in again.
func (s *TimeTrackingService) AdminDelete(ctx context.Context, actor models.Principal, sessionID string) error {
	existing, err := s.loadActiveSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.policy.RequireManageEmployee(ctx, actor, existing.EmployeeID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.TimeTrackingSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Update("is_active", false)
	if res.Error != nil {
		return utils.ErrInternal("Failed to delete time entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound("Time entry not found")
	}

	metrics.SessionTransitions.WithLabelValues(metrics.TransitionAdminDelete).Inc()
	utils.LogEvent("time_entry_deleted", map[string]interface{}{
		"session_id": sessionID,
		"actor_id":   actor.PrincipalID(),
	})
	return nil
}

func (s *TimeTrackingService) EmployeeLogs(ctx context.Context, actor models.Principal, employeeID string, f LogFilter) (utils.Page[models.TimeTrackingSession], error) {
	var page utils.Page[models.TimeTrackingSession]
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return page, err
	}

	q := s.db.WithContext(ctx).Model(&models.TimeTrackingSession{}).Where("employee_id = ?", employeeID)
	if f.StartDate != nil {
		q = q.Where("clock_in >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("clock_in <= ?", f.EndDate.UTC())
	}
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.TaskID != "" {
		q = q.Where("task_id = ?", f.TaskID)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return page, utils.ErrInternal("Failed to count time logs", err)
	}

	column, ok := logSortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(f.SortOrder, "asc")
	page.Page, page.Size = clampPage(f.Page, f.Size)

	var items []models.TimeTrackingSession
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Offset((page.Page - 1) * page.Size).
		Limit(page.Size).
		Find(&items).Error
	if err != nil {
		return page, utils.ErrInternal("Failed to load time logs", err)
	}
	return utils.NewPage(items, total, page.Page, page.Size), nil
}

func (s *TimeTrackingService) loadActiveSession(ctx context.Context, sessionID string) (*models.TimeTrackingSession, error) {
	var session models.TimeTrackingSession
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", sessionID, true).Take(&session).Error
	if err != nil {
		return nil, serviceError(notFound(err, "Time entry not found"), "Failed to load time entry")
	}
	return &session, nil
}

// lockEmployee takes a row lock on Postgres. SQLite serializes writers on its own.
// createOpenSession inserts session. The one-open-session index turns a
// racing second insert into a Conflict.
func createOpenSession(tx *gorm.DB, session *models.TimeTrackingSession) error {
	if err := tx.Create(session).Error; err != nil {
		if isUniqueViolation(err) {
			return utils.ErrConflict("Employee already has an active session")
		}
		return err
	}
	return nil
}

func lockEmployee(tx *gorm.DB, employeeID string) (*models.Employee, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var emp models.Employee
	if err := q.Where("id = ?", employeeID).Take(&emp).Error; err != nil {
		return nil, notFound(err, "Employee not found")
	}
	return &emp, nil
}

func findOpenSession(db *gorm.DB, employeeID string) (*models.TimeTrackingSession, error) {
	var session models.TimeTrackingSession
	err := db.Where("employee_id = ? AND clock_out IS NULL AND is_active = ?", employeeID, true).
		Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound("No active session found")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// resolveWorkTarget checks that the optional project and task exist, are
// active and belong to the organization. A task implies its project.
func resolveWorkTarget(tx *gorm.DB, organizationID string, projectID, taskID *string) (*string, *string, error) {
	if taskID != nil {
		var task models.Task
		if err := tx.Where("id = ? AND is_active = ?", *taskID, true).Take(&task).Error; err != nil {
			return nil, nil, notFound(err, "Task not found")
		}
		var project models.Project
		err := tx.Where("id = ? AND organization_id = ? AND is_active = ?", task.ProjectID, organizationID, true).
			Take(&project).Error
		if err != nil {
			return nil, nil, notFound(err, "Task not found")
		}
		if projectID != nil && *projectID != task.ProjectID {
			return nil, nil, utils.ErrValidation(utils.FieldError{
				Field:   "project_id",
				Message: "project_id does not match the task's project",
			})
		}
		if project.IsArchived {
			return nil, nil, utils.ErrInvalidState("Project is archived")
		}
		pid := task.ProjectID
		return &pid, taskID, nil
	}

	if projectID != nil {
		var project models.Project
		err := tx.Where("id = ? AND organization_id = ? AND is_active = ?", *projectID, organizationID, true).
			Take(&project).Error
		if err != nil {
			return nil, nil, notFound(err, "Project not found")
		}
		if project.IsArchived {
			return nil, nil, utils.ErrInvalidState("Project is archived")
		}
	}
	return projectID, nil, nil
}

func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
