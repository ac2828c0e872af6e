package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

type ReportService struct {
	db     *gorm.DB
	policy *Policy
}

func NewReportService(db *gorm.DB, policy *Policy) *ReportService {
	return &ReportService{db: db, policy: policy}
}

type ReportRequest struct {
	OrganizationID string    `json:"organization_id" validate:"omitempty,max=36"`
	EmployeeIDs    []string  `json:"employee_ids" validate:"omitempty,dive,max=36"`
	ProjectID      string    `json:"project_id" validate:"omitempty,max=36"`
	TaskID         string    `json:"task_id" validate:"omitempty,max=36"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

type ReportPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type ReportSummary struct {
	TotalHours      float64 `json:"total_hours"`
	TotalMinutes    int     `json:"total_minutes"`
	TotalEntries    int     `json:"total_entries"`
	UniqueEmployees int     `json:"unique_employees"`
}

type EmployeeBreakdown struct {
	EmployeeName  string  `json:"employee_name"`
	EmployeeEmail string  `json:"employee_email"`
	TotalHours    float64 `json:"total_hours"`
	TotalMinutes  int     `json:"total_minutes"`
	Entries       int     `json:"entries"`
}

type ReportLog struct {
	models.TimeTrackingSession
	EmployeeName  string `json:"employee_name"`
	EmployeeEmail string `json:"employee_email"`
	ProjectName   string `json:"project_name,omitempty"`
	TaskName      string `json:"task_name,omitempty"`
}

type Report struct {
	ReportPeriod      ReportPeriod                  `json:"report_period"`
	Summary           ReportSummary                 `json:"summary"`
	EmployeeBreakdown map[string]*EmployeeBreakdown `json:"employee_breakdown"`
	TimeLogs          []ReportLog                   `json:"time_logs"`
}

// EmployeeSummary is one row of the per-organization overview.
type EmployeeSummary struct {
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name"`
	EmployeeEmail  string  `json:"employee_email"`
	IsActive       bool    `json:"is_active"`
	TotalEntries   int     `json:"total_entries"`
	TotalHours     float64 `json:"total_hours"`
	TotalMinutes   int     `json:"total_minutes"`
	ClockInCount   int     `json:"clock_in_count"`
	ClockOutCount  int     `json:"clock_out_count"`
	ActiveSessions int     `json:"active_sessions"`
}

// Report aggregates active sessions whose clock-in lies in
// [StartDate, EndDate]. Admins may report across organizations; anyone else
// must name an organization they manage.
func (s *ReportService) Report(ctx context.Context, actor models.Principal, req ReportRequest) (*Report, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if req.OrganizationID == "" && (!present(actor) || !actor.IsAdmin()) {
		return nil, utils.ErrValidation(utils.FieldError{Field: "organization_id", Message: "organization_id is required"})
	}
	if req.OrganizationID != "" {
		if err := s.policy.RequireManage(ctx, actor, req.OrganizationID); err != nil {
			return nil, err
		}
	}

	db := s.db.WithContext(ctx)
	q := db.Where("is_active = ? AND clock_in >= ? AND clock_in <= ?", true, req.StartDate.UTC(), req.EndDate.UTC())
	if req.OrganizationID != "" {
		q = q.Where("employee_id IN (?)", db.Model(&models.Employee{}).Select("id").Where("organization_id = ?", req.OrganizationID))
	}
	if len(req.EmployeeIDs) > 0 {
		q = q.Where("employee_id IN ?", req.EmployeeIDs)
	}
	if req.ProjectID != "" {
		q = q.Where("project_id = ?", req.ProjectID)
	}
	if req.TaskID != "" {
		q = q.Where("task_id = ?", req.TaskID)
	}

	var sessions []models.TimeTrackingSession
	if err := q.Order("clock_in ASC").Find(&sessions).Error; err != nil {
		return nil, utils.ErrInternal("Failed to load time entries", err)
	}

	names, err := loadDisplayNames(db, sessions)
	if err != nil {
		return nil, utils.ErrInternal("Failed to load report details", err)
	}

	report := &Report{
		ReportPeriod:      ReportPeriod{StartDate: req.StartDate, EndDate: req.EndDate},
		EmployeeBreakdown: map[string]*EmployeeBreakdown{},
		TimeLogs:          make([]ReportLog, 0, len(sessions)),
	}
	var totalHours float64
	for _, session := range sessions {
		minutes, hours := sessionTotals(session)
		emp := names.employees[session.EmployeeID]

		row, ok := report.EmployeeBreakdown[session.EmployeeID]
		if !ok {
			row = &EmployeeBreakdown{EmployeeName: emp.Name, EmployeeEmail: emp.Email}
			report.EmployeeBreakdown[session.EmployeeID] = row
		}
		row.Entries++
		row.TotalMinutes += minutes
		row.TotalHours = roundHours(row.TotalHours + hours)

		report.Summary.TotalMinutes += minutes
		totalHours += hours

		log := ReportLog{
			TimeTrackingSession: session,
			EmployeeName:        emp.Name,
			EmployeeEmail:       emp.Email,
		}
		if session.ProjectID != nil {
			log.ProjectName = names.projects[*session.ProjectID]
		}
		if session.TaskID != nil {
			log.TaskName = names.tasks[*session.TaskID]
		}
		report.TimeLogs = append(report.TimeLogs, log)
	}
	report.Summary.TotalHours = roundHours(totalHours)
	report.Summary.TotalEntries = len(sessions)
	report.Summary.UniqueEmployees = len(report.EmployeeBreakdown)
	return report, nil
}

// EmployeesSummary builds one row per worker of the organization.
// Totals are summed in memory from each worker's sessions in the range.
func (s *ReportService) EmployeesSummary(ctx context.Context, actor models.Principal, organizationID string, start, end *time.Time) ([]EmployeeSummary, error) {
	if err := s.policy.RequireManage(ctx, actor, organizationID); err != nil {
		return nil, err
	}
	if start != nil && end != nil {
		if err := validateRange(*start, *end); err != nil {
			return nil, err
		}
	}

	db := s.db.WithContext(ctx)
	var employees []models.Employee
	if err := db.Where("organization_id = ?", organizationID).Order("name ASC").Find(&employees).Error; err != nil {
		return nil, utils.ErrInternal("Failed to load employees", err)
	}
	if len(employees) == 0 {
		return []EmployeeSummary{}, nil
	}

	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	q := db.Where("employee_id IN ? AND is_active = ?", ids, true)
	if start != nil {
		q = q.Where("clock_in >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("clock_in <= ?", end.UTC())
	}
	var sessions []models.TimeTrackingSession
	if err := q.Find(&sessions).Error; err != nil {
		return nil, utils.ErrInternal("Failed to load time entries", err)
	}

	byEmployee := make(map[string][]models.TimeTrackingSession, len(employees))
	for _, session := range sessions {
		byEmployee[session.EmployeeID] = append(byEmployee[session.EmployeeID], session)
	}

	out := make([]EmployeeSummary, 0, len(employees))
	for _, emp := range employees {
		row := EmployeeSummary{
			EmployeeID:    emp.ID,
			EmployeeName:  emp.Name,
			EmployeeEmail: emp.Email,
			IsActive:      emp.IsActive,
		}
		var hours float64
		for _, session := range byEmployee[emp.ID] {
			m, h := sessionTotals(session)
			row.TotalEntries++
			row.TotalMinutes += m
			hours += h
			if !session.ClockIn.IsZero() {
				row.ClockInCount++
			}
			if session.ClockOut != nil {
				row.ClockOutCount++
			} else {
				row.ActiveSessions++
			}
		}
		row.TotalHours = roundHours(hours)
		out = append(out, row)
	}
	return out, nil
}

func validateRange(start, end time.Time) error {
	var fields []utils.FieldError
	if start.IsZero() {
		fields = append(fields, utils.FieldError{Field: "start_date", Message: "start_date is required"})
	}
	if end.IsZero() {
		fields = append(fields, utils.FieldError{Field: "end_date", Message: "end_date is required"})
	}
	if len(fields) == 0 && end.Before(start) {
		fields = append(fields, utils.FieldError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	if len(fields) > 0 {
		return utils.ErrValidation(fields...)
	}
	return nil
}

// sessionTotals reads stored totals; open sessions contribute nothing.
func sessionTotals(s models.TimeTrackingSession) (int, float64) {
	var minutes int
	var hours float64
	if s.TotalMinutes != nil {
		minutes = *s.TotalMinutes
	}
	if s.TotalHours != nil {
		hours = *s.TotalHours
	}
	return minutes, hours
}

type displayNames struct {
	employees map[string]models.Employee
	projects  map[string]string
	tasks     map[string]string
}

func loadDisplayNames(db *gorm.DB, sessions []models.TimeTrackingSession) (*displayNames, error) {
	names := &displayNames{
		employees: map[string]models.Employee{},
		projects:  map[string]string{},
		tasks:     map[string]string{},
	}
	employeeIDs, projectIDs, taskIDs := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, s := range sessions {
		employeeIDs[s.EmployeeID] = true
		if s.ProjectID != nil {
			projectIDs[*s.ProjectID] = true
		}
		if s.TaskID != nil {
			taskIDs[*s.TaskID] = true
		}
	}

	if len(employeeIDs) > 0 {
		var employees []models.Employee
		if err := db.Select("id", "name", "email").Where("id IN ?", keys(employeeIDs)).Find(&employees).Error; err != nil {
			return nil, err
		}
		for _, e := range employees {
			names.employees[e.ID] = e
		}
	}
	if len(projectIDs) > 0 {
		var projects []models.Project
		if err := db.Select("id", "name").Where("id IN ?", keys(projectIDs)).Find(&projects).Error; err != nil {
			return nil, err
		}
		for _, p := range projects {
			names.projects[p.ID] = p.Name
		}
	}
	if len(taskIDs) > 0 {
		var tasks []models.Task
		if err := db.Select("id", "name").Where("id IN ?", keys(taskIDs)).Find(&tasks).Error; err != nil {
			return nil, err
		}
		for _, t := range tasks {
			names.tasks[t.ID] = t.Name
		}
	}
	return names, nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
