package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

type ProjectService struct {
	db     *gorm.DB
	policy *Policy
}

func NewProjectService(db *gorm.DB, policy *Policy) *ProjectService {
	return &ProjectService{db: db, policy: policy}
}

type ProjectInput struct {
	OrganizationID  string     `json:"organization_id" validate:"required,max=36"`
	Name            string     `json:"name" validate:"required,min=2,max=255"`
	Code            string     `json:"code" validate:"required,min=2,max=50"`
	Description     string     `json:"description" validate:"max=2000"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	MaxHoursPerDay  *int       `json:"max_hours_per_day" validate:"omitempty,min=1,max=24"`
	MaxHoursPerWeek *int       `json:"max_hours_per_week" validate:"omitempty,min=1,max=168"`
}

type ProjectUpdate struct {
	Name            *string    `json:"name" validate:"omitempty,min=2,max=255"`
	Code            *string    `json:"code" validate:"omitempty,min=2,max=50"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	MaxHoursPerDay  *int       `json:"max_hours_per_day" validate:"omitempty,min=1,max=24"`
	MaxHoursPerWeek *int       `json:"max_hours_per_week" validate:"omitempty,min=1,max=168"`
	IsActive        *bool      `json:"is_active"`
}

type ProjectFilter struct {
	IsActive   *bool
	IsArchived *bool
	Search     string
	Page       int
	Size       int
}

func (s *ProjectService) Create(ctx context.Context, actor models.Principal, in ProjectInput) (*models.Project, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManage(ctx, actor, in.OrganizationID); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var org models.Organization
	if err := db.Where("id = ? AND is_active = ?", in.OrganizationID, true).Take(&org).Error; err != nil {
		return nil, serviceError(notFound(err, "Organization not found"), "Failed to load organization")
	}
	code := strings.TrimSpace(in.Code)
	if err := s.ensureCodeFree(db, org.ID, code, ""); err != nil {
		return nil, err
	}

	project := models.Project{
		OrganizationID:  org.ID,
		Name:            strings.TrimSpace(in.Name),
		Code:            code,
		Description:     in.Description,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		MaxHoursPerDay:  in.MaxHoursPerDay,
		MaxHoursPerWeek: in.MaxHoursPerWeek,
		IsActive:        true,
		CreatedBy:       actor.PrincipalID(),
	}
	if err := db.Create(&project).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.ErrConflict("Project code already exists")
		}
		return nil, utils.ErrInternal("Failed to create project", err)
	}
	return &project, nil
}

func (s *ProjectService) Get(ctx context.Context, actor models.Principal, id string) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireView(ctx, actor, project.OrganizationID); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) ListByOrganization(ctx context.Context, actor models.Principal, organizationID string, f ProjectFilter) (utils.Page[models.Project], error) {
	var page utils.Page[models.Project]
	if err := s.requireView(ctx, actor, organizationID); err != nil {
		return page, err
	}

	q := s.db.WithContext(ctx).Model(&models.Project{}).Where("organization_id = ?", organizationID)
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.IsArchived != nil {
		q = q.Where("is_archived = ?", *f.IsArchived)
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return page, utils.ErrInternal("Failed to count projects", err)
	}
	p, size := clampPage(f.Page, f.Size)
	var items []models.Project
	if err := q.Order("created_at DESC").Offset((p - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return page, utils.ErrInternal("Failed to load projects", err)
	}
	return utils.NewPage(items, total, p, size), nil
}

func (s *ProjectService) Update(ctx context.Context, actor models.Principal, id string, in ProjectUpdate) (*models.Project, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManageProject(ctx, actor, id); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code != project.Code {
			if err := s.ensureCodeFree(db, project.OrganizationID, code, project.ID); err != nil {
				return nil, err
			}
			project.Code = code
		}
	}
	if in.Name != nil {
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.StartDate != nil {
		project.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		project.EndDate = in.EndDate
	}
	if in.MaxHoursPerDay != nil {
		project.MaxHoursPerDay = in.MaxHoursPerDay
	}
	if in.MaxHoursPerWeek != nil {
		project.MaxHoursPerWeek = in.MaxHoursPerWeek
	}
	if in.IsActive != nil {
		project.IsActive = *in.IsActive
	}
	if err := checkDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	if err := db.Save(project).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.ErrConflict("Project code already exists")
		}
		return nil, utils.ErrInternal("Failed to update project", err)
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor models.Principal, id string) error {
	if err := s.policy.RequireManageProject(ctx, actor, id); err != nil {
		return err
	}
	return s.setFlag(ctx, id, "is_active", false)
}

func (s *ProjectService) SetArchived(ctx context.Context, actor models.Principal, id string, archived bool) (*models.Project, error) {
	if err := s.policy.RequireManageProject(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.setFlag(ctx, id, "is_archived", archived); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *ProjectService) AssignEmployees(ctx context.Context, actor models.Principal, projectID string, in AssignEmployeesInput) ([]models.Employee, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManageProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids := uniqueIDs(in.EmployeeIDs)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkEmployeesInOrganization(tx, project.OrganizationID, ids); err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, employeeID := range ids {
			var existing models.ProjectAssignment
			err := tx.Where("project_id = ? AND employee_id = ?", projectID, employeeID).Take(&existing).Error
			switch {
			case err == nil:
				if existing.IsActive {
					continue
				}
				if err := tx.Model(&existing).Updates(map[string]interface{}{"is_active": true, "assigned_at": now}).Error; err != nil {
					return err
				}
			case isNotFound(err):
				if err := tx.Create(&models.ProjectAssignment{
					ProjectID:  projectID,
					EmployeeID: employeeID,
					AssignedAt: now,
					IsActive:   true,
				}).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, serviceError(err, "Failed to assign employees")
	}
	return activeAssignees(s.db.WithContext(ctx), "project_assignments", "project_id", projectID)
}

func (s *ProjectService) RemoveEmployees(ctx context.Context, actor models.Principal, projectID string, in AssignEmployeesInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return err
	}
	if err := s.policy.RequireManageProject(ctx, actor, projectID); err != nil {
		return err
	}
	if _, err := s.load(ctx, projectID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&models.ProjectAssignment{}).
		Where("project_id = ? AND employee_id IN ?", projectID, uniqueIDs(in.EmployeeIDs)).
		Update("is_active", false).Error
	if err != nil {
		return utils.ErrInternal("Failed to remove employees", err)
	}
	return nil
}

func (s *ProjectService) ListEmployees(ctx context.Context, actor models.Principal, projectID string) ([]models.Employee, error) {
	project, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	employees, err := activeAssignees(s.db.WithContext(ctx), "project_assignments", "project_id", project.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to load project employees", err)
	}
	return employees, nil
}

func (s *ProjectService) ListEmployeeProjects(ctx context.Context, actor models.Principal, employeeID string) ([]models.Project, error) {
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var projects []models.Project
	err := db.Where("is_active = ? AND id IN (?)", true,
		db.Model(&models.ProjectAssignment{}).Select("project_id").Where("employee_id = ? AND is_active = ?", employeeID, true),
	).Order("name ASC").Find(&projects).Error
	if err != nil {
		return nil, utils.ErrInternal("Failed to load employee projects", err)
	}
	return projects, nil
}

// requireView admits managers of the organization and its own workers.
func (s *ProjectService) requireView(ctx context.Context, actor models.Principal, organizationID string) error {
	if emp, ok := actor.(*models.Employee); ok && emp != nil && emp.OrganizationID == organizationID {
		return nil
	}
	return s.policy.RequireManage(ctx, actor, organizationID)
}

func (s *ProjectService) load(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&project).Error; err != nil {
		return nil, serviceError(notFound(err, "Project not found"), "Failed to load project")
	}
	return &project, nil
}

func (s *ProjectService) setFlag(ctx context.Context, id, column string, value bool) error {
	res := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return utils.ErrInternal("Failed to update project", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound("Project not found")
	}
	return nil
}

func (s *ProjectService) ensureCodeFree(db *gorm.DB, organizationID, code, excludeID string) error {
	q := db.Model(&models.Project{}).Where("organization_id = ? AND code = ?", organizationID, code)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return utils.ErrInternal("Failed to check project code", err)
	}
	if count > 0 {
		return utils.ErrConflict("Project code already exists")
	}
	return nil
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return utils.ErrValidation(utils.FieldError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	return nil
}
