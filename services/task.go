package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

type TaskService struct {
	db     *gorm.DB
	policy *Policy
}

func NewTaskService(db *gorm.DB, policy *Policy) *TaskService {
	return &TaskService{db: db, policy: policy}
}

type TaskInput struct {
	ProjectID   string `json:"project_id" validate:"required,max=36"`
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Code        string `json:"code" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=2000"`
	IsDefault   bool   `json:"is_default"`
}

type TaskUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Code        *string `json:"code" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsDefault   *bool   `json:"is_default"`
	IsActive    *bool   `json:"is_active"`
}

type TaskFilter struct {
	IsActive *bool
	Search   string
	Page     int
	Size     int
}

var errDefaultExists = utils.ErrConflict("Project already has an active default task")

func (s *TaskService) Create(ctx context.Context, actor models.Principal, in TaskInput) (*models.Task, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManageProject(ctx, actor, in.ProjectID); err != nil {
		return nil, err
	}

	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadActiveProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		code := strings.TrimSpace(in.Code)
		if err := ensureTaskCodeFree(tx, project.ID, code, ""); err != nil {
			return err
		}
		if in.IsDefault {
			if err := ensureNoActiveDefault(tx, project.ID, ""); err != nil {
				return err
			}
		}
		task = models.Task{
			ProjectID:   project.ID,
			Name:        strings.TrimSpace(in.Name),
			Code:        code,
			Description: in.Description,
			IsDefault:   in.IsDefault,
			IsActive:    true,
			CreatedBy:   actor.PrincipalID(),
		}
		return createTask(tx, &task)
	})
	if err != nil {
		return nil, serviceError(err, "Failed to create task")
	}
	return &task, nil
}

// CreateDefault creates the project's DEFAULT task, reviving an earlier one
// with that code if it was deactivated.
func (s *TaskService) CreateDefault(ctx context.Context, actor models.Principal, projectID string) (*models.Task, error) {
	if err := s.policy.RequireManageProject(ctx, actor, projectID); err != nil {
		return nil, err
	}

	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadActiveProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := ensureNoActiveDefault(tx, project.ID, ""); err != nil {
			return err
		}

		err = tx.Where("project_id = ? AND code = ?", project.ID, models.DefaultTaskCode).Take(&task).Error
		if err == nil {
			return tx.Model(&task).Updates(map[string]interface{}{"is_default": true, "is_active": true}).Error
		}
		if !isNotFound(err) {
			return err
		}
		task = models.Task{
			ProjectID:   project.ID,
			Name:        "Default Task",
			Code:        models.DefaultTaskCode,
			Description: "Default task for " + project.Name,
			IsDefault:   true,
			IsActive:    true,
			CreatedBy:   actor.PrincipalID(),
		}
		return createTask(tx, &task)
	})
	if err != nil {
		return nil, serviceError(err, "Failed to create default task")
	}
	task.IsDefault, task.IsActive = true, true
	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, actor models.Principal, id string) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireView(ctx, actor, task.ProjectID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ListByProject(ctx context.Context, actor models.Principal, projectID string, f TaskFilter) (utils.Page[models.Task], error) {
	var page utils.Page[models.Task]
	if err := s.requireView(ctx, actor, projectID); err != nil {
		return page, err
	}

	q := s.db.WithContext(ctx).Model(&models.Task{}).Where("project_id = ?", projectID)
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return page, utils.ErrInternal("Failed to count tasks", err)
	}
	p, size := clampPage(f.Page, f.Size)
	var items []models.Task
	if err := q.Order("is_default DESC, name ASC").Offset((p - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return page, utils.ErrInternal("Failed to load tasks", err)
	}
	return utils.NewPage(items, total, p, size), nil
}

func (s *TaskService) Update(ctx context.Context, actor models.Principal, id string, in TaskUpdate) (*models.Task, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManageTask(ctx, actor, id); err != nil {
		return nil, err
	}

	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&task).Error; err != nil {
			return notFound(err, "Task not found")
		}
		wasActiveDefault := task.IsDefault && task.IsActive

		if in.Code != nil {
			code := strings.TrimSpace(*in.Code)
			if code != task.Code {
				if err := ensureTaskCodeFree(tx, task.ProjectID, code, task.ID); err != nil {
					return err
				}
				task.Code = code
			}
		}
		if in.Name != nil {
			task.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if in.IsDefault != nil {
			task.IsDefault = *in.IsDefault
		}
		if in.IsActive != nil {
			task.IsActive = *in.IsActive
		}

		if task.IsDefault && task.IsActive && !wasActiveDefault {
			if err := ensureNoActiveDefault(tx, task.ProjectID, task.ID); err != nil {
				return err
			}
		}
		if err := tx.Save(&task).Error; err != nil {
			if isUniqueViolation(err) {
				return utils.ErrConflict("Task conflicts with an existing task in this project")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, serviceError(err, "Failed to update task")
	}
	return &task, nil
}

// Delete deactivates a task. The default task stays.
func (s *TaskService) Delete(ctx context.Context, actor models.Principal, id string) error {
	if err := s.policy.RequireManageTask(ctx, actor, id); err != nil {
		return err
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if task.IsDefault {
		return utils.ErrInvalidState("Default task cannot be deleted")
	}
	if err := s.db.WithContext(ctx).Model(task).Update("is_active", false).Error; err != nil {
		return utils.ErrInternal("Failed to delete task", err)
	}
	return nil
}

func (s *TaskService) AssignEmployees(ctx context.Context, actor models.Principal, taskID string, in AssignEmployeesInput) ([]models.Employee, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManageTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ids := uniqueIDs(in.EmployeeIDs)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Select("id", "organization_id").Where("id = ?", task.ProjectID).Take(&project).Error; err != nil {
			return notFound(err, "Project not found")
		}
		if err := checkEmployeesInOrganization(tx, project.OrganizationID, ids); err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, employeeID := range ids {
			var existing models.TaskAssignment
			err := tx.Where("task_id = ? AND employee_id = ?", taskID, employeeID).Take(&existing).Error
			switch {
			case err == nil:
				if existing.IsActive {
					continue
				}
				if err := tx.Model(&existing).Updates(map[string]interface{}{"is_active": true, "assigned_at": now}).Error; err != nil {
					return err
				}
			case isNotFound(err):
				if err := tx.Create(&models.TaskAssignment{
					TaskID:     taskID,
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
	return activeAssignees(s.db.WithContext(ctx), "task_assignments", "task_id", taskID)
}

func (s *TaskService) RemoveEmployees(ctx context.Context, actor models.Principal, taskID string, in AssignEmployeesInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return err
	}
	if err := s.policy.RequireManageTask(ctx, actor, taskID); err != nil {
		return err
	}
	if _, err := s.load(ctx, taskID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&models.TaskAssignment{}).
		Where("task_id = ? AND employee_id IN ?", taskID, uniqueIDs(in.EmployeeIDs)).
		Update("is_active", false).Error
	if err != nil {
		return utils.ErrInternal("Failed to remove employees", err)
	}
	return nil
}

func (s *TaskService) ListEmployees(ctx context.Context, actor models.Principal, taskID string) ([]models.Employee, error) {
	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	employees, err := activeAssignees(s.db.WithContext(ctx), "task_assignments", "task_id", task.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to load task employees", err)
	}
	return employees, nil
}

func (s *TaskService) ListEmployeeTasks(ctx context.Context, actor models.Principal, employeeID string) ([]models.Task, error) {
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var tasks []models.Task
	err := db.Where("is_active = ? AND id IN (?)", true,
		db.Model(&models.TaskAssignment{}).Select("task_id").Where("employee_id = ? AND is_active = ?", employeeID, true),
	).Order("name ASC").Find(&tasks).Error
	if err != nil {
		return nil, utils.ErrInternal("Failed to load employee tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) requireView(ctx context.Context, actor models.Principal, projectID string) error {
	if emp, ok := actor.(*models.Employee); ok && emp != nil {
		var project models.Project
		err := s.db.WithContext(ctx).Select("id", "organization_id").Where("id = ?", projectID).Take(&project).Error
		if err == nil && project.OrganizationID == emp.OrganizationID {
			return nil
		}
		if err != nil && !isNotFound(err) {
			return utils.ErrInternal("Failed to check permissions", err)
		}
	}
	return s.policy.RequireManageProject(ctx, actor, projectID)
}

func (s *TaskService) load(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&task).Error; err != nil {
		return nil, serviceError(notFound(err, "Task not found"), "Failed to load task")
	}
	return &task, nil
}

func loadActiveProject(tx *gorm.DB, projectID string) (*models.Project, error) {
	var project models.Project
	if err := tx.Where("id = ? AND is_active = ?", projectID, true).Take(&project).Error; err != nil {
		return nil, notFound(err, "Project not found")
	}
	return &project, nil
}

func ensureTaskCodeFree(tx *gorm.DB, projectID, code, excludeID string) error {
	q := tx.Model(&models.Task{}).Where("project_id = ? AND code = ?", projectID, code)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrConflict("Task code already exists in this project")
	}
	return nil
}

func ensureNoActiveDefault(tx *gorm.DB, projectID, excludeID string) error {
	q := tx.Model(&models.Task{}).Where("project_id = ? AND is_default = ? AND is_active = ?", projectID, true, true)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errDefaultExists
	}
	return nil
}

func createTask(tx *gorm.DB, task *models.Task) error {
	if err := tx.Create(task).Error; err != nil {
		if isUniqueViolation(err) {
			return utils.ErrConflict("Task conflicts with an existing task in this project")
		}
		return err
	}
	return nil
}
