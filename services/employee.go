package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

type EmployeeService struct {
	db       *gorm.DB
	policy   *Policy
	notifier Notifier
	loginURL string
}

func NewEmployeeService(db *gorm.DB, policy *Policy, notifier Notifier, loginURL string) *EmployeeService {
	return &EmployeeService{db: db, policy: policy, notifier: notifier, loginURL: loginURL}
}

type CreateEmployeeInput struct {
	OrganizationID string `json:"organization_id" validate:"required,max=36"`
	Name           string `json:"name" validate:"required,min=2,max=255"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,password"`
	Phone          string `json:"phone" validate:"max=30"`
	Designation    string `json:"designation" validate:"max=100"`
}

type UpdateEmployeeInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    *string `json:"password" validate:"omitempty,password"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	Designation *string `json:"designation" validate:"omitempty,max=100"`
}

type EmployeeFilter struct {
	IsActive *bool
	Search   string
	Page     int
	Size     int
}

func (s *EmployeeService) Create(ctx context.Context, actor models.Principal, in CreateEmployeeInput) (*models.Employee, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManage(ctx, actor, in.OrganizationID); err != nil {
		return nil, err
	}
	email, err := utils.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var org models.Organization
	if err := db.Where("id = ? AND is_active = ?", in.OrganizationID, true).Take(&org).Error; err != nil {
		return nil, serviceError(notFound(err, "Organization not found"), "Failed to load organization")
	}
	if err := s.ensureEmailFree(db, email, ""); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, utils.ErrInternal("Failed to create employee", err)
	}
	emp := models.Employee{
		OrganizationID: org.ID,
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		PasswordHash:   hash,
		Phone:          in.Phone,
		Designation:    in.Designation,
		IsActive:       true,
	}
	if err := db.Create(&emp).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.ErrConflict("Employee with this email already exists")
		}
		return nil, utils.ErrInternal("Failed to create employee", err)
	}

	if err := s.notifier.SendCredentials(ctx, emp.Email, emp.Name, s.loginURL, in.Password); err != nil {
		utils.LogError("credentials_email_failed", err, map[string]interface{}{
			"employee_id": emp.ID,
		})
	}
	utils.LogEvent("employee_created", map[string]interface{}{
		"employee_id":     emp.ID,
		"organization_id": emp.OrganizationID,
	})
	return &emp, nil
}

func (s *EmployeeService) List(ctx context.Context, actor models.Principal, organizationID string, f EmployeeFilter) (utils.Page[models.Employee], error) {
	var page utils.Page[models.Employee]
	if err := s.policy.RequireManage(ctx, actor, organizationID); err != nil {
		return page, err
	}

	q := s.db.WithContext(ctx).Model(&models.Employee{}).Where("organization_id = ?", organizationID)
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return page, utils.ErrInternal("Failed to count employees", err)
	}
	p, size := clampPage(f.Page, f.Size)
	var items []models.Employee
	if err := q.Order("name ASC").Offset((p - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return page, utils.ErrInternal("Failed to load employees", err)
	}
	return utils.NewPage(items, total, p, size), nil
}

func (s *EmployeeService) Get(ctx context.Context, actor models.Principal, id string) (*models.Employee, error) {
	if err := s.policy.RequireActOnEmployee(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Update lets managers change everything and workers change their own
// profile and password. Email changes need a manager.
func (s *EmployeeService) Update(ctx context.Context, actor models.Principal, id string, in UpdateEmployeeInput) (*models.Employee, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireActOnEmployee(ctx, actor, id); err != nil {
		return nil, err
	}
	emp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if in.Email != nil {
		manages, err := s.policy.CanManage(ctx, actor, emp.OrganizationID)
		if err != nil {
			return nil, utils.ErrInternal("Failed to check permissions", err)
		}
		if !manages {
			return nil, utils.ErrForbidden("Only organization managers can change an employee's email")
		}
		email, err := utils.NormalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if email != emp.Email {
			if err := s.ensureEmailFree(db, email, emp.ID); err != nil {
				return nil, err
			}
			emp.Email = email
		}
	}
	if in.Name != nil {
		emp.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		emp.Phone = *in.Phone
	}
	if in.Designation != nil {
		emp.Designation = *in.Designation
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, utils.ErrInternal("Failed to update employee", err)
		}
		emp.PasswordHash = hash
		emp.TokenVersion++
	}

	if err := db.Save(emp).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.ErrConflict("Employee with this email already exists")
		}
		return nil, utils.ErrInternal("Failed to update employee", err)
	}
	return emp, nil
}

// Delete deactivates the worker and revokes their tokens.
func (s *EmployeeService) Delete(ctx context.Context, actor models.Principal, id string) error {
	_, err := s.SetActive(ctx, actor, id, false)
	return err
}

func (s *EmployeeService) SetActive(ctx context.Context, actor models.Principal, id string, active bool) (*models.Employee, error) {
	if err := s.policy.RequireManageEmployee(ctx, actor, id); err != nil {
		return nil, err
	}
	emp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"is_active": active}
	if !active {
		updates["token_version"] = gorm.Expr("token_version + 1")
	}
	if err := s.db.WithContext(ctx).Model(emp).Updates(updates).Error; err != nil {
		return nil, utils.ErrInternal("Failed to update employee", err)
	}
	emp.IsActive = active
	utils.LogEvent("employee_status_changed", map[string]interface{}{
		"employee_id": id,
		"is_active":   active,
		"actor_id":    actor.PrincipalID(),
	})
	return emp, nil
}

func (s *EmployeeService) load(ctx context.Context, id string) (*models.Employee, error) {
	var emp models.Employee
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&emp).Error; err != nil {
		return nil, serviceError(notFound(err, "Employee not found"), "Failed to load employee")
	}
	return &emp, nil
}

func (s *EmployeeService) ensureEmailFree(db *gorm.DB, email, excludeID string) error {
	q := db.Model(&models.Employee{}).Where("email = ?", email)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return utils.ErrInternal("Failed to check email", err)
	}
	if count > 0 {
		return utils.ErrConflict("Employee with this email already exists")
	}
	return nil
}
