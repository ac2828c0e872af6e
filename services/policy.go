package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

// Policy answers "may this principal act on that resource". Every check
// bottoms out in CanManage: global admins manage everything, other accounts
// manage the organizations they created, workers manage nothing.
type Policy struct {
	db *gorm.DB
}

func NewPolicy(db *gorm.DB) *Policy {
	return &Policy{db: db}
}

func present(p models.Principal) bool {
	switch v := p.(type) {
	case *models.Account:
		return v != nil
	case *models.Employee:
		return v != nil
	}
	return false
}

func (p *Policy) CanManage(ctx context.Context, principal models.Principal, organizationID string) (bool, error) {
	if !present(principal) || principal.Kind() != models.AccountTypeUser {
		return false, nil
	}
	if principal.IsAdmin() {
		return true, nil
	}
	if organizationID == "" {
		return false, nil
	}

	var org models.Organization
	err := p.db.WithContext(ctx).Select("id", "created_by").Where("id = ?", organizationID).Take(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return org.CreatedBy == principal.PrincipalID(), nil
}

func (p *Policy) CanManageProject(ctx context.Context, principal models.Principal, projectID string) (bool, error) {
	orgID, err := p.projectOrganization(ctx, projectID)
	if err != nil {
		return false, err
	}
	return p.CanManage(ctx, principal, orgID)
}

func (p *Policy) CanManageTask(ctx context.Context, principal models.Principal, taskID string) (bool, error) {
	var task models.Task
	err := p.db.WithContext(ctx).Select("id", "project_id").Where("id = ?", taskID).Take(&task).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	orgID, err := p.projectOrganization(ctx, task.ProjectID)
	if err != nil {
		return false, err
	}
	return p.CanManage(ctx, principal, orgID)
}

func (p *Policy) CanManageEmployee(ctx context.Context, principal models.Principal, employeeID string) (bool, error) {
	var emp models.Employee
	err := p.db.WithContext(ctx).Select("id", "organization_id").Where("id = ?", employeeID).Take(&emp).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return p.CanManage(ctx, principal, emp.OrganizationID)
}

// CanActOnEmployee permits the worker themself, or anyone who manages the
// worker's organization.
func (p *Policy) CanActOnEmployee(ctx context.Context, principal models.Principal, employeeID string) (bool, error) {
	if !present(principal) {
		return false, nil
	}
	if principal.Kind() == models.AccountTypeEmployee {
		return principal.PrincipalID() == employeeID, nil
	}
	return p.CanManageEmployee(ctx, principal, employeeID)
}

// projectOrganization returns "" for a missing project so the caller denies.
func (p *Policy) projectOrganization(ctx context.Context, projectID string) (string, error) {
	if projectID == "" {
		return "", nil
	}
	var project models.Project
	err := p.db.WithContext(ctx).Select("id", "organization_id").Where("id = ?", projectID).Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return project.OrganizationID, nil
}

func (p *Policy) RequireManage(ctx context.Context, principal models.Principal, organizationID string) error {
	return permit(p.CanManage(ctx, principal, organizationID))
}

func (p *Policy) RequireManageProject(ctx context.Context, principal models.Principal, projectID string) error {
	return permit(p.CanManageProject(ctx, principal, projectID))
}

func (p *Policy) RequireManageTask(ctx context.Context, principal models.Principal, taskID string) error {
	return permit(p.CanManageTask(ctx, principal, taskID))
}

func (p *Policy) RequireManageEmployee(ctx context.Context, principal models.Principal, employeeID string) error {
	return permit(p.CanManageEmployee(ctx, principal, employeeID))
}

func (p *Policy) RequireActOnEmployee(ctx context.Context, principal models.Principal, employeeID string) error {
	return permit(p.CanActOnEmployee(ctx, principal, employeeID))
}

func permit(ok bool, err error) error {
	if err != nil {
		return utils.ErrInternal("Failed to check permissions", err)
	}
	if !ok {
		return utils.ErrForbidden("Not enough permissions")
	}
	return nil
}
