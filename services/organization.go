package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

type OrganizationService struct {
	db      *gorm.DB
	policy  *Policy
	domains utils.DomainChecker
}

// NewOrganizationService: a nil checker skips domain registration checks.
func NewOrganizationService(db *gorm.DB, policy *Policy, domains utils.DomainChecker) *OrganizationService {
	return &OrganizationService{db: db, policy: policy, domains: domains}
}

type OrganizationInput struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Domain      string `json:"domain" validate:"required,fqdn,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Address     string `json:"address" validate:"max=500"`
	Phone       string `json:"phone" validate:"max=30"`
}

type OrganizationUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Domain      *string `json:"domain" validate:"omitempty,fqdn,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	IsActive    *bool   `json:"is_active"`
}

func (s *OrganizationService) Create(ctx context.Context, actor models.Principal, in OrganizationInput) (*models.Organization, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !present(actor) || actor.Kind() != models.AccountTypeUser {
		return nil, utils.ErrForbidden("Only account holders can create organizations")
	}

	domain := strings.ToLower(strings.TrimSpace(in.Domain))
	if err := s.checkDomain(ctx, domain, ""); err != nil {
		return nil, err
	}

	org := models.Organization{
		Name:        strings.TrimSpace(in.Name),
		Domain:      domain,
		Description: in.Description,
		Address:     in.Address,
		Phone:       in.Phone,
		CreatedBy:   actor.PrincipalID(),
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(&org).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.ErrConflict("Organization with this domain already exists")
		}
		return nil, utils.ErrInternal("Failed to create organization", err)
	}

	utils.LogEvent("organization_created", map[string]interface{}{
		"organization_id": org.ID,
		"created_by":      org.CreatedBy,
	})
	return &org, nil
}

func (s *OrganizationService) Get(ctx context.Context, actor models.Principal, id string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&org).Error; err != nil {
		return nil, serviceError(notFound(err, "Organization not found"), "Failed to load organization")
	}
	if err := s.requireView(ctx, actor, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *OrganizationService) GetByDomain(ctx context.Context, actor models.Principal, domain string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.WithContext(ctx).Where("domain = ?", strings.ToLower(strings.TrimSpace(domain))).Take(&org).Error
	if err != nil {
		return nil, serviceError(notFound(err, "Organization not found"), "Failed to load organization")
	}
	if err := s.requireView(ctx, actor, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// ListMine returns every active organization for admins, the created ones
// for other accounts, and the own organization for workers.
func (s *OrganizationService) ListMine(ctx context.Context, actor models.Principal) ([]models.Organization, error) {
	if !present(actor) {
		return nil, utils.ErrUnauthorized("Authentication required")
	}
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	switch p := actor.(type) {
	case *models.Employee:
		q = q.Where("id = ?", p.OrganizationID)
	case *models.Account:
		if !p.IsAdmin() {
			q = q.Where("created_by = ?", p.ID)
		}
	}
	var orgs []models.Organization
	if err := q.Order("created_at DESC").Find(&orgs).Error; err != nil {
		return nil, utils.ErrInternal("Failed to load organizations", err)
	}
	return orgs, nil
}

func (s *OrganizationService) Update(ctx context.Context, actor models.Principal, id string, in OrganizationUpdate) (*models.Organization, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireManage(ctx, actor, id); err != nil {
		return nil, err
	}

	var org models.Organization
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&org).Error; err != nil {
		return nil, serviceError(notFound(err, "Organization not found"), "Failed to load organization")
	}

	if in.Domain != nil {
		domain := strings.ToLower(strings.TrimSpace(*in.Domain))
		if domain != org.Domain {
			if err := s.checkDomain(ctx, domain, org.ID); err != nil {
				return nil, err
			}
			org.Domain = domain
		}
	}
	if in.Name != nil {
		org.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		org.Description = *in.Description
	}
	if in.Address != nil {
		org.Address = *in.Address
	}
	if in.Phone != nil {
		org.Phone = *in.Phone
	}
	if in.IsActive != nil {
		org.IsActive = *in.IsActive
	}

	if err := s.db.WithContext(ctx).Save(&org).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.ErrConflict("Organization with this domain already exists")
		}
		return nil, utils.ErrInternal("Failed to update organization", err)
	}
	return &org, nil
}

// Delete deactivates the organization; its data is kept.
func (s *OrganizationService) Delete(ctx context.Context, actor models.Principal, id string) error {
	if err := s.policy.RequireManage(ctx, actor, id); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.Organization{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return utils.ErrInternal("Failed to delete organization", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound("Organization not found")
	}
	utils.LogEvent("organization_deleted", map[string]interface{}{
		"organization_id": id,
		"actor_id":        actor.PrincipalID(),
	})
	return nil
}

func (s *OrganizationService) requireView(ctx context.Context, actor models.Principal, org *models.Organization) error {
	if emp, ok := actor.(*models.Employee); ok && emp != nil && emp.OrganizationID == org.ID {
		return nil
	}
	return s.policy.RequireManage(ctx, actor, org.ID)
}

func (s *OrganizationService) checkDomain(ctx context.Context, domain, excludeID string) error {
	q := s.db.WithContext(ctx).Model(&models.Organization{}).Where("domain = ?", domain)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return utils.ErrInternal("Failed to check domain", err)
	}
	if count > 0 {
		return utils.ErrConflict("Organization with this domain already exists")
	}

	if s.domains == nil {
		return nil
	}
	registered, err := s.domains.Registered(domain)
	if err != nil {
		// A failed lookup is logged and the domain accepted.
		utils.LogError("domain_lookup_failed", err, map[string]interface{}{"domain": domain})
		return nil
	}
	if !registered {
		return utils.ErrValidation(utils.FieldError{Field: "domain", Message: "domain is not registered"})
	}
	return nil
}
