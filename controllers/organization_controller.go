package controller

import (
	"github.com/gofiber/fiber/v2"

	"momentum/services"
	"momentum/utils"
)

type OrganizationController struct {
	orgs *services.OrganizationService
}

func NewOrganizationController(orgs *services.OrganizationService) *OrganizationController {
	return &OrganizationController{orgs: orgs}
}

func (oc *OrganizationController) CreateOrganization(c *fiber.Ctx) error {
	var req services.OrganizationInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	org, err := oc.orgs.Create(c.UserContext(), principal(c), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, org)
}

func (oc *OrganizationController) GetOrganizations(c *fiber.Ctx) error {
	orgs, err := oc.orgs.ListMine(c.UserContext(), principal(c))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, orgs)
}

func (oc *OrganizationController) GetOrganization(c *fiber.Ctx) error {
	org, err := oc.orgs.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, org)
}

func (oc *OrganizationController) GetOrganizationByDomain(c *fiber.Ctx) error {
	org, err := oc.orgs.GetByDomain(c.UserContext(), principal(c), c.Params("domain"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, org)
}

func (oc *OrganizationController) UpdateOrganization(c *fiber.Ctx) error {
	var req services.OrganizationUpdate
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	org, err := oc.orgs.Update(c.UserContext(), principal(c), c.Params("id"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, org)
}

func (oc *OrganizationController) DeleteOrganization(c *fiber.Ctx) error {
	if err := oc.orgs.Delete(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Organization deleted successfully"})
}
