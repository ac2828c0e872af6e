package controller

import (
	"github.com/gofiber/fiber/v2"

	"momentum/services"
	"momentum/utils"
)

type ProjectController struct {
	projects *services.ProjectService
}

func NewProjectController(projects *services.ProjectService) *ProjectController {
	return &ProjectController{projects: projects}
}

func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	var req services.ProjectInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	project, err := pc.projects.Create(c.UserContext(), principal(c), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, project)
}

// GetOrganizationProjects lists /organizations/:id/projects.
func (pc *ProjectController) GetOrganizationProjects(c *fiber.Ctx) error {
	active, err := queryBool(c, "is_active")
	if err != nil {
		return utils.Fail(c, err)
	}
	archived, err := queryBool(c, "is_archived")
	if err != nil {
		return utils.Fail(c, err)
	}
	page, size := pagination(c)
	result, err := pc.projects.ListByOrganization(c.UserContext(), principal(c), c.Params("id"), services.ProjectFilter{
		IsActive:   active,
		IsArchived: archived,
		Search:     c.Query("search"),
		Page:       page,
		Size:       size,
	})
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	project, err := pc.projects.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, project)
}

func (pc *ProjectController) UpdateProject(c *fiber.Ctx) error {
	var req services.ProjectUpdate
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	project, err := pc.projects.Update(c.UserContext(), principal(c), c.Params("id"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, project)
}

func (pc *ProjectController) DeleteProject(c *fiber.Ctx) error {
	if err := pc.projects.Delete(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Project deleted successfully"})
}

func (pc *ProjectController) ArchiveProject(c *fiber.Ctx) error {
	return pc.setArchived(c, true)
}

func (pc *ProjectController) UnarchiveProject(c *fiber.Ctx) error {
	return pc.setArchived(c, false)
}

func (pc *ProjectController) AssignEmployees(c *fiber.Ctx) error {
	var req services.AssignEmployeesInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	employees, err := pc.projects.AssignEmployees(c.UserContext(), principal(c), c.Params("id"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, employees)
}

func (pc *ProjectController) RemoveEmployees(c *fiber.Ctx) error {
	var req services.AssignEmployeesInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	if err := pc.projects.RemoveEmployees(c.UserContext(), principal(c), c.Params("id"), req); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Employees removed from project"})
}

func (pc *ProjectController) GetProjectEmployees(c *fiber.Ctx) error {
	employees, err := pc.projects.ListEmployees(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, employees)
}

func (pc *ProjectController) setArchived(c *fiber.Ctx, archived bool) error {
	project, err := pc.projects.SetArchived(c.UserContext(), principal(c), c.Params("id"), archived)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, project)
}
