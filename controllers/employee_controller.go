package controller

import (
	"github.com/gofiber/fiber/v2"

	"momentum/services"
	"momentum/utils"
)

type EmployeeController struct {
	employees *services.EmployeeService
	projects  *services.ProjectService
	tasks     *services.TaskService
}

func NewEmployeeController(employees *services.EmployeeService, projects *services.ProjectService, tasks *services.TaskService) *EmployeeController {
	return &EmployeeController{employees: employees, projects: projects, tasks: tasks}
}

func (ec *EmployeeController) CreateEmployee(c *fiber.Ctx) error {
	var req services.CreateEmployeeInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	emp, err := ec.employees.Create(c.UserContext(), principal(c), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, emp)
}

// GetOrganizationEmployees lists /organizations/:id/employees.
func (ec *EmployeeController) GetOrganizationEmployees(c *fiber.Ctx) error {
	active, err := queryBool(c, "is_active")
	if err != nil {
		return utils.Fail(c, err)
	}
	page, size := pagination(c)
	result, err := ec.employees.List(c.UserContext(), principal(c), c.Params("id"), services.EmployeeFilter{
		IsActive: active,
		Search:   c.Query("search"),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (ec *EmployeeController) GetEmployee(c *fiber.Ctx) error {
	emp, err := ec.employees.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, emp)
}

func (ec *EmployeeController) UpdateEmployee(c *fiber.Ctx) error {
	var req services.UpdateEmployeeInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	emp, err := ec.employees.Update(c.UserContext(), principal(c), c.Params("id"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, emp)
}

func (ec *EmployeeController) DeleteEmployee(c *fiber.Ctx) error {
	if err := ec.employees.Delete(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Employee deactivated successfully"})
}

func (ec *EmployeeController) ActivateEmployee(c *fiber.Ctx) error {
	return ec.setActive(c, true)
}

func (ec *EmployeeController) DeactivateEmployee(c *fiber.Ctx) error {
	return ec.setActive(c, false)
}

func (ec *EmployeeController) GetEmployeeProjects(c *fiber.Ctx) error {
	projects, err := ec.projects.ListEmployeeProjects(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, projects)
}

func (ec *EmployeeController) GetEmployeeTasks(c *fiber.Ctx) error {
	tasks, err := ec.tasks.ListEmployeeTasks(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, tasks)
}

func (ec *EmployeeController) setActive(c *fiber.Ctx, active bool) error {
	emp, err := ec.employees.SetActive(c.UserContext(), principal(c), c.Params("id"), active)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, emp)
}
