package controller

import (
	"github.com/gofiber/fiber/v2"

	"momentum/services"
	"momentum/utils"
)

type TaskController struct {
	tasks *services.TaskService
}

func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	var req services.TaskInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	task, err := tc.tasks.Create(c.UserContext(), principal(c), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, task)
}

func (tc *TaskController) CreateDefaultTask(c *fiber.Ctx) error {
	task, err := tc.tasks.CreateDefault(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, task)
}

// GetProjectTasks lists /projects/:id/tasks.
func (tc *TaskController) GetProjectTasks(c *fiber.Ctx) error {
	active, err := queryBool(c, "is_active")
	if err != nil {
		return utils.Fail(c, err)
	}
	page, size := pagination(c)
	result, err := tc.tasks.ListByProject(c.UserContext(), principal(c), c.Params("id"), services.TaskFilter{
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

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	task, err := tc.tasks.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, task)
}

func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	var req services.TaskUpdate
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	task, err := tc.tasks.Update(c.UserContext(), principal(c), c.Params("id"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, task)
}

func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	if err := tc.tasks.Delete(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Task deleted successfully"})
}

func (tc *TaskController) AssignEmployees(c *fiber.Ctx) error {
	var req services.AssignEmployeesInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	employees, err := tc.tasks.AssignEmployees(c.UserContext(), principal(c), c.Params("id"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, employees)
}

func (tc *TaskController) RemoveEmployees(c *fiber.Ctx) error {
	var req services.AssignEmployeesInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	if err := tc.tasks.RemoveEmployees(c.UserContext(), principal(c), c.Params("id"), req); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Employees removed from task"})
}

func (tc *TaskController) GetTaskEmployees(c *fiber.Ctx) error {
	employees, err := tc.tasks.ListEmployees(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, employees)
}
