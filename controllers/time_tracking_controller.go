package controller

import (
	"github.com/gofiber/fiber/v2"

	"momentum/services"
	"momentum/utils"
)

type TimeTrackingController struct {
	tracking *services.TimeTrackingService
	reports  *services.ReportService
}

func NewTimeTrackingController(tracking *services.TimeTrackingService, reports *services.ReportService) *TimeTrackingController {
	return &TimeTrackingController{tracking: tracking, reports: reports}
}

func (tc *TimeTrackingController) ClockIn(c *fiber.Ctx) error {
	var req services.ClockInInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := tc.tracking.ClockIn(c.UserContext(), principal(c), c.Params("employeeId"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, session)
}

func (tc *TimeTrackingController) ClockOut(c *fiber.Ctx) error {
	var req services.ClockOutInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := tc.tracking.ClockOut(c.UserContext(), principal(c), c.Params("employeeId"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, session)
}

func (tc *TimeTrackingController) StartBreak(c *fiber.Ctx) error {
	var req services.StartBreakInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := tc.tracking.StartBreak(c.UserContext(), principal(c), c.Params("employeeId"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, session)
}

func (tc *TimeTrackingController) EndBreak(c *fiber.Ctx) error {
	var req services.EndBreakInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := tc.tracking.EndBreak(c.UserContext(), principal(c), c.Params("employeeId"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, session)
}

func (tc *TimeTrackingController) GetCurrentSession(c *fiber.Ctx) error {
	current, err := tc.tracking.GetCurrentSession(c.UserContext(), principal(c), c.Params("employeeId"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, current)
}

func (tc *TimeTrackingController) GetEmployeeLogs(c *fiber.Ctx) error {
	start, err := queryTime(c, "start_date")
	if err != nil {
		return utils.Fail(c, err)
	}
	end, err := queryTime(c, "end_date")
	if err != nil {
		return utils.Fail(c, err)
	}
	active, err := queryBool(c, "is_active")
	if err != nil {
		return utils.Fail(c, err)
	}
	page, size := pagination(c)

	result, err := tc.tracking.EmployeeLogs(c.UserContext(), principal(c), c.Params("employeeId"), services.LogFilter{
		StartDate: start,
		EndDate:   end,
		ProjectID: c.Query("project_id"),
		TaskID:    c.Query("task_id"),
		IsActive:  active,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		Size:      size,
	})
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (tc *TimeTrackingController) GetEntry(c *fiber.Ctx) error {
	session, err := tc.tracking.GetEntry(c.UserContext(), principal(c), c.Params("entryId"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, session)
}

func (tc *TimeTrackingController) UpdateEntry(c *fiber.Ctx) error {
	var req services.AdminUpdateInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	session, err := tc.tracking.AdminUpdate(c.UserContext(), principal(c), c.Params("entryId"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, session)
}

func (tc *TimeTrackingController) DeleteEntry(c *fiber.Ctx) error {
	if err := tc.tracking.AdminDelete(c.UserContext(), principal(c), c.Params("entryId")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Time entry deleted successfully"})
}

func (tc *TimeTrackingController) GenerateReport(c *fiber.Ctx) error {
	var req services.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	report, err := tc.reports.Report(c.UserContext(), principal(c), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, report)
}

func (tc *TimeTrackingController) GetOrganizationSummary(c *fiber.Ctx) error {
	start, err := queryTime(c, "start_date")
	if err != nil {
		return utils.Fail(c, err)
	}
	end, err := queryTime(c, "end_date")
	if err != nil {
		return utils.Fail(c, err)
	}
	summary, err := tc.reports.EmployeesSummary(c.UserContext(), principal(c), c.Params("id"), start, end)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, summary)
}
