package controller

import (
	"github.com/gofiber/fiber/v2"

	"momentum/models"
	"momentum/services"
	"momentum/utils"
)

type ScreenshotController struct {
	screenshots *services.ScreenshotService
}

func NewScreenshotController(screenshots *services.ScreenshotService) *ScreenshotController {
	return &ScreenshotController{screenshots: screenshots}
}

type UploadURLRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
}

type listScreenshotsFunc func(c *fiber.Ctx, id string, f services.ScreenshotFilter) (utils.Page[models.Screenshot], error)

func (sc *ScreenshotController) CreateScreenshot(c *fiber.Ctx) error {
	var req services.ScreenshotInput
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	shot, err := sc.screenshots.Create(c.UserContext(), principal(c), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, shot)
}

func (sc *ScreenshotController) GetScreenshot(c *fiber.Ctx) error {
	shot, err := sc.screenshots.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, shot)
}

func (sc *ScreenshotController) UpdateScreenshot(c *fiber.Ctx) error {
	var req services.ScreenshotUpdate
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	shot, err := sc.screenshots.Update(c.UserContext(), principal(c), c.Params("id"), req)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, shot)
}

func (sc *ScreenshotController) DeleteScreenshot(c *fiber.Ctx) error {
	if err := sc.screenshots.Delete(c.UserContext(), principal(c), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Screenshot deleted successfully"})
}

func (sc *ScreenshotController) GetUploadURL(c *fiber.Ctx) error {
	var req UploadURLRequest
	if err := parseBody(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	if req.FileName == "" {
		req.FileName = c.Query("file_name")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.Fail(c, err)
	}
	upload, err := sc.screenshots.UploadURL(c.UserContext(), principal(c), req.FileName)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, upload)
}

func (sc *ScreenshotController) GetEmployeeScreenshots(c *fiber.Ctx) error {
	return sc.list(c, func(c *fiber.Ctx, id string, f services.ScreenshotFilter) (utils.Page[models.Screenshot], error) {
		return sc.screenshots.ListByEmployee(c.UserContext(), principal(c), id, f)
	})
}

func (sc *ScreenshotController) GetOrganizationScreenshots(c *fiber.Ctx) error {
	return sc.list(c, func(c *fiber.Ctx, id string, f services.ScreenshotFilter) (utils.Page[models.Screenshot], error) {
		return sc.screenshots.ListByOrganization(c.UserContext(), principal(c), id, f)
	})
}

func (sc *ScreenshotController) GetProjectScreenshots(c *fiber.Ctx) error {
	return sc.list(c, func(c *fiber.Ctx, id string, f services.ScreenshotFilter) (utils.Page[models.Screenshot], error) {
		return sc.screenshots.ListByProject(c.UserContext(), principal(c), id, f)
	})
}

func (sc *ScreenshotController) GetTaskScreenshots(c *fiber.Ctx) error {
	return sc.list(c, func(c *fiber.Ctx, id string, f services.ScreenshotFilter) (utils.Page[models.Screenshot], error) {
		return sc.screenshots.ListByTask(c.UserContext(), principal(c), id, f)
	})
}

func (sc *ScreenshotController) list(c *fiber.Ctx, fetch listScreenshotsFunc) error {
	filter, err := screenshotFilter(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	result, err := fetch(c, c.Params("id"), filter)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func screenshotFilter(c *fiber.Ctx) (services.ScreenshotFilter, error) {
	var f services.ScreenshotFilter
	var err error
	if f.Permission, err = queryBool(c, "permission"); err != nil {
		return f, err
	}
	if f.StartDate, err = queryTime(c, "start_date"); err != nil {
		return f, err
	}
	if f.EndDate, err = queryTime(c, "end_date"); err != nil {
		return f, err
	}
	f.TrackingID = c.Query("tracking_id")
	f.ProjectID = c.Query("project_id")
	f.TaskID = c.Query("task_id")
	f.App = c.Query("app")
	f.OS = c.Query("os")
	f.SortBy = c.Query("sort_by")
	f.SortOrder = c.Query("sort_order")
	f.Page, f.Size = pagination(c)
	return f, nil
}
