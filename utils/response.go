package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Success writes the success envelope {success, data, status}.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"status":  status,
	})
}

// Fail writes the failure envelope {status, message, success, errors?}.
func Fail(c *fiber.Ctx, err error) error {
	appErr := AsAppError(err)
	status := appErr.StatusCode()

	if appErr.Kind == KindInternal {
		LogError("request_failed", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}

	body := fiber.Map{
		"status":  status,
		"message": appErr.Message,
		"success": false,
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	// 429 from the limiter and 405s keep their own code.
	if fe, ok := err.(*fiber.Error); ok && fe.Code != status {
		status = fe.Code
		body["status"] = status
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is installed as fiber.Config.ErrorHandler so panics recovered
// by Fiber and unmatched routes share the envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Fail(c, err)
}

// Page is the paginated list payload.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{Items: items, Total: total, Page: page, Size: size, Pages: pages}
}
