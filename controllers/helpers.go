package controller

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"momentum/middleware"
	"momentum/models"
	"momentum/utils"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var errInvalidBody = utils.ErrValidation(utils.FieldError{Field: "body", Message: "Invalid request body"})

// parseBody decodes the JSON body into out. An empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return nil
}

func principal(c *fiber.Ctx) models.Principal {
	return middleware.CurrentPrincipal(c)
}

func pagination(c *fiber.Ctx) (int, int) {
	size := c.Query("size")
	if size == "" {
		size = c.Query("limit")
	}
	return utils.ParsePagination(c.Query("page"), size, defaultPageSize, maxPageSize)
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, utils.ErrValidation(utils.FieldError{Field: key, Message: key + " must be true or false"})
	}
	return &v, nil
}

// queryTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, utils.ErrValidation(utils.FieldError{Field: key, Message: key + " must be a date or RFC 3339 timestamp"})
}
