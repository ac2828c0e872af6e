package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/utils"
)

// runHandler runs fn inside a request built from target and body.
func runHandler(t *testing.T, target, body string, fn func(c *fiber.Ctx) error) {
	t.Helper()
	app := fiber.New()
	app.Post("/check", fn)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, target, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPagination(t *testing.T) {
	cases := map[string][2]int{
		"/check":                 {1, defaultPageSize},
		"/check?page=3&size=25":  {3, 25},
		"/check?page=0&limit=7":  {1, 7},
		"/check?size=1000":       {1, maxPageSize},
		"/check?page=x&size=-4":  {1, defaultPageSize},
		"/check?size=5&limit=50": {1, 5},
	}
	for target, want := range cases {
		runHandler(t, target, "", func(c *fiber.Ctx) error {
			page, size := pagination(c)
			assert.Equal(t, want[0], page, target)
			assert.Equal(t, want[1], size, target)
			return c.SendStatus(fiber.StatusOK)
		})
	}
}

func TestQueryTime(t *testing.T) {
	runHandler(t, "/check?from=2025-03-10&to=2025-03-10T17:30:00%2B02:00&at=2025-03-10T08:00:00", "", func(c *fiber.Ctx) error {
		from, err := queryTime(c, "from")
		if assert.NoError(t, err) {
			assert.True(t, from.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)), from.String())
		}
		to, err := queryTime(c, "to")
		if assert.NoError(t, err) {
			assert.True(t, to.Equal(time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)), to.String())
		}
		at, err := queryTime(c, "at")
		if assert.NoError(t, err) {
			assert.Equal(t, 8, at.Hour())
		}
		missing, err := queryTime(c, "missing")
		assert.NoError(t, err)
		assert.Nil(t, missing)
		return c.SendStatus(fiber.StatusOK)
	})

	runHandler(t, "/check?from=yesterday", "", func(c *fiber.Ctx) error {
		_, err := queryTime(c, "from")
		assert.True(t, utils.IsKind(err, utils.KindValidation))
		return c.SendStatus(fiber.StatusOK)
	})
}

func TestQueryBool(t *testing.T) {
	runHandler(t, "/check?active=true&bad=maybe", "", func(c *fiber.Ctx) error {
		active, err := queryBool(c, "active")
		if assert.NoError(t, err) && assert.NotNil(t, active) {
			assert.True(t, *active)
		}

		_, err = queryBool(c, "bad")
		assert.True(t, utils.IsKind(err, utils.KindValidation))

		unset, err := queryBool(c, "unset")
		assert.NoError(t, err)
		assert.Nil(t, unset)
		return c.SendStatus(fiber.StatusOK)
	})
}

func TestParseBody(t *testing.T) {
	type payload struct {
		Notes string `json:"notes"`
	}

	runHandler(t, "/check", "", func(c *fiber.Ctx) error {
		in := payload{Notes: "kept"}
		assert.NoError(t, parseBody(c, &in))
		assert.Equal(t, "kept", in.Notes)
		return c.SendStatus(fiber.StatusOK)
	})

	runHandler(t, "/check", `{"notes":"lunch"}`, func(c *fiber.Ctx) error {
		var in payload
		assert.NoError(t, parseBody(c, &in))
		assert.Equal(t, "lunch", in.Notes)
		return c.SendStatus(fiber.StatusOK)
	})

	runHandler(t, "/check", `{"notes":`, func(c *fiber.Ctx) error {
		var in payload
		err := parseBody(c, &in)
		assert.True(t, utils.IsKind(err, utils.KindValidation))
		return c.SendStatus(fiber.StatusOK)
	})
}
