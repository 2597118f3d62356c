package middleware_test

import (
	"net/http/httptest"
	"testing"

	"disc3d-batch/core/middleware/auth"
	"disc3d-batch/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(apiKey string) *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Use(auth.New(auth.Config{ApiKey: apiKey}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(rayid.LocalsKey).(string))
	})
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		sent   string
		want   int
	}{
		{"Disabled", "", "", 200},
		{"Valid", "secret", "secret", 200},
		{"Missing", "secret", "", 401},
		{"Wrong", "secret", "guess", 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ping", nil)
			if tt.sent != "" {
				req.Header.Set(auth.Header, tt.sent)
			}
			resp, err := newApp(tt.apiKey).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRayID(t *testing.T) {
	app := newApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(rayid.Header), 36)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(rayid.Header, "client-ray")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "client-ray", resp.Header.Get(rayid.Header))
}
