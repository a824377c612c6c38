package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessAndErrorResponses(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusOK, fiber.Map{"value": 42})
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusInternalServerError, errors.New("db down"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ok SuccessResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &ok))
	assert.True(t, ok.Success)

	resp, err = app.Test(httptest.NewRequest("GET", "/fail", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var fail ErrorResponse
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &fail))
	assert.False(t, fail.Success)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), fail.Error)
	assert.Equal(t, "db down", fail.Message)
}
