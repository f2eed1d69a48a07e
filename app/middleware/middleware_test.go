package middleware

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	fincal "fincalendar"
	"fincalendar/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"fiber 에러", fiber.NewError(fiber.StatusNotFound, "no provider"), fiber.StatusNotFound},
		{"조회 실패", fmt.Errorf("RetrieveCompany 시 오류 발생. %w", db.ErrNotFound), fiber.StatusNotFound},
		{"중복", db.ErrDuplicate, fiber.StatusConflict},
		{"비활성 이벤트", fincal.ErrInactiveEvent, fiber.StatusConflict},
		{"외래키", db.ErrForeignKey, fiber.StatusBadRequest},
		{"잘못된 파라미터", fmt.Errorf("%w: bad date", db.ErrInvalidField), fiber.StatusBadRequest},
		{"인증 실패", fmt.Errorf("invalid token. %w", fincal.ErrUnauthorized), fiber.StatusUnauthorized},
		{"그 외", errors.New("connection refused"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, StatusOf(tc.err))
		})
	}
}

func TestSetupMiddleware(t *testing.T) {

	app := fiber.New()
	SetupMiddleware(app, "")
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("RetrieveIndicator 시 오류 발생. %w", db.ErrNotFound)
	})
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	t.Run("에러 매핑", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/missing", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
		assert.NotEmpty(t, res.Header.Get(RequestIDHeader))
	})

	t.Run("요청 id 전달", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ok", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		req.Header.Set("Origin", "http://localhost:3000")

		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.Equal(t, "req-1", res.Header.Get(RequestIDHeader))
		assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	})
}
