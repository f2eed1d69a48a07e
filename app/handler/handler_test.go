package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"fincalendar/app/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testJwtKey  = "jwt-secret"
	testPasskey = "bot-passkey"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	middleware.SetupMiddleware(app, "*")
	return app
}

// sendReqeust sends param as a JSON body and decodes a 2xx JSON answer into resp.
// Non 2xx answers come back as an error carrying the body.
func sendReqeust(app *fiber.App, url string, method string, auth string, param any, resp any) (int, error) {

	var body io.Reader
	if param != nil {
		b, err := json.Marshal(param)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	res, err := app.Test(req, -1)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, err
	}
	if res.StatusCode >= fiber.StatusBadRequest {
		return res.StatusCode, fmt.Errorf("%d %s", res.StatusCode, b)
	}
	if resp != nil && len(b) > 0 {
		if err := json.Unmarshal(b, resp); err != nil {
			return res.StatusCode, fmt.Errorf("응답 파싱 실패 %s. %w", b, err)
		}
	}
	return res.StatusCode, nil
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJwtKey))
	require.NoError(t, err)
	return "Bearer " + token
}
