package middleware

import (
	"errors"
	"strings"
	"time"

	fincal "fincalendar"
	"fincalendar/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-Id"

func SetupMiddleware(router fiber.Router, origins string) {

	// memo. AllowCredentials 와 AllowOrigins "*" 를 같이 쓰면 fiber 가 panic
	corsConf := cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}
	if origins == "" || origins == "*" {
		corsConf.AllowOrigins = "*"
		corsConf.AllowCredentials = false
	}

	router.Use(cors.New(corsConf))
	router.Use(logRequest)
	router.Use(errorHandle)
}

func errorHandle(c *fiber.Ctx) error {

	err := c.Next()
	if err != nil {
		status := StatusOf(err)
		ev := log.Warn()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Err(err).Str("id", requestID(c)).Int("status", status).Msg("Error in middleware")
		return c.Status(status).SendString(err.Error())
	}
	return nil
}

// StatusOf maps service errors onto HTTP status codes.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, db.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, db.ErrDuplicate), errors.Is(err, fincal.ErrInactiveEvent):
		return fiber.StatusConflict
	case errors.Is(err, db.ErrForeignKey), errors.Is(err, db.ErrInvalidField):
		return fiber.StatusBadRequest
	case errors.Is(err, fincal.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func logRequest(c *fiber.Ctx) error {

	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(RequestIDHeader, id)
	c.Set(RequestIDHeader, id)

	start := time.Now()
	log.Info().Str("id", id).Str("method", c.Method()).Str("endpoint", c.Path()).Msg("Request endpoint")
	// 인증 요청 body 에는 비밀번호가 있으므로 남기지 않음
	if len(c.Body()) > 0 && !strings.HasPrefix(c.Path(), "/auth") {
		log.Debug().Str("id", id).Str("body", string(c.Body())).Msg("Request body")
	}

	err := c.Next()

	log.Info().Str("id", id).Int("status", c.Response().StatusCode()).Dur("latency", time.Since(start)).Msg("Response")
	return err
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDHeader).(string)
	return id
}
