package app

import (
	"context"
	"fmt"
	"time"

	fincal "fincalendar"
	"fincalendar/app/handler"
	"fincalendar/app/middleware"
	"fincalendar/config"
	"fincalendar/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run(conf *config.Config, stg *db.Storage, cal *fincal.Calendar) error {

	app := New(conf, stg, cal)
	return app.Listen(fmt.Sprintf(":%d", conf.App.Port))
}

// New builds the fiber app with every route registered. OAuth providers are only
// enabled when configured.
func New(conf *config.Config, stg *db.Storage, cal *fincal.Calendar) *fiber.App {

	setupOauth(conf)

	app := fiber.New(fiber.Config{
		AppName:      "fincalendar",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	middleware.SetupMiddleware(app, conf.App.Origins)

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()
		if err := stg.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString(err.Error())
		}
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cal.Gatherer(), promhttp.HandlerOpts{})))

	auth := handler.NewAuthHandler(cal, conf.App.JwtKey, conf.App.Passkey)
	auth.InitRoute(app)
	handler.NewCalendarHandler(cal, stg, cal).InitRoute(app)
	handler.NewCompanyHandler(stg).InitRoute(app)
	handler.NewFavoriteHandler(cal, auth.AuthMiddleware).InitRoute(app)
	handler.NewEventHandler(cal, cal, cal, auth.AuthMiddleware).InitRoute(app)

	return app
}

func setupOauth(conf *config.Config) {

	providers := make([]goth.Provider, 0, 2)
	for name, p := range conf.OauthProviders() {
		switch name {
		case "google":
			providers = append(providers, google.New(p.Key, p.Secret, p.Callback, "email", "profile"))
		case "github":
			providers = append(providers, github.New(p.Key, p.Secret, p.Callback, "user:email"))
		}
	}
	goth.UseProviders(providers...)

	key := conf.App.SessionKey
	if key == "" {
		key = conf.App.JwtKey
	}
	store := sessions.NewCookieStore([]byte(key))
	store.MaxAge(int((10 * time.Minute).Seconds()))
	store.Options.HttpOnly = true
	gothic.Store = store
}
