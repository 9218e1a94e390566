package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/chi-demo/app"
	pkgconfig "github.com/tendant/eligibility-idm/pkg/config"
	"github.com/tendant/eligibility-idm/pkg/database"
	"github.com/tendant/eligibility-idm/pkg/router"
)

func main() {
	config, err := pkgconfig.Load()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(-1)
	}
	slog.SetDefault(config.LogConfig.NewLogger())

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig)
	if err != nil {
		slog.Error("Failed opening database", "persistence", config.DatabaseConfig.Persistence, "err", err)
		os.Exit(-1)
	}
	defer db.Close()

	if config.ServerConfig.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			slog.Error("Failed migrating database", "err", err)
			os.Exit(-1)
		}
	}

	routerConfig, err := router.NewConfig(config, db)
	if err != nil {
		slog.Error("Failed wiring services", "err", err)
		os.Exit(-1)
	}

	server := app.NewApp(
		app.WithAppConfig(config.AppConfig),
		app.WithMetrics(config.AppConfig.Metrics.Enabled),
		app.WithReqLogger(app.DefaultHttpLogger()),
	)
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	// Routes are mounted in a group so their middleware stays off /healthz.
	server.R.Group(func(r chi.Router) {
		router.SetupRoutes(r, routerConfig)
	})

	slog.Info("Eligibility IDM ready", "host", config.AppConfig.Host, "port", config.AppConfig.Port, "base_url", config.RegistrationConfig.BaseURL)
	server.Run()
}
