package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wisherr-app/wisherr-backend/api/routes"
	"github.com/wisherr-app/wisherr-backend/internal/access"
	"github.com/wisherr-app/wisherr-backend/internal/activities"
	"github.com/wisherr-app/wisherr-backend/internal/auth"
	"github.com/wisherr-app/wisherr-backend/internal/groups"
	"github.com/wisherr-app/wisherr-backend/internal/items"
	"github.com/wisherr-app/wisherr-backend/internal/notifications"
	"github.com/wisherr-app/wisherr-backend/internal/shares"
	"github.com/wisherr-app/wisherr-backend/internal/siteconfig"
	"github.com/wisherr-app/wisherr-backend/internal/users"
	"github.com/wisherr-app/wisherr-backend/internal/wishlists"
	"github.com/wisherr-app/wisherr-backend/pkg/auth/session"
	"github.com/wisherr-app/wisherr-backend/pkg/config"
	"github.com/wisherr-app/wisherr-backend/pkg/db"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
	"github.com/wisherr-app/wisherr-backend/pkg/metrics"
	"github.com/wisherr-app/wisherr-backend/pkg/migrate"
	"github.com/wisherr-app/wisherr-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	usersRepo := users.NewRepository(gdb)

	accessService, err := access.NewService(access.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create access service", err)
		os.Exit(1)
	}

	activitiesService, err := activities.NewService(activities.NewRepository(gdb), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create activities service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(gdb)
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	fanout, err := notifications.NewFanout(notificationsRepo, notifications.NewRecipientSource(gdb), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification fanout", err)
		os.Exit(1)
	}

	itemsService, err := items.NewService(items.ServiceParams{
		Repo:       items.NewRepository(gdb),
		Access:     accessService,
		Fanout:     fanout,
		Activities: activitiesService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create items service", err)
		os.Exit(1)
	}

	wishlistsService, err := wishlists.NewService(wishlists.ServiceParams{
		Repo:       wishlists.NewRepository(gdb),
		Access:     accessService,
		Users:      usersRepo,
		Fanout:     fanout,
		Activities: activitiesService,
		Password:   cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlists service", err)
		os.Exit(1)
	}

	sharesService, err := shares.NewService(shares.ServiceParams{
		Repo:       shares.NewRepository(gdb),
		Users:      usersRepo,
		Items:      itemsService,
		Fanout:     fanout,
		Activities: activitiesService,
		Shares:     cfg.Shares,
		Password:   cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shares service", err)
		os.Exit(1)
	}

	groupsService, err := groups.NewService(groups.ServiceParams{
		Repo:       groups.NewRepository(gdb),
		Users:      usersRepo,
		Fanout:     fanout,
		Activities: activitiesService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create groups service", err)
		os.Exit(1)
	}

	siteConfigService, err := siteconfig.NewService(siteconfig.ServiceParams{
		Repo:     siteconfig.NewRepository(gdb),
		Cache:    redisClient,
		CacheTTL: cfg.SiteConfig.CacheTTL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create site config service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:      usersRepo,
		Sessions:   sessionManager,
		Settings:   siteConfigService,
		Activities: activitiesService,
		Logger:     logg,
		JWT:        cfg.JWT,
		Password:   cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, httpMetrics, routes.Services{
			Auth:          authService,
			Users:         usersService,
			Wishlists:     wishlistsService,
			Items:         itemsService,
			Shares:        sharesService,
			Groups:        groupsService,
			Notifications: notificationsService,
			Activities:    activitiesService,
			Access:        accessService,
			SiteConfig:    siteConfigService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
