package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisherr-app/wisherr-backend/api/controllers"
	"github.com/wisherr-app/wisherr-backend/api/middleware"
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
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
	"github.com/wisherr-app/wisherr-backend/pkg/metrics"
	"github.com/wisherr-app/wisherr-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Wishlists     wishlists.Service
	Items         items.Service
	Shares        shares.Service
	Groups        groups.Service
	Notifications notifications.Service
	Activities    activities.Service
	Access        access.Service
	SiteConfig    siteconfig.Service
}

// NewRouter assembles the chi router with every route and middleware chain.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)
	sharePolicy := middleware.NewAuthRateLimitPolicy(
		"share",
		cfg.AuthRateLimit.ShareAccessWindow,
		cfg.AuthRateLimit.ShareAccessIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Share links are reachable without an account.
	r.Route("/api/public/shares/{token}", func(r chi.Router) {
		r.Use(middleware.AuthRateLimit(sharePolicy, redisClient, logg))
		r.Get("/", controllers.ShareInfo(svcs.Shares, logg))
		r.Post("/access", controllers.ShareAccess(svcs.Shares, logg))
		r.Post("/items/{itemId}/reserve", controllers.ShareReserveItem(svcs.Shares, logg))
		r.Post("/items/{itemId}/purchase", controllers.SharePurchaseItem(svcs.Shares, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
			r.Get("/me", controllers.AuthMe(svcs.Auth, logg))
			r.Patch("/me", controllers.AuthUpdateProfile(svcs.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Get("/users/search", controllers.UserSearch(svcs.Users, logg))

		r.Route("/wishlists", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(svcs.Wishlists, logg))
			r.Post("/", controllers.WishlistCreate(svcs.Wishlists, logg))

			r.Route("/{wishlistId}", func(r chi.Router) {
				r.Get("/", controllers.WishlistGet(svcs.Wishlists, logg))
				r.Patch("/", controllers.WishlistUpdate(svcs.Wishlists, logg))
				r.Delete("/", controllers.WishlistDelete(svcs.Wishlists, logg))
				r.Post("/transfer", controllers.WishlistTransfer(svcs.Wishlists, logg))
				r.Patch("/settings", controllers.WishlistSettings(svcs.Wishlists, logg))

				r.Get("/activity", controllers.WishlistActivityFeed(svcs.Activities, svcs.Access, logg))

				r.Route("/collaborators", func(r chi.Router) {
					r.Get("/", controllers.WishlistCollaborators(svcs.Wishlists, logg))
					r.Post("/", controllers.WishlistAddCollaborator(svcs.Wishlists, logg))
					r.Patch("/{userId}", controllers.WishlistUpdateCollaborator(svcs.Wishlists, logg))
					r.Delete("/{userId}", controllers.WishlistRemoveCollaborator(svcs.Wishlists, logg))
				})

				r.Route("/items", func(r chi.Router) {
					r.Get("/", controllers.ItemList(svcs.Items, logg))
					r.Post("/", controllers.ItemCreate(svcs.Items, logg))
					r.Post("/reorder", controllers.ItemReorder(svcs.Items, logg))
				})

				r.Route("/shares", func(r chi.Router) {
					r.Post("/internal", controllers.ShareCreateInternal(svcs.Shares, logg))
					r.Post("/external", controllers.ShareCreateExternal(svcs.Shares, logg))
				})
			})
		})

		r.Route("/items/{itemId}", func(r chi.Router) {
			r.Get("/", controllers.ItemGet(svcs.Items, logg))
			r.Patch("/", controllers.ItemUpdate(svcs.Items, logg))
			r.Delete("/", controllers.ItemDelete(svcs.Items, logg))
			r.Post("/reserve", controllers.ItemReserve(svcs.Items, logg))
			r.Post("/purchase", controllers.ItemPurchase(svcs.Items, logg))
			r.Post("/unreserve", controllers.ItemUnreserve(svcs.Items, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(svcs.Items, logg))
			r.Post("/", controllers.CategoryCreate(svcs.Items, logg))
			r.Patch("/{categoryId}", controllers.CategoryUpdate(svcs.Items, logg))
			r.Delete("/{categoryId}", controllers.CategoryDelete(svcs.Items, logg))
		})
		r.Get("/priorities", controllers.PriorityList(svcs.Items, logg))

		r.Route("/shares", func(r chi.Router) {
			r.Get("/mine", controllers.ShareListMine(svcs.Shares, logg))
			r.Get("/with-me", controllers.ShareListSharedWithMe(svcs.Shares, logg))
			r.Patch("/{shareId}", controllers.ShareUpdate(svcs.Shares, logg))
			r.Delete("/{shareId}", controllers.ShareDelete(svcs.Shares, logg))
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", controllers.GroupList(svcs.Groups, logg))
			r.Post("/", controllers.GroupCreate(svcs.Groups, logg))
			r.Get("/check-user", controllers.GroupCheckUser(svcs.Groups, logg))

			r.Route("/{groupId}", func(r chi.Router) {
				r.Get("/", controllers.GroupGet(svcs.Groups, logg))
				r.Patch("/", controllers.GroupUpdate(svcs.Groups, logg))
				r.Delete("/", controllers.GroupDelete(svcs.Groups, logg))
				r.Post("/members", controllers.GroupAddMember(svcs.Groups, logg))
				r.Delete("/members/{userId}", controllers.GroupRemoveMember(svcs.Groups, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Get("/counts", controllers.NotificationCounts(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
			r.Delete("/", controllers.NotificationDeleteAll(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
			r.Delete("/{notificationId}", controllers.NotificationDelete(svcs.Notifications, logg))
		})

		r.Get("/activity", controllers.ActivityFeed(svcs.Activities, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/site-config", func(r chi.Router) {
			r.Get("/", controllers.SiteConfigList(svcs.SiteConfig, logg))
			r.Put("/", controllers.SiteConfigSet(svcs.SiteConfig, logg))
			r.Delete("/{key}", controllers.SiteConfigDelete(svcs.SiteConfig, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(svcs.Users, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(svcs.Users, logg))
		})
	})

	return r
}
