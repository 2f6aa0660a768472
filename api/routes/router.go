package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/churchhub-backend/api/controllers"
	"github.com/angelmondragon/churchhub-backend/api/middleware"
	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	"github.com/angelmondragon/churchhub-backend/internal/approvals"
	"github.com/angelmondragon/churchhub-backend/internal/auth"
	"github.com/angelmondragon/churchhub-backend/internal/blogs"
	"github.com/angelmondragon/churchhub-backend/internal/events"
	"github.com/angelmondragon/churchhub-backend/internal/media"
	"github.com/angelmondragon/churchhub-backend/internal/members"
	"github.com/angelmondragon/churchhub-backend/internal/prayers"
	"github.com/angelmondragon/churchhub-backend/internal/sermons"
	"github.com/angelmondragon/churchhub-backend/pkg/auth/session"
	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/identity"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/angelmondragon/churchhub-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/churchhub-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the services behind the HTTP surface. cmd/api builds the
// concrete ones; tests substitute fakes.
type Dependencies struct {
	Pingers    map[string]controllers.Pinger
	Redis      RedisStore
	Sessions   session.AccessSessionChecker
	Verifier   identity.Verifier
	Principals middleware.PrincipalLookup
	Gatherer   prometheus.Gatherer
	HTTP       *metrics.HTTPMetrics

	Auth           *auth.Service
	Members        *members.Service
	Administrators *administrators.Service
	Approvals      *approvals.Service
	Sermons        *sermons.Service
	Events         *events.Service
	Blogs          *blogs.Service
	Prayers        *prayers.Service
	Media          *media.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTP),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.RateLimitPolicy{
		Name:            "login",
		Window:          cfg.AuthRateLimit.LoginWindow,
		IPLimit:         cfg.AuthRateLimit.LoginIPLimit,
		CredentialLimit: cfg.AuthRateLimit.LoginCredentialLimit,
	}
	registerPolicy := middleware.RateLimitPolicy{
		Name:            "register",
		Window:          cfg.AuthRateLimit.RegisterWindow,
		IPLimit:         cfg.AuthRateLimit.RegisterIPLimit,
		CredentialLimit: cfg.AuthRateLimit.RegisterCredentialLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, deps.Pingers, logg))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Auth(middleware.AuthParams{
		JWT:        cfg.JWT,
		Sessions:   deps.Sessions,
		Verifier:   deps.Verifier,
		Principals: deps.Principals,
		Logger:     logg,
	})
	approved := middleware.RequireApproved(logg)
	memberOnly := middleware.RequireMember(logg)
	can := func(perms ...enums.AdminPermission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(logg, perms...)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/admin/login", controllers.AdminAuthLogin(deps.Auth, logg))
			if !cfg.App.IsProd() {
				r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/admin/register", controllers.AdminAuthRegister(deps.Auth, logg))
			}
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/status", controllers.AuthStatus(logg))
				r.Put("/profile", controllers.AuthUpdateProfile(deps.Members, deps.Administrators, logg))
				r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
				r.Put("/password", controllers.AuthChangePassword(deps.Auth, logg))
				r.With(memberOnly).Post("/select-branch", controllers.AuthSelectBranch(deps.Approvals, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			if deps.Redis != nil {
				r.Use(middleware.Idempotency(deps.Redis, controllers.UploadBodyLimit(cfg.Media.MaxUploadBytes()), logg))
			}

			r.Route("/admin", func(r chi.Router) {
				r.Route("/users", func(r chi.Router) {
					r.Use(can(enums.PermissionManageUsers))
					r.Get("/", controllers.AdminUserList(deps.Members, logg))
					r.Post("/", controllers.AdminUserPreRegister(deps.Members, logg))
					r.Get("/{userId}", controllers.AdminUserGet(deps.Members, logg))
					r.Delete("/{userId}", controllers.AdminUserDeactivate(deps.Members, logg))
					r.Post("/{userId}/approve", controllers.AdminUserApprove(deps.Approvals, logg))
					r.Post("/{userId}/reject", controllers.AdminUserReject(deps.Approvals, logg))
					r.Post("/{userId}/revoke", controllers.AdminUserRevoke(deps.Approvals, logg))
				})
				r.Route("/administrators", func(r chi.Router) {
					r.Use(can(enums.PermissionCreateAdmins))
					r.Get("/", controllers.AdminAdministratorList(deps.Administrators, logg))
					r.Post("/", controllers.AdminAdministratorCreate(deps.Administrators, logg))
					r.Put("/{adminId}/permissions", controllers.AdminAdministratorPermissions(deps.Administrators, logg))
				})
				r.Route("/events", func(r chi.Router) {
					r.Use(can(enums.PermissionManageBothBranches))
					r.Get("/cross-branch", controllers.AdminCrossBranchList(deps.Events, logg))
					r.Post("/{eventId}/cross-branch/approve", controllers.AdminCrossBranchApprove(deps.Events, logg))
					r.Post("/{eventId}/cross-branch/reject", controllers.AdminCrossBranchReject(deps.Events, logg))
				})
				r.With(can(enums.PermissionManageContent)).Post("/prayers/{prayerId}/archive", controllers.AdminPrayerArchive(deps.Prayers, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(approved)

				// Media authorization depends on the kind and is checked by the service.
				r.Post("/media", controllers.MediaUpload(deps.Media, cfg.Media.MaxUploadBytes(), logg))
				r.Delete("/media/*", controllers.MediaDelete(deps.Media, logg))

				r.Route("/sermons", func(r chi.Router) {
					r.Get("/", controllers.SermonList(deps.Sermons, logg))
					r.Get("/categories", controllers.SermonCategories(deps.Sermons, logg))
					r.Get("/{sermonId}", controllers.SermonGet(deps.Sermons, logg))
					r.Group(func(r chi.Router) {
						r.Use(can(enums.PermissionManageSermons))
						r.Post("/", controllers.SermonCreate(deps.Sermons, logg))
						r.Put("/{sermonId}", controllers.SermonUpdate(deps.Sermons, logg))
						r.Delete("/{sermonId}", controllers.SermonDelete(deps.Sermons, logg))
					})
				})

				r.Route("/events", func(r chi.Router) {
					r.Get("/", controllers.EventList(deps.Events, logg))
					r.Post("/", controllers.EventCreate(deps.Events, logg))
					r.Get("/{eventId}", controllers.EventGet(deps.Events, logg))
					r.Put("/{eventId}", controllers.EventUpdate(deps.Events, logg))
					r.Delete("/{eventId}", controllers.EventDelete(deps.Events, logg))
					r.With(memberOnly).Post("/{eventId}/register", controllers.EventRegister(deps.Events, logg))
					r.With(memberOnly).Delete("/{eventId}/register", controllers.EventUnregister(deps.Events, logg))
				})

				r.Route("/blogs", func(r chi.Router) {
					r.Get("/", controllers.BlogList(deps.Blogs, logg))
					r.Get("/{blogId}", controllers.BlogGet(deps.Blogs, logg))
					r.Group(func(r chi.Router) {
						r.Use(can(enums.PermissionManageContent))
						r.Post("/", controllers.BlogCreate(deps.Blogs, logg))
						r.Put("/{blogId}", controllers.BlogUpdate(deps.Blogs, logg))
						r.Delete("/{blogId}", controllers.BlogDelete(deps.Blogs, logg))
					})
				})

				r.Route("/prayers", func(r chi.Router) {
					r.Get("/", controllers.PrayerList(deps.Prayers, logg))
					r.With(memberOnly).Post("/", controllers.PrayerSubmit(deps.Prayers, logg))
					r.Get("/{prayerId}", controllers.PrayerGet(deps.Prayers, logg))
					r.Put("/{prayerId}", controllers.PrayerUpdate(deps.Prayers, logg))
					r.Delete("/{prayerId}", controllers.PrayerDelete(deps.Prayers, logg))
					r.With(memberOnly).Post("/{prayerId}/pray", controllers.PrayerToggle(deps.Prayers, logg))
					r.Post("/{prayerId}/answered", controllers.PrayerMarkAnswered(deps.Prayers, logg))
				})
			})
		})
	})

	return r
}
