package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/venueops-backend/api/controllers"
	"github.com/angelmondragon/venueops-backend/api/middleware"
	"github.com/angelmondragon/venueops-backend/internal/adjustments"
	"github.com/angelmondragon/venueops-backend/internal/auth"
	"github.com/angelmondragon/venueops-backend/internal/memberships"
	"github.com/angelmondragon/venueops-backend/internal/payroll"
	"github.com/angelmondragon/venueops-backend/internal/permissions"
	"github.com/angelmondragon/venueops-backend/internal/positions"
	"github.com/angelmondragon/venueops-backend/internal/reports"
	"github.com/angelmondragon/venueops-backend/internal/scheduling"
	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/internal/venues"
	"github.com/angelmondragon/venueops-backend/pkg/auth/session"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
	"github.com/angelmondragon/venueops-backend/pkg/redis"
)

// Dependencies carries everything the router hands to middleware and
// controllers. Redis and Sessions may be nil; rate limiting, idempotent
// replay and session revocation are then disabled.
type Dependencies struct {
	DB          controllers.Pinger
	Storage     controllers.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	Grants      middleware.GrantResolver
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth        auth.Service
	Users       users.Service
	Venues      venues.Service
	Memberships memberships.Service
	Positions   positions.Service
	Scheduling  scheduling.Service
	Reports     reports.Service
	Payroll     payroll.Service
	Adjustments adjustments.Service
	Permissions permissions.Service
}

func passthrough(next http.Handler) http.Handler { return next }

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}

	authLimit := passthrough
	idempotent := passthrough
	idempotentMoney := passthrough
	if deps.Redis != nil {
		telegramPolicy := middleware.NewAuthRateLimitPolicy(
			"telegram",
			cfg.AuthRateLimit.TelegramWindow,
			cfg.AuthRateLimit.TelegramIPLimit,
			cfg.AuthRateLimit.TelegramUserLimit,
		)
		authLimit = middleware.AuthRateLimit(telegramPolicy, deps.Redis, logg)
		idempotent = middleware.Idempotency(deps.Redis, logg, middleware.DefaultIdempotencyTTL)
		idempotentMoney = middleware.Idempotency(deps.Redis, logg, middleware.MoneyIdempotencyTTL)
	}

	checks := []controllers.HealthCheck{
		{Name: "db", Pinger: deps.DB},
		{Name: "storage", Pinger: deps.Storage},
	}
	if deps.Redis != nil {
		checks = append(checks, controllers.HealthCheck{Name: "redis", Pinger: deps.Redis})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimit).Post("/telegram", controllers.AuthTelegram(deps.Auth, cfg.Cookie, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, cfg.Cookie, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, cfg.Cookie.Name, deps.Sessions, deps.Users, logg))
		r.Use(middleware.RateLimit())

		venueGrant := middleware.VenueGrant(deps.Grants, logg)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.Me(deps.Users, logg))
			r.Patch("/", controllers.MeUpdateProfile(deps.Users, logg))
			r.Get("/profile", controllers.MeProfile(deps.Users, logg))
			r.Patch("/profile", controllers.MeUpdateProfile(deps.Users, logg))
			r.Get("/notification-settings", controllers.MeNotificationSettings(deps.Users, logg))
			r.Patch("/notification-settings", controllers.MeUpdateNotificationSettings(deps.Users, logg))
			r.Get("/shifts", controllers.MeShifts(deps.Payroll, logg))
			r.Get("/salary-summary", controllers.MeSalarySummary(deps.Payroll, logg))
			r.Get("/venues", controllers.MeVenues(deps.Memberships, logg))

			r.Route("/venues/{venueId}", func(r chi.Router) {
				r.Use(venueGrant)
				r.Get("/members", controllers.MeVenueMembers(deps.Memberships, logg))
				r.Get("/permissions", controllers.MeVenuePermissions(logg))
				r.Post("/leave", controllers.MeLeaveVenue(deps.Memberships, logg))
			})
		})

		r.Route("/venues", func(r chi.Router) {
			r.Get("/", controllers.VenueList(deps.Venues, logg))
			r.With(idempotent).Post("/", controllers.VenueCreate(deps.Venues, logg))

			r.Route("/{venueId}", func(r chi.Router) {
				r.Use(venueGrant)

				r.Get("/", controllers.VenueGet(deps.Venues, logg))
				r.Patch("/", controllers.VenueRename(deps.Venues, logg))
				r.Delete("/", controllers.VenueDelete(deps.Venues, logg))
				r.Post("/archive", controllers.VenueArchive(deps.Venues, logg))
				r.Post("/unarchive", controllers.VenueUnarchive(deps.Venues, logg))

				r.Get("/members", controllers.MemberList(deps.Memberships, logg))
				r.Patch("/members/{userId}", controllers.MemberChangeRole(deps.Memberships, logg))
				r.Delete("/members/{userId}", controllers.MemberRemove(deps.Memberships, logg))
				r.With(idempotent).Post("/invites", controllers.InviteCreate(deps.Memberships, logg))
				r.Delete("/invites/{inviteId}", controllers.InviteCancel(deps.Memberships, logg))

				r.Get("/positions", controllers.PositionList(deps.Positions, logg))
				r.Post("/positions", controllers.PositionCreate(deps.Positions, logg))
				r.Patch("/positions/{positionId}", controllers.PositionUpdate(deps.Positions, logg))
				r.Delete("/positions/{positionId}", controllers.PositionDelete(deps.Positions, logg))

				r.Get("/shift-intervals", controllers.IntervalList(deps.Scheduling, logg))
				r.Post("/shift-intervals", controllers.IntervalCreate(deps.Scheduling, logg))
				r.Patch("/shift-intervals/{intervalId}", controllers.IntervalUpdate(deps.Scheduling, logg))
				r.Delete("/shift-intervals/{intervalId}", controllers.IntervalDelete(deps.Scheduling, logg))

				r.Route("/shifts", func(r chi.Router) {
					r.Get("/", controllers.ShiftList(deps.Scheduling, logg))
					r.Post("/", controllers.ShiftCreate(deps.Scheduling, logg))
					r.Patch("/{shiftId}", controllers.ShiftUpdate(deps.Scheduling, logg))
					r.Delete("/{shiftId}", controllers.ShiftDelete(deps.Scheduling, logg))
					r.Post("/{shiftId}/assignments", controllers.ShiftAssign(deps.Scheduling, logg))
					r.Delete("/{shiftId}/assignments/{userId}", controllers.ShiftUnassign(deps.Scheduling, logg))
					r.Get("/{shiftId}/comments", controllers.ShiftCommentList(deps.Scheduling, logg))
					r.With(idempotent).Post("/{shiftId}/comments", controllers.ShiftCommentCreate(deps.Scheduling, logg))
				})

				r.Route("/reports", func(r chi.Router) {
					r.Get("/", controllers.ReportList(deps.Reports, logg))
					r.Get("/export", controllers.ReportExport(deps.Reports, logg))
					r.Get("/{date}", controllers.ReportGet(deps.Reports, logg))
					r.Put("/{date}", controllers.ReportUpsert(deps.Reports, logg))
					r.Get("/{date}/attachments", controllers.ReportAttachmentList(deps.Reports, logg))
					r.Post("/{date}/attachments", controllers.ReportAttachmentUpload(deps.Reports, cfg.Storage.MaxUploadBytes(), logg))
					r.Get("/{date}/attachments/{attachmentId}", controllers.ReportAttachmentDownload(deps.Reports, logg))
					r.Delete("/{date}/attachments/{attachmentId}", controllers.ReportAttachmentDelete(deps.Reports, logg))
				})

				r.Get("/payroll", controllers.VenuePayroll(deps.Payroll, logg))

				r.Route("/adjustments", func(r chi.Router) {
					r.Get("/", controllers.AdjustmentList(deps.Adjustments, logg))
					r.With(idempotentMoney).Post("/", controllers.AdjustmentCreate(deps.Adjustments, logg))
					r.Get("/{adjustmentId}", controllers.AdjustmentGet(deps.Adjustments, logg))
					r.Patch("/{adjustmentId}", controllers.AdjustmentUpdate(deps.Adjustments, logg))
					r.Delete("/{adjustmentId}", controllers.AdjustmentDelete(deps.Adjustments, logg))
					r.Get("/{type}/{adjustmentId}/dispute", controllers.AdjustmentDisputeGet(deps.Adjustments, logg))
					r.With(idempotentMoney).Post("/{type}/{adjustmentId}/dispute", controllers.AdjustmentDisputeOpen(deps.Adjustments, logg))
				})

				r.Route("/disputes", func(r chi.Router) {
					r.Get("/", controllers.DisputeList(deps.Adjustments, logg))
					r.Get("/{disputeId}", controllers.DisputeGet(deps.Adjustments, logg))
					r.Patch("/{disputeId}", controllers.DisputeSetStatus(deps.Adjustments, logg))
					r.With(idempotent).Post("/{disputeId}/comments", controllers.DisputeCommentCreate(deps.Adjustments, logg))
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RequireSystemRole(logg, enums.SystemRoleSuperAdmin, enums.SystemRoleModerator)).
				Get("/permissions", controllers.AdminPermissions(deps.Permissions, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSystemRole(logg, enums.SystemRoleSuperAdmin))
				r.Post("/permissions/sync", controllers.AdminPermissionsSync(deps.Permissions, logg))
				r.Put("/role-defaults", controllers.AdminSetRoleDefault(deps.Permissions, logg))
			})
		})
	})

	return r
}
