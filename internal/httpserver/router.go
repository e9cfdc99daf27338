package httpserver

import (
	"net/http"
	"tidsregistrering/internal/auth"
	"tidsregistrering/internal/config"
	"tidsregistrering/internal/directory"
	"tidsregistrering/internal/httpserver/handlers"
	"tidsregistrering/internal/services/administrator"
	"tidsregistrering/internal/services/department"
	"tidsregistrering/internal/services/massrename"
	"tidsregistrering/internal/services/registration"
	"tidsregistrering/internal/services/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRouter wires the services over db. dir may be nil, in which case
// display names fall back to the account part of the login.
func NewRouter(cfg config.Config, db *gorm.DB, dir directory.Directory, lg *zap.SugaredLogger) http.Handler {
	resolver := auth.NewResolver(db, cfg.FallbackAdmin, lg)
	registrations := registration.NewService(db, resolver, lg)
	departments := department.NewService(db, cfg.ReportLocale, lg)
	admins := administrator.NewService(db, dir, cfg.LoginDomain, lg)
	renames := massrename.NewService(db, lg)
	reports := report.NewService(db, cfg.ReportLocale, lg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger(lg))
	r.Group(func(protected chi.Router) {
		protected.Use(auth.Identify(cfg.AuthHeader, cfg.JWTSecret, lg))
		protected.Get("/v1/me", handlers.Me(dir, resolver, lg))
		protected.Get("/v1/departments", handlers.ActiveDepartments(departments, lg))

		protected.Get("/v1/registrations", handlers.ListMyRegistrations(registrations, lg))
		protected.Post("/v1/registrations", handlers.CreateRegistration(registrations, dir, lg))
		protected.Get("/v1/registrations/summary", handlers.RegistrationSummary(registrations, lg))
		protected.Patch("/v1/registrations/{id}", handlers.UpdateRegistration(registrations, lg))
		protected.Delete("/v1/registrations/{id}", handlers.DeleteRegistration(registrations, lg))

		protected.Get("/v1/reports/overview", handlers.ReportOverview(reports, lg))
		protected.Get("/v1/reports/statistics", handlers.ReportStatistics(reports, lg))
		protected.Get("/v1/reports/statistics.xlsx", handlers.ReportStatisticsXLSX(reports, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireAdmin(resolver, lg))
			admin.Get("/v1/admin/departments", handlers.ListDepartments(departments, lg))
			admin.Post("/v1/admin/departments", handlers.CreateDepartment(departments, lg))
			admin.Patch("/v1/admin/departments/{id}", handlers.UpdateDepartment(departments, lg))
			admin.Delete("/v1/admin/departments/{id}", handlers.DeleteDepartment(departments, lg))
			admin.Get("/v1/admin/administrators", handlers.ListAdministrators(admins, lg))
			admin.Post("/v1/admin/administrators", handlers.CreateAdministrator(admins, lg))
			admin.Post("/v1/admin/administrators/lookup", handlers.LookupAdministrator(admins, lg))
			admin.Patch("/v1/admin/administrators/{id}", handlers.UpdateAdministrator(admins, lg))
			admin.Delete("/v1/admin/administrators/{id}", handlers.DeleteAdministrator(admins, lg))
			admin.Post("/v1/admin/mass-rename/preview", handlers.PreviewMassRename(renames, lg))
			admin.Post("/v1/admin/mass-rename/execute", handlers.ExecuteMassRename(renames, lg))
			admin.Get("/v1/admin/audit", handlers.AuditLogs(db, lg))
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
