package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docarchive/internal/http/middleware"
	"docarchive/internal/service"
)

// Services bundles the use cases the HTTP layer exposes.
type Services struct {
	Documents  service.DocumentService
	Categories service.CategoryService
	Audit      service.AuditService
	Accounts   service.AccountService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Every route after the probes sees the caller resolved by the session middleware.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc Services, sc SessionCookie) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Use(middleware.Session(svc.Accounts, sc.Name))
	auth := middleware.RequireAuth()
	admin := middleware.RequireSuperuser()

	app.Post("/login", Login(svc.Accounts, sc))
	app.Post("/logout", Logout(sc))

	app.Get("/", ListDocuments(svc.Documents))
	app.Get("/documents", ListDocuments(svc.Documents))
	app.Post("/documents", auth, UploadDocument(svc.Documents))
	app.Get("/documents/:id", GetDocument(svc.Documents))
	app.Get("/documents/:id/download", DownloadDocument(svc.Documents))
	app.Post("/documents/:id/edit", auth, EditDocument(svc.Documents))
	app.Post("/documents/:id/delete", auth, DeleteDocument(svc.Documents))
	app.Delete("/documents/:id", auth, DeleteDocument(svc.Documents))
	app.Post("/documents/:id/share", auth, ShareDocument(svc.Documents))
	app.Get("/share/:token", DownloadShared(svc.Documents))

	app.Get("/categories", ListCategories(svc.Categories))
	app.Post("/categories", admin, CreateCategory(svc.Categories))
	app.Post("/categories/:id/edit", admin, UpdateCategory(svc.Categories))
	app.Post("/categories/:id/delete", admin, DeleteCategory(svc.Categories))

	app.Get("/audit", admin, ListAudit(svc.Audit))

	app.Get("/profile", auth, GetProfile(svc.Accounts))
	app.Post("/profile", auth, UpdateProfile(svc.Accounts))
}
