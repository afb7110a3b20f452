package main

import (
	"net/http"

	"github.com/diewo77/go-assets/auth"
	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/httpx"
	"github.com/diewo77/go-assets/internal/handlers"
	"github.com/diewo77/go-assets/internal/obs"
	"github.com/diewo77/go-assets/internal/policy"
	"github.com/diewo77/go-assets/internal/services"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Assets   *services.AssetService
	Users    *services.UserService
	Backups  *services.BackupService
	Reports  *services.ReportService
	Gate     *policy.AuthGate
	Sessions *auth.Sessions
}

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	svc      Services
	handler  http.Handler
	sessions *auth.Sessions
}

// NewApp creates a new application with all routes configured.
func NewApp(svc Services) *App {
	app := &App{
		mux:      http.NewServeMux(),
		svc:      svc,
		sessions: svc.Sessions,
	}
	app.setupRoutes()
	// Instrument reads r.Pattern, so it has to sit between the mux and
	// everything else.
	app.handler = svc.Sessions.Middleware(obs.Instrument(app.mux))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes. Fine-grained checks
// (ownership, role changes) happen in the services; the middleware here
// only rejects requests that could never succeed.
func (a *App) setupRoutes() {
	ah := handlers.NewAuthHandler(a.svc.Users, a.sessions)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.Handle("GET /me", a.requireAuth(http.HandlerFunc(ah.Me)))

	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.Handle("GET /metrics", obs.Handler())

	// Assets
	as := handlers.NewAssetHandler(a.svc.Assets, a.svc.Users)
	a.mux.Handle("GET /assets",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionList)(http.HandlerFunc(as.List))))
	a.mux.Handle("POST /assets",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionCreate)(http.HandlerFunc(as.Create))))
	a.mux.Handle("GET /assets/active",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionList)(http.HandlerFunc(as.Active))))
	a.mux.Handle("GET /assets/stock",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionList)(http.HandlerFunc(as.Stock))))
	a.mux.Handle("GET /assets/export",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionExport)(http.HandlerFunc(as.Export))))
	a.mux.Handle("POST /assets/import",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionImport)(http.HandlerFunc(as.Import))))
	a.mux.Handle("GET /assets/import-template",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionImport)(http.HandlerFunc(as.Template))))
	a.mux.Handle("GET /assets/{id}",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionView)(http.HandlerFunc(as.View))))
	a.mux.Handle("POST /assets/{id}",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionUpdate)(http.HandlerFunc(as.Update))))
	a.mux.Handle("DELETE /assets/{id}",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionDelete)(http.HandlerFunc(as.Delete))))
	a.mux.Handle("POST /assets/{id}/activate",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionMove)(http.HandlerFunc(as.Activate))))
	a.mux.Handle("POST /assets/{id}/stock",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionMove)(http.HandlerFunc(as.ReturnToStock))))
	a.mux.Handle("GET /assets/{id}/history",
		a.requireAuth(a.requirePermission(gate.ResourceAsset, gate.ActionView)(http.HandlerFunc(as.History))))

	// Users: viewing or updating one's own record is allowed for every
	// role, so only the service can decide.
	us := handlers.NewUserHandler(a.svc.Users)
	a.mux.Handle("GET /users", a.requireAuth(http.HandlerFunc(us.List)))
	a.mux.Handle("POST /users", a.requireAdmin(http.HandlerFunc(us.Create)))
	a.mux.Handle("GET /users/{id}", a.requireAuth(http.HandlerFunc(us.View)))
	a.mux.Handle("POST /users/{id}", a.requireAuth(http.HandlerFunc(us.Update)))
	a.mux.Handle("DELETE /users/{id}", a.requireAdmin(http.HandlerFunc(us.Delete)))
	a.mux.Handle("POST /users/{id}/password", a.requireAuth(http.HandlerFunc(us.ChangePassword)))

	// Backups
	bh := handlers.NewBackupHandler(a.svc.Backups, a.svc.Users)
	a.mux.Handle("GET /backups", a.requireAdmin(http.HandlerFunc(bh.List)))
	a.mux.Handle("POST /backups", a.requireAdmin(http.HandlerFunc(bh.Create)))
	a.mux.Handle("POST /backups/{id}/restore", a.requireAdmin(http.HandlerFunc(bh.Restore)))

	// Reports
	rh := handlers.NewReportHandler(a.svc.Reports, a.svc.Users)
	a.mux.Handle("GET /reports/{kind}",
		a.requireAuth(a.requirePermission(gate.ResourceReport, gate.ActionCreate)(http.HandlerFunc(rh.Generate))))
}

// requireAuth wraps a handler to require authentication.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return a.sessions.RequireAuth(next)
}

// requireAdmin wraps a handler to require an administrator session.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.requireAuth(a.svc.Gate.RequireAdmin()(next))
}

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.svc.Gate.RequirePermission(resourceType, action)
}
