package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/export"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
)

// Snapshotter uploads an export of the given items.
type Snapshotter interface {
	Snapshot(ctx context.Context, items []model.Item, at time.Time) ([]string, error)
}

// Options carries the dependencies shared by all handlers.
type Options struct {
	DB        *sql.DB
	JWTSecret string
	Admins    auth.AdminList
	Metrics   *metrics.Metrics
	Labels    export.Labels
	// Snapshots is nil when no bucket is configured.
	Snapshots Snapshotter
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: opts.DB, JWTSecret: opts.JWTSecret, Admins: opts.Admins}
	itemsHandler := &ItemsHandler{DB: opts.DB, Metrics: opts.Metrics}
	requestsHandler := &RequestsHandler{DB: opts.DB, Metrics: opts.Metrics}
	usersHandler := &UsersHandler{DB: opts.DB, Metrics: opts.Metrics}
	purchasesHandler := &PurchasesHandler{DB: opts.DB}
	logsHandler := &LogsHandler{DB: opts.DB}
	exportHandler := &ExportHandler{DB: opts.DB, Labels: opts.Labels, Snapshots: opts.Snapshots}

	authMW := AuthMiddleware(opts.JWTSecret, opts.DB)
	admin := func(h http.HandlerFunc) http.Handler { return authMW(RequireAdmin(h)) }
	member := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("PUT /api/auth/password", member(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", member(authHandler.Logout))

	// Items: everyone reads, admins write.
	mux.Handle("GET /api/items", member(itemsHandler.List))
	mux.Handle("POST /api/items", admin(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", member(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", admin(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", admin(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/image", admin(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", member(itemsHandler.GetImage))
	mux.Handle("POST /api/items/{id}/return", member(itemsHandler.Return))
	mux.Handle("GET /api/me/items", member(itemsHandler.Mine))

	// Requests.
	mux.Handle("POST /api/requests", member(requestsHandler.Create))
	mux.Handle("GET /api/requests", member(requestsHandler.List))
	mux.Handle("POST /api/requests/{id}/approve", admin(requestsHandler.Approve))
	mux.Handle("POST /api/requests/{id}/reject", admin(requestsHandler.Reject))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Purchase plan (admin only).
	mux.Handle("GET /api/purchases", admin(purchasesHandler.List))
	mux.Handle("POST /api/purchases", admin(purchasesHandler.Create))
	mux.Handle("POST /api/purchases/{id}/receive", admin(purchasesHandler.Receive))

	mux.Handle("GET /api/logs", admin(logsHandler.List))

	// Export and restore (admin only).
	mux.Handle("GET /api/export/csv", admin(exportHandler.CSV))
	mux.Handle("GET /api/export/json", admin(exportHandler.JSON))
	mux.Handle("POST /api/export/snapshot", admin(exportHandler.Snapshot))
	mux.Handle("POST /api/import/json", admin(exportHandler.Restore))

	mux.Handle("GET /metrics", opts.Metrics.Handler())

	return LoggingMiddleware(opts.Metrics)(mux)
}
