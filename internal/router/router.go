package router

import (
	"net/http"
	"time"

	"portaria-backend/internal/handlers"
	"portaria-backend/internal/middleware"
	"portaria-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New wires every route behind the shared middleware chain. Lifecycle
// operations are restricted by role at the edge; the property boundary is
// enforced again inside the service.
func New(
	accessHandler *handlers.AccessHandler,
	stationHandler *handlers.GateStationHandler,
	authHandler *handlers.AuthHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics)
	r.Use(middleware.GzipCompression)

	r.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	loginLimiter := middleware.NewRateLimiter(5, time.Minute)
	r.Handle("/api/login",
		loginLimiter.Middleware(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	apiLimiter := middleware.NewRateLimiter(100, time.Minute)
	api.Use(apiLimiter.Middleware)

	attendant := authMiddleware.RequireRole(models.RoleAttendant, models.RoleManager, models.RoleAdmin)
	resident := authMiddleware.RequireRole(models.RoleResident)
	professional := authMiddleware.RequireRole(models.RoleProfessional)

	// Lifecycle
	api.Handle("/access/pre-authorize",
		resident(http.HandlerFunc(accessHandler.PreAuthorize))).Methods(http.MethodPost)
	api.Handle("/access/register",
		attendant(http.HandlerFunc(accessHandler.RegisterDirect))).Methods(http.MethodPost)
	api.Handle("/access/self-checkin",
		professional(http.HandlerFunc(accessHandler.SelfCheckin))).Methods(http.MethodPost)
	api.Handle("/access/{id:[0-9]+}/approve",
		attendant(http.HandlerFunc(accessHandler.Approve))).Methods(http.MethodPost)
	api.Handle("/access/{id:[0-9]+}/deny",
		attendant(http.HandlerFunc(accessHandler.Deny))).Methods(http.MethodPost)
	api.Handle("/access/{id:[0-9]+}/entry",
		attendant(http.HandlerFunc(accessHandler.RecordEntry))).Methods(http.MethodPost)
	api.Handle("/access/{id:[0-9]+}/exit",
		attendant(http.HandlerFunc(accessHandler.RecordExit))).Methods(http.MethodPost)

	// Dashboard queries
	api.Handle("/access",
		authMiddleware.RequireAuth(http.HandlerFunc(accessHandler.List))).Methods(http.MethodGet)
	api.Handle("/access/{id:[0-9]+}",
		authMiddleware.RequireAuth(http.HandlerFunc(accessHandler.Get))).Methods(http.MethodGet)
	api.Handle("/access/pending",
		attendant(http.HandlerFunc(accessHandler.ListPending))).Methods(http.MethodGet)
	api.Handle("/access/inside",
		attendant(http.HandlerFunc(accessHandler.ListInside))).Methods(http.MethodGet)
	api.Handle("/access/mine",
		resident(http.HandlerFunc(accessHandler.ListMine))).Methods(http.MethodGet)
	api.Handle("/access/summary",
		attendant(http.HandlerFunc(accessHandler.DailySummary))).Methods(http.MethodGet)
	api.Handle("/stations",
		authMiddleware.RequireAuth(http.HandlerFunc(stationHandler.List))).Methods(http.MethodGet)

	// Realtime dashboard feed
	r.Handle("/ws",
		authMiddleware.RequireAuth(http.HandlerFunc(wsHandler.Serve))).Methods(http.MethodGet)

	return r
}
