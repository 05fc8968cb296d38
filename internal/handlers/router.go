package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vinspect/vinspectgo/internal/apperrors"
	"github.com/vinspect/vinspectgo/internal/config"
	"github.com/vinspect/vinspectgo/internal/database"
	"github.com/vinspect/vinspectgo/internal/middleware"
	"github.com/vinspect/vinspectgo/internal/models"
	"github.com/vinspect/vinspectgo/internal/services/inspection"
	"github.com/vinspect/vinspectgo/internal/services/lifecycle"
	ws "github.com/vinspect/vinspectgo/internal/websocket"
)

// Router wraps the mux router, database and domain services
type Router struct {
	*mux.Router
	db          *database.DB
	cfg         *config.Config
	requests    *lifecycle.Service
	inspections *inspection.Service
	hub         *ws.Hub
}

// statusNotifier fans request status changes out to the websocket hub
type statusNotifier struct {
	hub *ws.Hub
}

func (n statusNotifier) RequestStatusChanged(req *models.InspectionRequest) {
	n.hub.Broadcast(ws.StatusEvent{
		Type:        "request_status",
		RequestID:   req.ID,
		RequestCode: req.RequestID,
		Status:      req.Status.String(),
		At:          time.Now().UTC(),
	})
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, hub *ws.Hub) *Router {
	requests := lifecycle.NewService(db.DB)
	if hub != nil {
		requests.SetNotifier(statusNotifier{hub: hub})
	}

	r := &Router{
		Router:      mux.NewRouter(),
		db:          db,
		cfg:         cfg,
		requests:    requests,
		inspections: inspection.NewService(db.DB, requests),
		hub:         hub,
	}

	auth := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	inspectorOnly := middleware.RequireRole(models.RoleInspector)

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/api/status", r.getStatus).Methods("GET")

	// Auth routes
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/login", r.login).Methods("POST")
	authRoutes.HandleFunc("/register", r.register).Methods("POST")

	// Public intake: anyone can create a request
	r.HandleFunc("/api/requests", r.createRequest).Methods("POST")

	// Request routes (protected)
	reqRoutes := r.PathPrefix("/api/requests").Subrouter()
	reqRoutes.Use(auth)
	reqRoutes.HandleFunc("", r.listRequests).Methods("GET")
	reqRoutes.HandleFunc("/{id:[0-9]+}", r.getRequest).Methods("GET")
	reqRoutes.HandleFunc("/{id:[0-9]+}", r.updateRequest).Methods("PUT")
	reqRoutes.Handle("/{id:[0-9]+}/assign", adminOnly(http.HandlerFunc(r.assignInspector))).Methods("POST")
	reqRoutes.Handle("/{id:[0-9]+}/approve", adminOnly(http.HandlerFunc(r.approveRequest))).Methods("POST")
	reqRoutes.Handle("/{id:[0-9]+}/reject", adminOnly(http.HandlerFunc(r.rejectRequest))).Methods("POST")
	reqRoutes.Handle("/{id:[0-9]+}/start", inspectorOnly(http.HandlerFunc(r.startInspection))).Methods("POST")

	// Inspection routes (protected)
	inspRoutes := r.PathPrefix("/api/inspections").Subrouter()
	inspRoutes.Use(auth)
	inspRoutes.Handle("", inspectorOnly(http.HandlerFunc(r.createInspection))).Methods("POST")
	inspRoutes.HandleFunc("/{id:[0-9]+}", r.getInspection).Methods("GET")
	inspRoutes.Handle("/{id:[0-9]+}", inspectorOnly(http.HandlerFunc(r.updateInspection))).Methods("PUT")
	inspRoutes.HandleFunc("/{id:[0-9]+}/report", r.downloadReport).Methods("GET")

	// Template routes (protected)
	tplRoutes := r.PathPrefix("/api/templates").Subrouter()
	tplRoutes.Use(auth)
	tplRoutes.HandleFunc("", r.listTemplates).Methods("GET")
	tplRoutes.Handle("", adminOnly(http.HandlerFunc(r.createTemplate))).Methods("POST")
	tplRoutes.HandleFunc("/{id:[0-9]+}", r.getTemplate).Methods("GET")

	// Admin routes (protected)
	adminRoutes := r.PathPrefix("/api/admin").Subrouter()
	adminRoutes.Use(auth)
	adminRoutes.Handle("/inspectors", adminOnly(http.HandlerFunc(r.listInspectors))).Methods("GET")

	// Live status events for dashboards
	if hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			ws.ServeWS(hub, w, req)
		})
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"version": "1.0.0",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondAppError maps a typed application error to its HTTP status
func respondAppError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	if kind == "" {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, apperrors.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}
