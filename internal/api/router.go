package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/paradox/internal/api/handler"
	"github.com/mcoot/paradox/internal/api/middleware"
	"github.com/mcoot/paradox/internal/api/sse"
	basemw "github.com/mcoot/paradox/internal/middleware"
	"github.com/mcoot/paradox/internal/services/catalog"
	"github.com/mcoot/paradox/internal/services/leaderboard"
	"github.com/mcoot/paradox/internal/services/progression"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Engine      *progression.Engine
	Catalog     *catalog.Service
	Leaderboard *leaderboard.Projector
	// Hub serves GET /events. The route is omitted when nil.
	Hub *sse.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	userHandler := handler.NewUserHandler(cfg.Engine)
	progressionHandler := handler.NewProgressionHandler(cfg.Engine)
	catalogHandler := handler.NewCatalogHandler(cfg.Catalog, cfg.Leaderboard)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(basemw.RequestID())
	api.Use(basemw.Tracing())
	api.Use(basemw.Logging(cfg.Logger, "/api/v1/health"))
	api.Use(middleware.Recovery(cfg.Logger))

	// Identity
	api.HandleFunc("/user", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/user/{identity_id}", userHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/user/{identity_id}", userHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/user/{identity_id}/present", userHandler.Present).Methods(http.MethodGet)
	api.HandleFunc("/user/{identity_id}/hints", userHandler.Hints).Methods(http.MethodGet)

	// Economy
	api.HandleFunc("/referral", progressionHandler.Referral).Methods(http.MethodPost)
	api.HandleFunc("/hint", progressionHandler.Hint).Methods(http.MethodPost)
	api.HandleFunc("/answer", progressionHandler.Answer).Methods(http.MethodPost)
	api.HandleFunc("/coins", progressionHandler.Coins).Methods(http.MethodPut)

	// Catalog and standings
	api.HandleFunc("/leaderboard", catalogHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/questions", catalogHandler.Questions).Methods(http.MethodGet)
	api.HandleFunc("/hints", catalogHandler.Hints).Methods(http.MethodGet)
	api.HandleFunc("/members", catalogHandler.Members).Methods(http.MethodGet)
	api.HandleFunc("/members", catalogHandler.AddMember).Methods(http.MethodPost)
	api.HandleFunc("/members/positions", catalogHandler.Positions).Methods(http.MethodGet)

	if cfg.Hub != nil {
		api.HandleFunc("/events", handler.NewEventsHandler(cfg.Hub).Stream).Methods(http.MethodGet)
	}

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
