package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/triviastake/internal/api/apierr"
	"github.com/mcoot/triviastake/internal/api/handler"
	"github.com/mcoot/triviastake/internal/api/response"
	"github.com/mcoot/triviastake/internal/api/sse"
	"github.com/mcoot/triviastake/internal/middleware"
	"github.com/mcoot/triviastake/internal/services/admission"
	"github.com/mcoot/triviastake/internal/services/auth"
	"github.com/mcoot/triviastake/internal/services/ingestion"
	"github.com/mcoot/triviastake/internal/services/leaderboard"
	"github.com/mcoot/triviastake/internal/services/reward"
	"github.com/mcoot/triviastake/internal/services/scoring"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger              *slog.Logger
	AuthService         *auth.Service
	IngestionService    *ingestion.Service
	AdmissionController *admission.Controller
	ScoringService      scoring.ServiceInterface
	LeaderboardService  leaderboard.ServiceInterface
	RewardService       reward.ServiceInterface
	HubManager          *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(
		cfg.IngestionService,
		cfg.AdmissionController,
		cfg.ScoringService,
		cfg.LeaderboardService,
		cfg.RewardService,
		cfg.HubManager,
	)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger, writePanic))

	// Login and identity routes
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodGet)
	api.HandleFunc("/auth/callback", authHandler.Callback).Methods(http.MethodGet)
	api.HandleFunc("/identities/{handle}/wallet", authHandler.LinkWallet).Methods(http.MethodPost)

	// Game routes. Handles are checked against stored identities by the
	// services, so no route needs a session middleware.
	games := api.PathPrefix("/games").Subrouter()
	games.HandleFunc("", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{id}/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/{id}/submit", gameHandler.Submit).Methods(http.MethodPost)
	games.HandleFunc("/{id}/questions", gameHandler.Questions).Methods(http.MethodGet)
	games.HandleFunc("/{id}/participants", gameHandler.Participants).Methods(http.MethodGet)
	games.HandleFunc("/{id}/leaderboard", gameHandler.Leaderboard).Methods(http.MethodGet)
	games.HandleFunc("/{id}/eligibility", gameHandler.Eligibility).Methods(http.MethodGet)
	games.HandleFunc("/{id}/mint", gameHandler.Mint).Methods(http.MethodPost)
	games.HandleFunc("/{id}/events", gameHandler.Events).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func writePanic(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
