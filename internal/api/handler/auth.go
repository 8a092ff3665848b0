package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/triviastake/internal/api/request"
	"github.com/mcoot/triviastake/internal/api/response"
	"github.com/mcoot/triviastake/internal/services/auth"
)

// AuthHandler handles login and identity endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles GET /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	login, err := h.authService.BeginLogin(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginResponse{AuthURL: login.AuthURL, State: login.State})
}

// Callback handles GET /api/v1/auth/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if denied := query.Get("error"); denied != "" {
		WriteError(w, NewInvalidRequestError("authorization was not granted: "+denied))
		return
	}

	identity, err := h.authService.CompleteLogin(r.Context(), query.Get("state"), query.Get("code"))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HandleResponse{Handle: identity.Handle})
}

// LinkWallet handles POST /api/v1/identities/{handle}/wallet
func (h *AuthHandler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	var req request.LinkWalletRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	identity, err := h.authService.LinkWallet(r.Context(), mux.Vars(r)["handle"], req.WalletAddress)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.WalletResponse{
		Handle:        identity.Handle,
		WalletAddress: identity.WalletAddress,
	})
}
