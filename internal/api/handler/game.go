package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/triviastake/internal/api/request"
	"github.com/mcoot/triviastake/internal/api/response"
	"github.com/mcoot/triviastake/internal/api/sse"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/admission"
	"github.com/mcoot/triviastake/internal/services/ingestion"
	"github.com/mcoot/triviastake/internal/services/leaderboard"
	"github.com/mcoot/triviastake/internal/services/reward"
	"github.com/mcoot/triviastake/internal/services/scoring"
)

// GameHandler handles game session endpoints
type GameHandler struct {
	ingestion   *ingestion.Service
	admission   *admission.Controller
	scoring     scoring.ServiceInterface
	leaderboard leaderboard.ServiceInterface
	reward      reward.ServiceInterface
	hubManager  *sse.HubManager
}

// NewGameHandler creates a new game handler. hubManager may be nil, in
// which case the events endpoint is unavailable.
func NewGameHandler(
	ingestion *ingestion.Service,
	admission *admission.Controller,
	scoring scoring.ServiceInterface,
	leaderboard leaderboard.ServiceInterface,
	reward reward.ServiceInterface,
	hubManager *sse.HubManager,
) *GameHandler {
	return &GameHandler{
		ingestion:   ingestion,
		admission:   admission,
		scoring:     scoring,
		leaderboard: leaderboard,
		reward:      reward,
		hubManager:  hubManager,
	}
}

func gameID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["id"])
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.ingestion.CreateSession(r.Context(), ingestion.CreateRequest{
		CreatorBasename:  req.CreatorBasename,
		StakeAmount:      req.StakeAmount,
		PlayerLimit:      req.PlayerLimit,
		DurationSeconds:  req.DurationSeconds,
		RequestingHandle: req.RequestingHandle,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateGameFromResult(result))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.admission.GetSession(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(session, h.admission.Status(session)))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	id := gameID(r)
	if _, err := h.admission.Join(r.Context(), id, req.Handle); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MessageResponse{
		Message: fmt.Sprintf("%s joined game %s", req.Handle, id),
	})
}

// Submit handles POST /api/v1/games/{id}/submit
func (h *GameHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	submission, err := h.scoring.Submit(r.Context(), gameID(r), req.Handle, req.StageIndex, req.AnswerFingerprints)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SubmitResponse{Score: submission.Score})
}

// Questions handles GET /api/v1/games/{id}/questions
func (h *GameHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.admission.ListQuestions(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QuestionsFromModel(questions))
}

// Participants handles GET /api/v1/games/{id}/participants
func (h *GameHandler) Participants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.admission.ListParticipants(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ParticipantsFromModel(participants))
}

// Leaderboard handles GET /api/v1/games/{id}/leaderboard
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.Rank(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}

// Eligibility handles GET /api/v1/games/{id}/eligibility?handle=
func (h *GameHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	if handle == "" {
		WriteError(w, NewInvalidRequestError("handle is required"))
		return
	}

	eligible, err := h.reward.CheckEligible(r.Context(), gameID(r), handle)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EligibilityResponse{Eligible: eligible})
}

// Mint handles POST /api/v1/games/{id}/mint
func (h *GameHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req request.MintRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	claim, err := h.reward.Mint(r.Context(), gameID(r), req.Handle, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MintResponse{TxRef: claim.TxRef})
}

// Events handles GET /api/v1/games/{id}/events
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hubManager == nil {
		WriteError(w, NewInvalidRequestError("event streaming is not enabled"))
		return
	}
	session, err := h.admission.GetSession(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, h.hubManager, session.ID, r.URL.Query().Get("handle"))
}
