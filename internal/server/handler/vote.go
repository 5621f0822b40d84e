package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// VoteHandler serves the vote ledger HTTP endpoints.
type VoteHandler struct {
	votes  domain.VoteStore
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewVoteHandler creates a VoteHandler. bus may be nil, in which case vote
// events are not broadcast.
func NewVoteHandler(votes domain.VoteStore, bus domain.SignalBus, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{
		votes:  votes,
		bus:    bus,
		logger: logHandler(logger, "vote"),
	}
}

// castVoteRequest is the POST /api/votes payload.
type castVoteRequest struct {
	PredictionID  int64   `json:"predictionId"`
	Choice        string  `json:"choice"`
	WalletAddress string  `json:"walletAddress"`
	Amount        float64 `json:"amount"`
}

// Cast records a vote. Re-voting on the same prediction from the same wallet
// replaces the earlier vote.
// POST /api/votes
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.PredictionID == 0 || req.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "predictionId and walletAddress are required")
		return
	}

	rec := domain.VoteRecord{
		PredictionID:  req.PredictionID,
		Choice:        domain.VoteChoice(strings.ToLower(req.Choice)),
		WalletAddress: req.WalletAddress,
		Timestamp:     time.Now().UnixMilli(),
		Amount:        req.Amount,
	}

	if err := h.votes.Save(r.Context(), rec); err != nil {
		if errors.Is(err, domain.ErrInvalidVote) {
			writeError(w, http.StatusBadRequest, "choice must be yes or no")
			return
		}
		h.logger.ErrorContext(r.Context(), "save vote failed",
			slog.Int64("prediction_id", req.PredictionID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to save vote")
		return
	}

	h.publishVote(r, rec)
	writeJSON(w, http.StatusCreated, rec)
}

// List returns recorded votes, optionally restricted to a single wallet.
// GET /api/votes?wallet=0x...
func (h *VoteHandler) List(w http.ResponseWriter, r *http.Request) {
	votes, err := h.votes.All(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list votes failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list votes")
		return
	}

	if wallet := strings.TrimSpace(r.URL.Query().Get("wallet")); wallet != "" {
		filtered := make([]domain.VoteRecord, 0, len(votes))
		for _, v := range votes {
			if v.WalletAddress == wallet {
				filtered = append(filtered, v)
			}
		}
		votes = filtered
	}

	if votes == nil {
		votes = []domain.VoteRecord{}
	}
	writeJSON(w, http.StatusOK, votes)
}

// Get returns the vote a wallet cast on a prediction.
// GET /api/votes/{id}?wallet=0x...
func (h *VoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}
	wallet := strings.TrimSpace(r.URL.Query().Get("wallet"))
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet query parameter is required")
		return
	}

	rec, err := h.votes.Get(r.Context(), id, wallet)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vote not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get vote failed",
			slog.Int64("prediction_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get vote")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Counts tallies yes and no votes for a prediction.
// GET /api/votes/{id}/counts
func (h *VoteHandler) Counts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	counts, err := h.votes.Counts(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "count votes failed",
			slog.Int64("prediction_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count votes")
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

// Clear wipes the entire ledger.
// DELETE /api/votes
func (h *VoteHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.votes.Clear(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "clear votes failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to clear votes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// publishVote broadcasts the vote on the signal bus so connected WebSocket
// clients see tallies move in real time. Failures are logged, not surfaced.
func (h *VoteHandler) publishVote(r *http.Request, rec domain.VoteRecord) {
	if h.bus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"type": "vote_cast",
		"vote": rec,
	})
	if err != nil {
		return
	}
	if err := h.bus.Publish(r.Context(), "votes", payload); err != nil {
		h.logger.WarnContext(r.Context(), "vote publish failed",
			slog.String("error", err.Error()),
		)
	}
}
