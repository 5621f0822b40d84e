package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/omenlabs/omenfeed/internal/chart"
	"github.com/omenlabs/omenfeed/internal/domain"
)

// ChartHandler serves synthesized probability history for a prediction.
type ChartHandler struct {
	feed   FeedService
	logger *slog.Logger
}

// NewChartHandler creates a ChartHandler backed by the feed service.
func NewChartHandler(feed FeedService, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		feed:   feed,
		logger: logHandler(logger, "chart"),
	}
}

// chartResponse carries the generated series plus the anchor it converges to.
type chartResponse struct {
	PredictionID int64     `json:"predictionId"`
	Points       []float64 `json:"points"`
	Anchor       float64   `json:"anchor"`
}

// History returns a deterministic probability series for a prediction. The
// series always ends exactly at the prediction's current yes-percentage so
// the chart lines up with the displayed odds. Callers that already know the
// displayed percentage can pass it as ?value= to skip the feed lookup.
// GET /api/markets/{id}/chart?value=62.5
func (h *ChartHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	if raw := r.URL.Query().Get("value"); raw != "" {
		anchor, err := strconv.ParseFloat(raw, 64)
		if err != nil || anchor < 0 || anchor > 100 {
			writeError(w, http.StatusBadRequest, "value must be a percentage between 0 and 100")
			return
		}
		writeJSON(w, http.StatusOK, chartResponse{
			PredictionID: id,
			Points:       chart.DeterministicPattern(id, anchor),
			Anchor:       anchor,
		})
		return
	}

	anchor := 50.0
	if markets, err := h.feed.DailyMarkets(r.Context(), maxDailyCount); err == nil {
		for _, m := range markets {
			if m.ID == id {
				anchor = yesPercent(m)
				break
			}
		}
	} else {
		h.logger.WarnContext(r.Context(), "feed lookup for chart failed",
			slog.Int64("market_id", id),
			slog.String("error", err.Error()),
		)
	}

	points := chart.DeterministicPattern(id, anchor)

	writeJSON(w, http.StatusOK, chartResponse{
		PredictionID: id,
		Points:       points,
		Anchor:       anchor,
	})
}

// yesPercent derives the current yes probability (0-100) from vote counts,
// defaulting to even odds when no votes are recorded.
func yesPercent(m domain.Market) float64 {
	total := m.YesVotes + m.NoVotes
	if total <= 0 {
		return 50.0
	}
	return float64(m.YesVotes) / float64(total) * 100.0
}
