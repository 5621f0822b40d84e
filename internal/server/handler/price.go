package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// PriceService defines what the price handler needs from the price layer.
type PriceService interface {
	Sparkline(ctx context.Context, symbol string) (domain.Sparkline, error)
}

// PriceHandler serves crypto sparkline data.
type PriceHandler struct {
	prices PriceService
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler with the given service and logger.
func NewPriceHandler(prices PriceService, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		prices: prices,
		logger: logHandler(logger, "price"),
	}
}

// sparklineResponse is the per-symbol payload.
type sparklineResponse struct {
	Symbol    string    `json:"symbol"`
	Sparkline []float64 `json:"sparkline"`
	OpenPrice *float64  `json:"openPrice"`
}

// Sparklines returns 24h hourly close series for the requested symbols.
// Symbols that cannot be served are omitted rather than failing the whole
// response.
// GET /api/prices?symbols=BTC,ETH,SOL
func (h *PriceHandler) Sparklines(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		raw = "BTC,ETH,SOL"
	}

	out := make(map[string]sparklineResponse)
	for _, symbol := range strings.Split(raw, ",") {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}

		spark, err := h.prices.Sparkline(r.Context(), symbol)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				h.logger.WarnContext(r.Context(), "sparkline fetch failed",
					slog.String("symbol", symbol),
					slog.String("error", err.Error()),
				)
			}
			continue
		}

		out[symbol] = sparklineResponse{
			Symbol:    symbol,
			Sparkline: spark.Points,
			OpenPrice: spark.OpenPrice,
		}
	}

	writeJSON(w, http.StatusOK, out)
}
