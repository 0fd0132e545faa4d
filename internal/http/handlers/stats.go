package handlers

import (
	"net/http"
	"time"

	"vidabot/internal/domain"
)

const statsWindow = 24 * time.Hour

// Stats reports ledger outcomes over the last 24 hours.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	if a.ledger == nil {
		a.json(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "ledger disabled"})
		return
	}
	since := a.now().Add(-statsWindow).UTC()
	summary, err := a.ledger.Summary(r.Context(), since)
	if err != nil {
		a.logger.Error().Err(err).Msg("handlers: load stats")
		a.fail(w, r, domain.NewError(domain.KindUnknown, "load stats", err))
		return
	}
	byStrategy := make(map[string]int, len(summary.ByStrategy))
	for k, v := range summary.ByStrategy {
		byStrategy[string(k)] = v
	}
	byError := make(map[string]int, len(summary.ByError))
	for k, v := range summary.ByError {
		byError[string(k)] = v
	}
	a.json(w, http.StatusOK, map[string]any{
		"since":      summary.Since.Format(time.RFC3339),
		"total":      summary.Total,
		"completed":  summary.Completed,
		"failed":     summary.Failed,
		"timedOut":   summary.TimedOut,
		"cancelled":  summary.Cancelled,
		"byStrategy": byStrategy,
		"byError":    byError,
	})
}
