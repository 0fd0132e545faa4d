package handlers

import (
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"service":       "vidabot-bridge",
		"videoModel":    a.videoModel,
		"uptimeSeconds": int64(time.Since(a.startedAt).Seconds()),
	})
}
