package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/dynamite/internal/handler"
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/router"
)

const healthTimeout = 2 * time.Second

// RegisterOpsRoutes registers /healthz and, when configured, /metrics.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/healthz", healthz(deps.Database))
	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics)
	}
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				middleware.GetLogger(r.Context()).Warn("health check failed", "error", err)
				handler.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
