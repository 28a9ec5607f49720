package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
)

// HealthCheck 回傳 nil 代表依賴正常
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := HealthStatus{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			res.Status = "degraded"
			res.Checks[name] = "down"
			continue
		}
		res.Checks[name] = "up"
	}

	if res.Status != "ok" {
		response.ErrorJSON(w, r, apperr.New(apperr.KindExternal, http.StatusServiceUnavailable, "UNHEALTHY", "dependency check failed").WithDetails(res))
		return
	}
	response.SuccessJSON(w, http.StatusOK, res)
}
