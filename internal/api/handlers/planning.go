package handlers

import (
	"context"
	"field-route-service/internal/api/dto"
	"field-route-service/internal/domain"
	"field-route-service/internal/services"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// RoutePlanner is the planning use case consumed by the HTTP layer.
type RoutePlanner interface {
	Plan(ctx context.Context, req services.PlanRequest) (*domain.PlanningResult, error)
}

type PlanningHandler struct {
	Planner RoutePlanner
}

// Route serves GET /api/planning/route?branch=<id or name>&num_clients=<int>.
func (h *PlanningHandler) Route(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	branch := strings.TrimSpace(q.Get("branch"))
	if branch == "" {
		writeError(w, r, http.StatusBadRequest, "branch is required")
		return
	}

	req := services.PlanRequest{Branch: branch}

	if raw := strings.TrimSpace(q.Get("num_clients")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("num_clients must be an integer, got %q", raw))
			return
		}
		req.NumClients = &n
	}

	res, err := h.Planner.Plan(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPlanRouteResponse(res))
}
