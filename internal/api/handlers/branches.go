package handlers

import (
	"field-route-service/internal/api/dto"
	"field-route-service/internal/ports"
	"net/http"
)

// BranchHandler exposes the read-only branch directory.
type BranchHandler struct {
	Directory ports.BranchDirectory
}

func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.Directory.ListBranches(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := make([]dto.BranchResponse, 0, len(branches))
	for _, b := range branches {
		res = append(res, dto.BranchResponse{
			Branch:    b.ID,
			Name:      b.Name,
			ZonalHead: b.ZonalHead,
			Lat:       b.Lat,
			Lon:       b.Lon,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
