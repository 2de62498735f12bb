package handlers

import (
	"net/http"

	"portaria-backend/internal/middleware"
	"portaria-backend/internal/models"
	"portaria-backend/internal/services"
)

type GateStationHandler struct {
	Directory *services.GateDirectory
}

func NewGateStationHandler(directory *services.GateDirectory) *GateStationHandler {
	return &GateStationHandler{Directory: directory}
}

// List returns the caller's property stations, the set of rooms its
// dashboards may subscribe to.
func (h *GateStationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	stations, err := h.Directory.ListStations(r.Context(), actor.PropertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if stations == nil {
		stations = []models.GateStation{}
	}
	writeJSON(w, http.StatusOK, stations)
}
