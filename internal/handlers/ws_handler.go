package handlers

import (
	"log"
	"net/http"

	"portaria-backend/internal/middleware"
	"portaria-backend/internal/realtime"
	"portaria-backend/internal/services"
)

// WSHandler upgrades attendant dashboards onto the hub. Room eligibility is
// decided here, before a join ever reaches the hub: the room must name a
// station of the caller's property.
type WSHandler struct {
	Hub       *realtime.Hub
	Directory *services.GateDirectory
}

func NewWSHandler(hub *realtime.Hub, directory *services.GateDirectory) *WSHandler {
	return &WSHandler{Hub: hub, Directory: directory}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	authorize := func(room string) bool {
		stationID, err := services.ParseRoom(room)
		if err != nil {
			return false
		}
		propertyID, err := h.Directory.ResolveTenant(r.Context(), stationID)
		if err != nil {
			log.Printf("ws: resolve station %d: %v", stationID, err)
			return false
		}
		return propertyID == actor.PropertyID
	}

	realtime.ServeWS(h.Hub, w, r, authorize)
}
