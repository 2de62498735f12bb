package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"portaria-backend/internal/middleware"
	"portaria-backend/internal/models"
	"portaria-backend/internal/services"

	"github.com/gorilla/mux"
)

// AccessHandler exposes the access request lifecycle and the read-only
// dashboard queries. The caller's property always comes from the JWT, never
// from the request body.
type AccessHandler struct {
	Service *services.AccessService
}

func NewAccessHandler(service *services.AccessService) *AccessHandler {
	return &AccessHandler{Service: service}
}

func (h *AccessHandler) PreAuthorize(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req models.PreAuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.Service.PreAuthorize(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *AccessHandler) RegisterDirect(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req models.RegisterDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.Service.RegisterDirect(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *AccessHandler) SelfCheckin(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req models.SelfCheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.Service.SelfCheckin(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *AccessHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Approve)
}

func (h *AccessHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Deny)
}

func (h *AccessHandler) RecordExit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.RecordExit)
}

func (h *AccessHandler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}
	var req models.RecordEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.Service.RecordEntry(r.Context(), actor, id, req.GateStationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *AccessHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}
	record, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// List handles GET /api/access with optional state, gate_station_id, from
// and to query filters.
func (h *AccessHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var filter models.AccessRequestFilter
	q := r.URL.Query()
	if v := q.Get("state"); v != "" {
		state := models.AccessState(v)
		filter.State = &state
	}
	if v := q.Get("gate_station_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid gate_station_id", http.StatusBadRequest)
			return
		}
		filter.GateStationID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			http.Error(w, "Invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			http.Error(w, "Invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end := t.AddDate(0, 0, 1) // inclusive end day
		filter.To = &end
	}

	records, err := h.Service.List(r.Context(), actor, &filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*models.AccessRequest{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *AccessHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListPending)
}

func (h *AccessHandler) ListInside(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListInside)
}

func (h *AccessHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListMine)
}

func (h *AccessHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	summary, err := h.Service.DailySummary(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AccessHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor services.Actor, id int) (*models.AccessRequest, error)) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}
	record, err := op(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *AccessHandler) list(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor services.Actor) ([]*models.AccessRequest, error)) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	records, err := op(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*models.AccessRequest{}
	}
	writeJSON(w, http.StatusOK, records)
}
