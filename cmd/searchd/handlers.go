package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/search"
)

type api struct {
	svc    *search.Service
	logger *observability.Logger
}

func newAPI(svc *search.Service, logger *observability.Logger) *api {
	return &api{svc: svc, logger: logger}
}

func (a *api) routes() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/search", a.handleSearch).Methods(http.MethodPost)
	v1.HandleFunc("/status", a.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/reindex", a.handleReindex).Methods(http.MethodPost)
	v1.HandleFunc("/events", a.handleEvent).Methods(http.MethodPost)
	return r
}

func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := a.svc.Search(r.Context(), req)
	if err != nil {
		a.logger.WithError(err).Error("Search request failed")
		writeError(w, http.StatusServiceUnavailable, "search unavailable")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Status(r.Context()))
}

func (a *api) handleReindex(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant")

	report, err := a.svc.ReindexAll(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, search.ErrNoIndexEngine) {
			writeError(w, http.StatusServiceUnavailable, "no index engine configured")
			return
		}
		a.logger.WithError(err).Error("Reindex failed")
		writeError(w, http.StatusInternalServerError, "reindex failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// domainEvent is the ingestion payload for published entity changes.
type domainEvent struct {
	Event    string `json:"event"`
	TenantID string `json:"tenant_id"`
	EntityID string `json:"entity_id,omitempty"`
}

func (a *api) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev domainEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ev.Event == "" {
		writeError(w, http.StatusBadRequest, "event name is required")
		return
	}

	a.svc.HandleDomainEvent(ev.Event, ev.TenantID, ev.EntityID)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":       uuid.NewString(),
		"accepted": true,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
