package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/fishfarm/internal/apperr"
	"github.com/Spok95/fishfarm/internal/domain/feeds"
	"github.com/Spok95/fishfarm/internal/domain/harvests"
	"github.com/Spok95/fishfarm/internal/domain/plantings"
	"github.com/Spok95/fishfarm/internal/domain/pools"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
	"github.com/Spok95/fishfarm/internal/domain/transfers"
)

// API is the JSON surface over the ledger and the surrounding CRUD.
// Authentication lives outside this service; the actor arrives as a header.
type API struct {
	log       *slog.Logger
	transfers *transfers.Service
	sessions  *sessions.Repo
	pools     *pools.Repo
	plantings *plantings.Repo
	harvests  *harvests.Repo
	feeds     *feeds.Repo
}

func NewAPI(
	log *slog.Logger,
	tr *transfers.Service,
	sr *sessions.Repo,
	pr *pools.Repo,
	plr *plantings.Repo,
	hr *harvests.Repo,
	fr *feeds.Repo,
) *API {
	return &API{
		log:       log,
		transfers: tr,
		sessions:  sr,
		pools:     pr,
		plantings: plr,
		harvests:  hr,
		feeds:     fr,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/transfers", a.createTransfer)
	mux.HandleFunc("GET /api/transfers", a.listTransfers)
	mux.HandleFunc("GET /api/transfers/{id}", a.getTransfer)
	mux.HandleFunc("POST /api/transfers/{id}/revert", a.revertTransfer)
	mux.HandleFunc("POST /api/transfers/preview", a.previewTransfer)

	mux.HandleFunc("GET /api/pools", a.listPools)
	mux.HandleFunc("POST /api/pools", a.createPool)
	mux.HandleFunc("GET /api/plantings", a.listPlantings)
	mux.HandleFunc("POST /api/plantings", a.createPlanting)
	mux.HandleFunc("GET /api/sessions", a.listSessions)
	mux.HandleFunc("POST /api/sessions", a.createSession)
	mux.HandleFunc("POST /api/sessions/{id}/complete", a.completeSession)
	mux.HandleFunc("POST /api/harvests", a.recordHarvest)
	mux.HandleFunc("POST /api/mortalities", a.recordMortality)
	mux.HandleFunc("GET /api/feeds", a.listFeeds)
	mux.HandleFunc("POST /api/feeds", a.createFeed)
	mux.HandleFunc("POST /api/feedings", a.recordFeeding)
}

func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", "invalid id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) writeErr(w http.ResponseWriter, err error) {
	var (
		ve *apperr.ValidationError
		de *apperr.DomainError
		ne *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Reason, "field": ve.Field})
	case errors.As(err, &de):
		writeJSON(w, http.StatusConflict, map[string]string{"error": de.Reason})
	case errors.As(err, &ne):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": ne.Error()})
	default:
		a.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("body", "invalid JSON")
	}
	return nil
}

/* Transfers */

func (a *API) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req transfers.CreateRequest
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	id, err := a.transfers.Create(r.Context(), req, actorID(r))
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *API) listTransfers(w http.ResponseWriter, r *http.Request) {
	out, err := a.transfers.List(r.Context())
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	t, err := a.transfers.Get(r.Context(), id)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) revertTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	if err := a.transfers.Revert(r.Context(), id, actorID(r)); err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reverted": true})
}

func (a *API) previewTransfer(w http.ResponseWriter, r *http.Request) {
	var req transfers.CreateRequest
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	p, err := a.transfers.PreviewTransfer(r.Context(), req)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

/* Pools */

func (a *API) listPools(w http.ResponseWriter, r *http.Request) {
	out, err := a.pools.List(r.Context(), r.URL.Query().Get("active") == "1")
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createPool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		VolumeM3 float64 `json:"volume_m3"`
	}
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	if req.Name == "" {
		a.writeErr(w, apperr.Validation("name", "required"))
		return
	}
	p, err := a.pools.Create(r.Context(), req.Name, req.VolumeM3)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

/* Plantings */

func (a *API) listPlantings(w http.ResponseWriter, r *http.Request) {
	out, err := a.plantings.List(r.Context())
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createPlanting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Breed string `json:"breed"`
	}
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	if req.Name == "" {
		a.writeErr(w, apperr.Validation("name", "required"))
		return
	}
	p, err := a.plantings.Create(r.Context(), req.Name, req.Breed)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

/* Sessions */

func (a *API) listSessions(w http.ResponseWriter, r *http.Request) {
	out, err := a.sessions.List(r.Context(), r.URL.Query().Get("open") == "1")
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PoolID     int64   `json:"pool_id"`
		PlantingID int64   `json:"planting_id"`
		BaseMass   float64 `json:"base_mass"`
		BaseCount  int64   `json:"base_count"`
		StartedAt  string  `json:"started_at"`
	}
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	startedAt, err := time.Parse("2006-01-02", req.StartedAt)
	if err != nil {
		a.writeErr(w, apperr.Validation("started_at", "expected YYYY-MM-DD"))
		return
	}
	if req.BaseMass < 0 || req.BaseCount < 0 {
		a.writeErr(w, apperr.Validation("base_mass", "must be >= 0"))
		return
	}
	s, err := a.sessions.Create(r.Context(), req.PoolID, req.PlantingID, req.BaseMass, req.BaseCount, startedAt)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (a *API) completeSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	if err := a.sessions.Complete(r.Context(), id); err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": true})
}

/* Removals */

func (a *API) recordHarvest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   int64   `json:"session_id"`
		Weight      float64 `json:"weight"`
		FishCount   int64   `json:"fish_count"`
		HarvestedAt string  `json:"harvested_at"`
	}
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	at, err := time.Parse("2006-01-02", req.HarvestedAt)
	if err != nil {
		a.writeErr(w, apperr.Validation("harvested_at", "expected YYYY-MM-DD"))
		return
	}
	if req.Weight <= 0 || req.FishCount <= 0 {
		a.writeErr(w, apperr.Validation("weight", "must be > 0"))
		return
	}
	id, err := a.harvests.RecordHarvest(r.Context(), req.SessionID, req.Weight, req.FishCount, at, actorID(r))
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *API) recordMortality(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID  int64   `json:"session_id"`
		Weight     float64 `json:"weight"`
		FishCount  int64   `json:"fish_count"`
		Cause      string  `json:"cause"`
		RecordedAt string  `json:"recorded_at"`
	}
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	at, err := time.Parse("2006-01-02", req.RecordedAt)
	if err != nil {
		a.writeErr(w, apperr.Validation("recorded_at", "expected YYYY-MM-DD"))
		return
	}
	if req.Weight <= 0 || req.FishCount <= 0 {
		a.writeErr(w, apperr.Validation("weight", "must be > 0"))
		return
	}
	id, err := a.harvests.RecordMortality(r.Context(), req.SessionID, req.Weight, req.FishCount, req.Cause, at, actorID(r))
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

/* Feeds */

func (a *API) listFeeds(w http.ResponseWriter, r *http.Request) {
	out, err := a.feeds.List(r.Context(), r.URL.Query().Get("active") == "1")
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createFeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string  `json:"name"`
		ProteinPct float64 `json:"protein_pct"`
	}
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	if req.Name == "" {
		a.writeErr(w, apperr.Validation("name", "required"))
		return
	}
	f, err := a.feeds.Create(r.Context(), req.Name, req.ProteinPct)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (a *API) recordFeeding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID int64   `json:"session_id"`
		FeedID    int64   `json:"feed_id"`
		AmountKg  float64 `json:"amount_kg"`
		FedAt     string  `json:"fed_at"`
	}
	if err := decode(r, &req); err != nil {
		a.writeErr(w, err)
		return
	}
	at, err := time.Parse("2006-01-02", req.FedAt)
	if err != nil {
		a.writeErr(w, apperr.Validation("fed_at", "expected YYYY-MM-DD"))
		return
	}
	if req.AmountKg <= 0 {
		a.writeErr(w, apperr.Validation("amount_kg", "must be > 0"))
		return
	}
	id, err := a.feeds.RecordFeeding(r.Context(), req.SessionID, req.FeedID, req.AmountKg, at, actorID(r))
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
