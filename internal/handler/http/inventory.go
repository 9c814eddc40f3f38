package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/utils"
	"github.com/pylin/shelflife/models"
)

// entityResponse is a single entity plus its derived sync outcome, so the
// shell can tell "saved and mirrored" from "saved locally, mirror pending"
// without a second round trip.
type entityResponse struct {
	models.Entity
	SyncState models.SyncState `json:"syncState"`
}

func newEntityResponse(e models.Entity) entityResponse {
	return entityResponse{Entity: e, SyncState: e.SyncState()}
}

// kindFromRequest resolves the {kind} url param. The collection segment uses
// the plural form for subscriptions.
func kindFromRequest(r *http.Request) (models.Kind, bool) {
	switch chi.URLParam(r, "kind") {
	case "food":
		return models.KindFood, true
	case "subscriptions":
		return models.KindSubscription, true
	default:
		return "", false
	}
}

func idFromRequest(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) readAll(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	kind, ok := kindFromRequest(r)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	entities, err := h.services.Inventory.GetAll(r.Context(), kind)
	if err != nil {
		log.Err(err).Str("func", "*Handler.readAll").Msg("error listing entities")
		http.Error(w, "error listing entities", statusFromError(err))
		return
	}

	utils.WriteJSON(w, entities, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	kind, ok := kindFromRequest(r)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	var draft models.Entity
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		log.Err(err).Str("func", "*Handler.create").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	created, err := h.services.Inventory.Create(r.Context(), kind, draft)
	if err != nil {
		log.Err(err).Str("func", "*Handler.create").Msg("error creating entity")
		http.Error(w, "error creating entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, newEntityResponse(created), http.StatusCreated)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	kind, ok := kindFromRequest(r)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	id, err := idFromRequest(r)
	if err != nil {
		http.Error(w, "invalid entity id", http.StatusBadRequest)
		return
	}

	entity, err := h.services.Inventory.Get(r.Context(), kind, id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.read").Int64("id", id).Msg("error reading entity")
		http.Error(w, "error reading entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, newEntityResponse(entity), http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	kind, ok := kindFromRequest(r)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	id, err := idFromRequest(r)
	if err != nil {
		http.Error(w, "invalid entity id", http.StatusBadRequest)
		return
	}

	var patch models.EntityPatch
	if err = json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Err(err).Str("func", "*Handler.update").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	updated, err := h.services.Inventory.Update(r.Context(), kind, id, patch)
	if err != nil {
		log.Err(err).Str("func", "*Handler.update").Int64("id", id).Msg("error updating entity")
		http.Error(w, "error updating entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, newEntityResponse(updated), http.StatusOK)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	kind, ok := kindFromRequest(r)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	id, err := idFromRequest(r)
	if err != nil {
		http.Error(w, "invalid entity id", http.StatusBadRequest)
		return
	}

	removed, err := h.services.Inventory.Delete(r.Context(), kind, id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.remove").Int64("id", id).Msg("error deleting entity")
		http.Error(w, "error deleting entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, newEntityResponse(removed), http.StatusOK)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	kind, ok := kindFromRequest(r)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	matched, err := h.services.Inventory.Search(r.Context(), kind, r.URL.Query().Get("q"))
	if err != nil {
		log.Err(err).Str("func", "*Handler.search").Msg("error searching entities")
		http.Error(w, "error searching entities", statusFromError(err))
		return
	}

	utils.WriteJSON(w, matched, http.StatusOK)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	kind, ok := kindFromRequest(r)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	stats, err := h.services.Inventory.Stats(r.Context(), kind)
	if err != nil {
		log.Err(err).Str("func", "*Handler.stats").Msg("error aggregating stats")
		http.Error(w, "error aggregating stats", statusFromError(err))
		return
	}

	utils.WriteJSON(w, stats, http.StatusOK)
}
