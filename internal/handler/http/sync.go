package http

import (
	"net/http"

	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/utils"
	"github.com/pylin/shelflife/models"
)

type pendingResponse struct {
	Items  []models.QueueEntry `json:"items"`
	Length int                 `json:"length"`
}

type pruneResponse struct {
	Pruned int64 `json:"pruned"`
}

func (h *Handler) syncReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	report, err := h.services.Sync.Report(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.syncReport").Msg("error building sync report")
		http.Error(w, "error building sync report", statusFromError(err))
		return
	}

	utils.WriteJSON(w, report, http.StatusOK)
}

func (h *Handler) syncPending(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	items, err := h.services.Sync.PendingItems(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.syncPending").Msg("error listing pending entries")
		http.Error(w, "error listing pending entries", statusFromError(err))
		return
	}

	utils.WriteJSON(w, pendingResponse{Items: items, Length: len(items)}, http.StatusOK)
}

func (h *Handler) syncExport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	snapshot, err := h.services.Sync.ExportPending(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.syncExport").Msg("error exporting pending entries")
		http.Error(w, "error exporting pending entries", statusFromError(err))
		return
	}

	utils.WriteJSON(w, snapshot, http.StatusOK)
}

func (h *Handler) syncResolve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	id, err := idFromRequest(r)
	if err != nil {
		http.Error(w, "invalid queue entry id", http.StatusBadRequest)
		return
	}

	if err = h.services.Sync.MarkSynced(r.Context(), id); err != nil {
		log.Err(err).Str("func", "*Handler.syncResolve").Int64("id", id).Msg("error resolving queue entry")
		http.Error(w, "error resolving queue entry", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) syncPrune(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	pruned, err := h.services.Sync.PruneResolved(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.syncPrune").Msg("error pruning resolved entries")
		http.Error(w, "error pruning resolved entries", statusFromError(err))
		return
	}

	utils.WriteJSON(w, pruneResponse{Pruned: pruned}, http.StatusOK)
}
