package http

import (
	"net/http"

	"github.com/pylin/shelflife/internal/utils"
)

type sessionResponse struct {
	Online bool `json:"online"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, sessionResponse{Online: h.services.Bootstrap.Online()}, http.StatusOK)
}
