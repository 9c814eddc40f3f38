package http

import (
	"errors"
	"net/http"

	"github.com/pylin/shelflife/internal/service"
	"github.com/pylin/shelflife/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrEntityNotFound: http.StatusNotFound,
	service.ErrUnknownKind:    http.StatusBadRequest,

	store.ErrQueueEntryNotFound: http.StatusNotFound,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
