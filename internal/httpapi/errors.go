package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"medmatch/matching-service/internal/engine"
)

// writeError maps engine error kinds to HTTP statuses so the gateway never
// has to inspect free-text messages.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *engine.ValidationError
		notEligible   *engine.NotEligibleError
		illegal       *engine.IllegalTransitionError
		forbidden     *engine.ForbiddenError
		upstream      *engine.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		jsonError(w, validationErr.Msg, http.StatusBadRequest)
	case errors.Is(err, engine.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &forbidden):
		jsonError(w, forbidden.Error(), http.StatusForbidden)
	case errors.As(err, &notEligible):
		jsonError(w, notEligible.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &illegal):
		jsonError(w, illegal.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, engine.ErrDuplicateApplication):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, engine.ErrConcurrentAcceptConflict):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, engine.ErrAlreadyRated):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &upstream):
		jsonError(w, "upstream collaborator unavailable", http.StatusBadGateway)
	default:
		slog.Error("unhandled engine error", "err", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
