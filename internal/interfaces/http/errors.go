package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nftswap/swapd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusForError maps the error categories to http status codes. The order
// matters, an incomplete deposit is checked before the other categories.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrIncompleteDeposit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes the response for an error returned by a service.
// Unexpected errors are logged and hidden from the caller.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, status, errors.New("internal error"))
		return
	}
	log.WithError(err).WithField("path", r.URL.Path).Debug("request rejected")
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}
