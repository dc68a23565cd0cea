package httpinterface

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *server) getConversation(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	conv, err := s.opts.ConversationSvc.GetConversation(
		r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "partner"), page,
	)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newConversationResponse(conv))
}
