package httpinterface

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nftswap/swapd/internal/core/application/pubsub"
	"github.com/samber/lo"
)

func (s *server) addWebhook(w http.ResponseWriter, r *http.Request) {
	req := webhookRequest{}
	if err := decodeRequest(r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	id, err := s.opts.WebhookSvc.AddWebhook(r.Context(), req.Topic, req.Endpoint, req.Secret)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *server) listWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.opts.WebhookSvc.ListWebhooks(r.Context(), r.URL.Query().Get("topic"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"webhooks": lo.Map(hooks, func(info pubsub.WebhookInfo, _ int) webhookResponse {
			return newWebhookResponse(info)
		}),
	})
}

func (s *server) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.WebhookSvc.RemoveWebhook(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
