package httpinterface

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// streamEvents upgrades the connection to a websocket receiving the events
// of the caller's trades. Browsers can't set headers on websocket requests,
// so the token is also accepted as query param.
func (s *server) streamEvents(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		writeError(w, http.StatusUnauthorized, errMissingToken)
		return
	}
	address, err := parsePartyToken(s.opts.JWTSecret, raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	if err := s.opts.Hub.ServeWS(w, r, address); err != nil {
		// The upgrader already replied to the client.
		log.WithError(err).Debug("failed to upgrade stream connection")
	}
}
