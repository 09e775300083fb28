package api

import (
	"net/http"
	"strings"

	"tunebox/cmd/internal/audit"
)

func (h *Handler) record(r *http.Request, ev audit.Event) {
	ev.IP = ipString(clientIP(r, h.cfg.TrustProxy))
	ev.UserAgent = strings.TrimSpace(r.UserAgent())
	ev.At = h.now().UTC()
	h.audit.Record(r.Context(), ev)
}
