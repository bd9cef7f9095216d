package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/dealglance/lineitems-backend/pkg/hubspot"
)

// webhookEvent is the subset of a HubSpot webhook notification we log.
type webhookEvent struct {
	EventID          int64  `json:"eventId"`
	SubscriptionType string `json:"subscriptionType"`
	ObjectID         int64  `json:"objectId"`
	PortalID         int64  `json:"portalId"`
}

// webhook verifies the request signature over the raw body before any
// processing. Mismatch is rejected with 401 and the payload is ignored.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	signature := r.Header.Get("X-HubSpot-Signature-V3")
	if !hubspot.VerifySignature(h.cfg.WebhookSecret, body, signature) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var events []webhookEvent
	if err := json.Unmarshal(body, &events); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	for _, ev := range events {
		log.Printf("webhook: portal=%d type=%s object=%d event=%d", ev.PortalID, ev.SubscriptionType, ev.ObjectID, ev.EventID)
	}
	w.WriteHeader(http.StatusNoContent)
}
