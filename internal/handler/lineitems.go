package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	mid "github.com/dealglance/lineitems-backend/internal/middleware"
	"github.com/dealglance/lineitems-backend/internal/service"
	"github.com/dealglance/lineitems-backend/pkg/hubspot"
)

// lineItemsResponse is the widget-facing payload.
type lineItemsResponse struct {
	CompanyID       string                `json:"company_id"`
	Source          service.FetchSource   `json:"source"`
	LineItems       []hubspot.LineItem    `json:"line_items"`
	PartialFailures []service.DealFailure `json:"partial_failures,omitempty"`
}

// companyLineItems returns the line items across a company's deals.
// 401 means the widget must trigger re-authorization; 502 means the
// upstream fetch failed entirely and a retry may succeed.
func (h *Handler) companyLineItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := chi.URLParam(r, "companyID")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company id missing")
		return
	}
	portalID := mid.PortalID(r)

	token, err := h.manager.ValidToken(ctx, portalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrRefreshRejected):
			writeError(w, http.StatusUnauthorized, "no valid session, please reconnect")
		default:
			log.Printf("companyLineItems: token refresh failed: %v", err)
			writeError(w, http.StatusBadGateway, "authorization server unavailable")
		}
		return
	}

	result, err := h.fetcher.FetchLineItems(ctx, token, companyID)
	if err != nil {
		switch {
		case errors.Is(err, hubspot.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "token rejected, please reconnect")
		case errors.Is(err, hubspot.ErrNotFound):
			writeError(w, http.StatusNotFound, "company not found")
		default:
			log.Printf("companyLineItems: fetch failed for company %s: %v", companyID, err)
			writeError(w, http.StatusBadGateway, "failed to fetch line items")
		}
		return
	}

	writeJSON(w, http.StatusOK, lineItemsResponse{
		CompanyID:       companyID,
		Source:          result.Source,
		LineItems:       result.Items,
		PartialFailures: result.PartialFailures,
	})
}
