package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Deal is the subset of a CRM deal record the widget needs.
type Deal struct {
	ID   string
	Name string
}

// LineItemRecord is a raw line item object before it is attributed to
// a deal.
type LineItemRecord struct {
	ID        string
	Name      string
	Quantity  float64
	UnitPrice float64
	Amount    float64
}

func getJSON(ctx context.Context, httpClient *http.Client, accessToken, u, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode, op); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// associations decodes the shared shape of v3 association listings.
type associations struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// CompanyDealIDs lists the deal ids associated with a company, in
// listing order.
func CompanyDealIDs(ctx context.Context, httpClient *http.Client, accessToken, companyID string) ([]string, error) {
	u := "https://api.hubapi.com/crm/v3/objects/companies/" + url.PathEscape(companyID) + "/associations/deals"
	var res associations
	if err := getJSON(ctx, httpClient, accessToken, u, "company deals listing", &res); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Results))
	for _, r := range res.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// GetDeal fetches a single deal record.
func GetDeal(ctx context.Context, httpClient *http.Client, accessToken, dealID string) (*Deal, error) {
	u := "https://api.hubapi.com/crm/v3/objects/deals/" + url.PathEscape(dealID)
	var res struct {
		ID         string `json:"id"`
		Properties struct {
			DealName string `json:"dealname"`
		} `json:"properties"`
	}
	if err := getJSON(ctx, httpClient, accessToken, u, "deal fetch", &res); err != nil {
		return nil, err
	}
	name := res.Properties.DealName
	if name == "" {
		name = "Unknown Deal"
	}
	return &Deal{ID: dealID, Name: name}, nil
}

// DealLineItemIDs lists the line item ids associated with a deal, in
// listing order.
func DealLineItemIDs(ctx context.Context, httpClient *http.Client, accessToken, dealID string) ([]string, error) {
	u := "https://api.hubapi.com/crm/v3/objects/deals/" + url.PathEscape(dealID) + "/associations/line_items"
	var res associations
	if err := getJSON(ctx, httpClient, accessToken, u, "deal line items listing", &res); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Results))
	for _, r := range res.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// GetLineItem fetches a single line item record.
func GetLineItem(ctx context.Context, httpClient *http.Client, accessToken, lineItemID string) (*LineItemRecord, error) {
	u := "https://api.hubapi.com/crm/v3/objects/line_items/" + url.PathEscape(lineItemID)
	var res struct {
		ID         string `json:"id"`
		Properties struct {
			Name     string    `json:"name"`
			Quantity flexFloat `json:"quantity"`
			Price    flexFloat `json:"price"`
			Amount   flexFloat `json:"amount"`
		} `json:"properties"`
	}
	if err := getJSON(ctx, httpClient, accessToken, u, "line item fetch", &res); err != nil {
		return nil, err
	}
	name := res.Properties.Name
	if name == "" {
		name = "Unknown Item"
	}
	return &LineItemRecord{
		ID:        lineItemID,
		Name:      name,
		Quantity:  float64(res.Properties.Quantity),
		UnitPrice: float64(res.Properties.Price),
		Amount:    float64(res.Properties.Amount),
	}, nil
}
