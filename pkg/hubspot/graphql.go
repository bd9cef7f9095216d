package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// companyLineItemsQuery traverses company -> deals -> line items in a
// single round trip.
const companyLineItemsQuery = `
query GetCompanyLineItems($companyId: ID!) {
  CRM {
    company(uniqueIdentifier: $companyId) {
      associations {
        deals {
          items {
            id
            properties {
              dealname
            }
            associations {
              lineItems {
                items {
                  id
                  properties {
                    name
                    quantity
                    price
                    amount
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// flexFloat decodes a JSON number that HubSpot may serialize as either
// a bare number or a quoted string property value.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// CompanyLineItemsGraphQL fetches all line items across a company's
// deals with one aggregated GraphQL query. Any GraphQL-level error
// (errors array in the response) is returned as an error so callers
// can fall back to the REST path.
func CompanyLineItemsGraphQL(ctx context.Context, httpClient *http.Client, accessToken, companyID string) ([]LineItem, error) {
	payload := map[string]any{
		"query":     companyLineItemsQuery,
		"variables": map[string]string{"companyId": companyID},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.hubapi.com/crm/v3/objects/companies/graphql", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode, "graphql query"); err != nil {
		return nil, err
	}

	var shape struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Data struct {
			CRM struct {
				Company struct {
					Associations struct {
						Deals struct {
							Items []struct {
								ID         string `json:"id"`
								Properties struct {
									DealName string `json:"dealname"`
								} `json:"properties"`
								Associations struct {
									LineItems struct {
										Items []struct {
											ID         string `json:"id"`
											Properties struct {
												Name     string    `json:"name"`
												Quantity flexFloat `json:"quantity"`
												Price    flexFloat `json:"price"`
												Amount   flexFloat `json:"amount"`
											} `json:"properties"`
										} `json:"items"`
									} `json:"lineItems"`
								} `json:"associations"`
							} `json:"items"`
						} `json:"deals"`
					} `json:"associations"`
				} `json:"company"`
			} `json:"CRM"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&shape); err != nil {
		return nil, err
	}
	if len(shape.Errors) > 0 {
		return nil, fmt.Errorf("graphql errors: %s", shape.Errors[0].Message)
	}

	out := []LineItem{}
	for _, deal := range shape.Data.CRM.Company.Associations.Deals.Items {
		dealName := deal.Properties.DealName
		if dealName == "" {
			dealName = "Unknown Deal"
		}
		for _, li := range deal.Associations.LineItems.Items {
			name := li.Properties.Name
			if name == "" {
				name = "Unknown Item"
			}
			out = append(out, LineItem{
				DealID:    deal.ID,
				DealName:  dealName,
				Name:      name,
				Quantity:  float64(li.Properties.Quantity),
				UnitPrice: float64(li.Properties.Price),
				Amount:    float64(li.Properties.Amount),
			})
		}
	}
	return out, nil
}
