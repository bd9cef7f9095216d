package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/dealglance/lineitems-backend/pkg/hubspot"
)

// ErrUpstreamUnavailable: both the aggregated query and the REST
// fallback failed, or every deal in the fallback failed.
var ErrUpstreamUnavailable = errors.New("fetch: upstream unavailable")

// FetchSource tags which retrieval path produced a result.
type FetchSource string

const (
	SourceAggregated FetchSource = "aggregated"
	SourceFallback   FetchSource = "fallback"
)

// DealFailure records one deal skipped during the fallback path.
type DealFailure struct {
	DealID string `json:"deal_id"`
	Reason string `json:"reason"`
}

// FetchResult is the tagged outcome of a line-items fetch.
type FetchResult struct {
	Source          FetchSource        `json:"source"`
	Items           []hubspot.LineItem `json:"items"`
	PartialFailures []DealFailure      `json:"partial_failures,omitempty"`
}

// LineItemFetcher retrieves the line items attached to a company's
// deals, preferring one aggregated GraphQL round trip and falling back
// to sequential REST calls.
type LineItemFetcher struct {
	client *http.Client
}

func NewLineItemFetcher(client *http.Client) *LineItemFetcher {
	return &LineItemFetcher{client: client}
}

// FetchLineItems runs the two-step pipeline. A rejected token aborts
// immediately (hubspot.ErrUnauthorized) since the fallback would be
// rejected the same way; any other primary failure triggers the
// fallback. An unknown company surfaces hubspot.ErrNotFound. Items are
// ordered by deal listing order, then line-item listing order within
// each deal.
func (f *LineItemFetcher) FetchLineItems(ctx context.Context, accessToken, companyID string) (*FetchResult, error) {
	items, err := hubspot.CompanyLineItemsGraphQL(ctx, f.client, accessToken, companyID)
	if err == nil {
		return &FetchResult{Source: SourceAggregated, Items: items}, nil
	}
	if errors.Is(err, hubspot.ErrUnauthorized) {
		return nil, err
	}
	log.Printf("fetch: aggregated query failed, using fallback: %v", err)
	return f.fetchFallback(ctx, accessToken, companyID, err)
}

func (f *LineItemFetcher) fetchFallback(ctx context.Context, accessToken, companyID string, primaryErr error) (*FetchResult, error) {
	dealIDs, err := hubspot.CompanyDealIDs(ctx, f.client, accessToken, companyID)
	if err != nil {
		if errors.Is(err, hubspot.ErrUnauthorized) || errors.Is(err, hubspot.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: primary: %v; fallback: %v", ErrUpstreamUnavailable, primaryErr, err)
	}

	res := &FetchResult{Source: SourceFallback, Items: []hubspot.LineItem{}}
	if len(dealIDs) == 0 {
		return res, nil
	}

	failed := 0
	for _, dealID := range dealIDs {
		items, err := f.dealLineItems(ctx, accessToken, dealID)
		if err != nil {
			if errors.Is(err, hubspot.ErrUnauthorized) {
				return nil, err
			}
			res.PartialFailures = append(res.PartialFailures, DealFailure{DealID: dealID, Reason: err.Error()})
			failed++
			continue
		}
		res.Items = append(res.Items, items...)
	}
	if failed == len(dealIDs) {
		return nil, fmt.Errorf("%w: all %d deals failed", ErrUpstreamUnavailable, failed)
	}
	return res, nil
}

// dealLineItems resolves one deal's name and line items. A failing
// line-item record is skipped; a failing deal or listing call fails
// the whole deal.
func (f *LineItemFetcher) dealLineItems(ctx context.Context, accessToken, dealID string) ([]hubspot.LineItem, error) {
	deal, err := hubspot.GetDeal(ctx, f.client, accessToken, dealID)
	if err != nil {
		return nil, err
	}
	ids, err := hubspot.DealLineItemIDs(ctx, f.client, accessToken, dealID)
	if err != nil {
		return nil, err
	}

	out := make([]hubspot.LineItem, 0, len(ids))
	for _, id := range ids {
		rec, err := hubspot.GetLineItem(ctx, f.client, accessToken, id)
		if err != nil {
			if errors.Is(err, hubspot.ErrUnauthorized) {
				return nil, err
			}
			log.Printf("fetch: skipping line item %s of deal %s: %v", id, dealID, err)
			continue
		}
		out = append(out, hubspot.LineItem{
			DealID:    dealID,
			DealName:  deal.Name,
			Name:      rec.Name,
			Quantity:  rec.Quantity,
			UnitPrice: rec.UnitPrice,
			Amount:    rec.Amount,
		})
	}
	return out, nil
}
