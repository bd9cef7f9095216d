package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dealglance/lineitems-backend/pkg/hubspot"
)

// crmFixture configures the fake CRM the fetcher talks to.
type crmFixture struct {
	graphqlStatus int // 0 serves a valid aggregated response
	dealsStatus   int // 0 serves the d1/d2 listing
	failDeals     map[string]bool

	graphqlCalls atomic.Int64
	restCalls    atomic.Int64
}

// Company "123" has deals d1 and d2: d1 one line item qty=2 price=100,
// d2 one line item qty=1 price=200.
func (f *crmFixture) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/crm/v3/objects/companies/graphql", func(w http.ResponseWriter, r *http.Request) {
		f.graphqlCalls.Add(1)
		if f.graphqlStatus != 0 {
			http.Error(w, "nope", f.graphqlStatus)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"CRM":{"company":{"associations":{"deals":{"items":[
			{"id":"d1","properties":{"dealname":"Deal One"},"associations":{"lineItems":{"items":[
				{"id":"li1","properties":{"name":"Widget","quantity":"2","price":"100.00","amount":"200.00"}}]}}},
			{"id":"d2","properties":{"dealname":"Deal Two"},"associations":{"lineItems":{"items":[
				{"id":"li2","properties":{"name":"Gadget","quantity":"1","price":"200.00","amount":"200.00"}}]}}}
		]}}}}}}`))
	})
	mux.HandleFunc("/crm/v3/objects/companies/123/associations/deals", func(w http.ResponseWriter, r *http.Request) {
		f.restCalls.Add(1)
		if f.dealsStatus != 0 {
			http.Error(w, "nope", f.dealsStatus)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"d1"},{"id":"d2"}]}`))
	})
	mux.HandleFunc("/crm/v3/objects/companies/empty/associations/deals", func(w http.ResponseWriter, r *http.Request) {
		f.restCalls.Add(1)
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	mux.HandleFunc("/crm/v3/objects/companies/missing/associations/deals", func(w http.ResponseWriter, r *http.Request) {
		f.restCalls.Add(1)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/crm/v3/objects/deals/", func(w http.ResponseWriter, r *http.Request) {
		f.restCalls.Add(1)
		switch r.URL.Path {
		case "/crm/v3/objects/deals/d1":
			if f.failDeals["d1"] {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"id":"d1","properties":{"dealname":"Deal One"}}`))
		case "/crm/v3/objects/deals/d1/associations/line_items":
			_, _ = w.Write([]byte(`{"results":[{"id":"li1"}]}`))
		case "/crm/v3/objects/deals/d2":
			if f.failDeals["d2"] {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"id":"d2","properties":{"dealname":"Deal Two"}}`))
		case "/crm/v3/objects/deals/d2/associations/line_items":
			_, _ = w.Write([]byte(`{"results":[{"id":"li2"}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/crm/v3/objects/line_items/", func(w http.ResponseWriter, r *http.Request) {
		f.restCalls.Add(1)
		switch r.URL.Path {
		case "/crm/v3/objects/line_items/li1":
			_, _ = w.Write([]byte(`{"id":"li1","properties":{"name":"Widget","quantity":"2","price":"100.00","amount":"200.00"}}`))
		case "/crm/v3/objects/line_items/li2":
			_, _ = w.Write([]byte(`{"id":"li2","properties":{"name":"Gadget","quantity":"1","price":"200.00","amount":"200.00"}}`))
		default:
			http.NotFound(w, r)
		}
	})
	return httptest.NewServer(mux)
}

func TestFetchLineItems_AggregatedPreferred(t *testing.T) {
	f := &crmFixture{}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	res, err := fetcher.FetchLineItems(context.Background(), "at", "123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Source != SourceAggregated {
		t.Fatalf("expected aggregated source, got %s", res.Source)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if n := f.restCalls.Load(); n != 0 {
		t.Fatalf("expected no REST calls on aggregated path, got %d", n)
	}
}

func TestFetchLineItems_FallbackUnion(t *testing.T) {
	f := &crmFixture{graphqlStatus: http.StatusInternalServerError}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	res, err := fetcher.FetchLineItems(context.Background(), "at", "123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %s", res.Source)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	// deal order preserved, amounts per the fixture
	first, second := res.Items[0], res.Items[1]
	if first.DealID != "d1" || first.DealName != "Deal One" || first.Quantity != 2 || first.UnitPrice != 100 || first.Amount != 200 {
		t.Fatalf("unexpected first item: %#v", first)
	}
	if second.DealID != "d2" || second.DealName != "Deal Two" || second.Quantity != 1 || second.UnitPrice != 200 || second.Amount != 200 {
		t.Fatalf("unexpected second item: %#v", second)
	}
	if len(res.PartialFailures) != 0 {
		t.Fatalf("expected no partial failures: %#v", res.PartialFailures)
	}
}

func TestFetchLineItems_NoDealsIsEmptyNotError(t *testing.T) {
	f := &crmFixture{graphqlStatus: http.StatusInternalServerError}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	res, err := fetcher.FetchLineItems(context.Background(), "at", "empty")
	if err != nil {
		t.Fatalf("expected empty result, got err: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", res.Items)
	}
}

func TestFetchLineItems_PartialFailureSkipsDeal(t *testing.T) {
	f := &crmFixture{
		graphqlStatus: http.StatusInternalServerError,
		failDeals:     map[string]bool{"d2": true},
	}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	res, err := fetcher.FetchLineItems(context.Background(), "at", "123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].DealID != "d1" {
		t.Fatalf("expected only d1's items, got %#v", res.Items)
	}
	if len(res.PartialFailures) != 1 || res.PartialFailures[0].DealID != "d2" {
		t.Fatalf("expected d2 recorded as partial failure, got %#v", res.PartialFailures)
	}
}

func TestFetchLineItems_AllDealsFail(t *testing.T) {
	f := &crmFixture{
		graphqlStatus: http.StatusInternalServerError,
		failDeals:     map[string]bool{"d1": true, "d2": true},
	}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	_, err := fetcher.FetchLineItems(context.Background(), "at", "123")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchLineItems_DealListingFails(t *testing.T) {
	f := &crmFixture{
		graphqlStatus: http.StatusInternalServerError,
		dealsStatus:   http.StatusInternalServerError,
	}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	_, err := fetcher.FetchLineItems(context.Background(), "at", "123")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchLineItems_UnauthorizedSkipsFallback(t *testing.T) {
	f := &crmFixture{graphqlStatus: http.StatusUnauthorized}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	_, err := fetcher.FetchLineItems(context.Background(), "at", "123")
	if !errors.Is(err, hubspot.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if n := f.restCalls.Load(); n != 0 {
		t.Fatalf("expected no fallback calls on rejected token, got %d", n)
	}
}

func TestFetchLineItems_UnknownCompany(t *testing.T) {
	f := &crmFixture{graphqlStatus: http.StatusInternalServerError}
	ts := f.server(t)
	defer ts.Close()

	fetcher := NewLineItemFetcher(fakeClient(t, ts))
	_, err := fetcher.FetchLineItems(context.Background(), "at", "missing")
	if !errors.Is(err, hubspot.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
