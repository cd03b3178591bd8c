package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
)

// staticTokenProvider returns a fixed token without any refresh logic.
type staticTokenProvider struct {
	token string
}

func (p staticTokenProvider) Token(context.Context) (string, error) {
	return p.token, nil
}

func newTestClient(t *testing.T, srv *httptest.Server, creds domain.Credentials) *Client {
	t.Helper()
	return NewClient(creds, staticTokenProvider{token: "tok-123"}, WithBaseURL(srv.URL))
}

func TestPaginatedSearch_ThreePages(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/vendors", r.URL.Path)
		assert.Equal(t, "Acme", r.URL.Query().Get("company_name.contains"))
		assert.Equal(t, "Zoho-oauthtoken tok-123", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, `{"contacts":[{"contact_id":"V1","vendor_name":"Acme One"}],
				"page_context":{"page":1,"has_more_page":true}}`)
		case "2":
			fmt.Fprint(w, `{"contacts":[{"contact_id":"V2","vendor_name":"Acme Two"}],
				"page_context":{"page":2,"has_more_page":true}}`)
		case "3":
			fmt.Fprint(w, `{"contacts":[{"contact_id":"V3","vendor_name":"Acme Three"}],
				"page_context":{"page":3,"has_more_page":false}}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv, domain.Credentials{})
	records, err := client.PaginatedSearch(context.Background(), ResourceVendors, "Acme")

	require.NoError(t, err)
	assert.Equal(t, 3, requests, "exactly one request per page")

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.StringField("contact_id"))
	}
	assert.Equal(t, []string{"V1", "V2", "V3"}, ids, "records concatenated in page order")
}

func TestPaginatedSearch_SinglePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "Widget", r.URL.Query().Get("name.contains"))
		fmt.Fprint(w, `{"items":[{"item_id":"I1","name":"Widget"}],
			"page_context":{"page":1,"has_more_page":false}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, domain.Credentials{})
	records, err := client.PaginatedSearch(context.Background(), ResourceItems, "Widget")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "I1", records[0].StringField("item_id"))
}

func TestPaginatedSearch_OrganizationScope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-42", r.URL.Query().Get("organization_id"))
		fmt.Fprint(w, `{"contacts":[],"page_context":{"page":1,"has_more_page":false}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, domain.Credentials{OrganizationID: "org-42"})
	records, err := client.PaginatedSearch(context.Background(), ResourceVendors, "Acme")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPaginatedSearch_MissingCollectionKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"vendors":[],"page_context":{"page":1,"has_more_page":false}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, domain.Credentials{})
	_, err := client.PaginatedSearch(context.Background(), ResourceVendors, "Acme")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"contacts"`)
}

func TestPaginatedSearch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"code":500,"message":"internal error"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, domain.Credentials{})
	_, err := client.PaginatedSearch(context.Background(), ResourceVendors, "Acme")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "/vendors", apiErr.Path)
}

func TestPaginatedSearch_RateLimitedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, domain.Credentials{})
	_, err := client.PaginatedSearch(context.Background(), ResourceVendors, "Acme")

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestCreatePurchaseOrder(t *testing.T) {
	var got PurchaseOrderPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/purchaseorders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Zoho-oauthtoken tok-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"code":0,"message":"success"}`)
	}))
	defer srv.Close()

	payload := PurchaseOrderPayload{
		VendorID:            "V1",
		ReferenceNumber:     "rec-1",
		PurchaseOrderNumber: "B-42",
		Date:                "2023-05-17",
		CurrencyCode:        "USD",
		LineItems: []LineItemPayload{
			{Name: "Widget", ItemID: "I1", Quantity: 2, UnitPrice: 9.99},
		},
	}

	client := newTestClient(t, srv, domain.Credentials{})
	err := client.CreatePurchaseOrder(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCreatePurchaseOrder_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":4,"message":"vendor_id is invalid"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, domain.Credentials{})
	err := client.CreatePurchaseOrder(context.Background(), PurchaseOrderPayload{})

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "vendor_id is invalid")
}

func TestClient_RefreshesTokenAcrossExpiryBoundary(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	current := start
	clock := func() time.Time { return current }

	refreshes := 0
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		refreshes++
		fmt.Fprint(w, `{"access_token":"fresh","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	var authHeaders []string
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"contacts":[],"page_context":{"page":1,"has_more_page":false}}`)
	}))
	defer apiSrv.Close()

	store := &fakeStore{creds: domain.Credentials{
		AuthURL:     tokenSrv.URL,
		AccessToken: "stale",
		ExpiresAt:   start.Unix() + 300,
	}}
	auth := NewAuthenticator(store, domain.NewRunState(), WithClock(clock))
	client := NewClient(store.Credentials(), auth, WithBaseURL(apiSrv.URL))

	// First request: the stored token still has lifetime left.
	_, err := client.PaginatedSearch(context.Background(), ResourceVendors, "Acme")
	require.NoError(t, err)
	assert.Zero(t, refreshes)

	// The stored token expires while the run is in flight.
	current = start.Add(10 * time.Minute)

	_, err = client.PaginatedSearch(context.Background(), ResourceVendors, "Acme")
	require.NoError(t, err)
	assert.Equal(t, 1, refreshes, "exactly one refresh once the token went stale")

	require.Len(t, authHeaders, 2)
	assert.Equal(t, "Zoho-oauthtoken stale", authHeaders[0])
	assert.Equal(t, "Zoho-oauthtoken fresh", authHeaders[1])
	assert.Equal(t, "fresh", store.Credentials().AccessToken, "rotated state persisted")
}

func TestNewClient_BaseURLFromCredentials(t *testing.T) {
	client := NewClient(domain.Credentials{AccountsServer: "https://accounts.zoho.eu"},
		staticTokenProvider{token: "tok"})
	assert.Equal(t, "https://inventory.zoho.eu/api/v1", client.baseURL)
}
