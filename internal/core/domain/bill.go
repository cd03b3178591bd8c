package domain

import (
	"encoding/json"
	"time"
)

// BillRecord is an inbound purchase-order record as delivered by the
// upstream pipeline. It is transient: constructed per pipeline event,
// translated, and discarded once the remote call completes.
//
// The vendor may be referenced by explicit ID, by vendor number, or by
// free-text name; resolution precedence is ID, then number, then fuzzy
// name lookup.
type BillRecord struct {
	ID           string `json:"id"`
	BillNumber   string `json:"billNum"`
	VendorID     string `json:"vendorId"`
	VendorNumber string `json:"vendorNum"`
	VendorName   string `json:"vendorName"`
	CreatedAt string `json:"createdAt"`
	Currency  string `json:"currency"`

	// TaxCode is part of the inbound shape but has no counterpart in
	// the remote order payload; per-line tax codes travel on the line
	// items instead.
	TaxCode string `json:"taxCode"`

	// LineItems is either a JSON array of line items or a JSON string
	// containing an encoded array; DecodeLineItems handles both.
	LineItems json.RawMessage `json:"lineItems"`
}

// LineItem is one ordered line of a BillRecord. ProductID is optional;
// when absent the product name is resolved against the remote item
// catalog before submission.
type LineItem struct {
	ProductID      string  `json:"productId"`
	ProductName    string  `json:"productName"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unitPrice"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxCode        string  `json:"taxCode"`
	Description    string  `json:"description"`
}

// DecodeLineItems returns the record's line items, decoding the
// string-encoded form when the upstream serialized the array twice.
// Only strict JSON is accepted.
func (b BillRecord) DecodeLineItems() ([]LineItem, error) {
	if len(b.LineItems) == 0 {
		return nil, nil
	}

	raw := b.LineItems
	// A leading quote means the array arrived as an encoded string.
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, &DecodeError{Field: "lineItems", Err: err}
		}
		raw = json.RawMessage(encoded)
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Field: "lineItems", Err: err}
	}
	return items, nil
}

// creationDateLayouts are the accepted inbound createdAt formats, tried
// in order.
var creationDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CreationDate parses the record's createdAt timestamp and returns it
// reformatted as YYYY-MM-DD for the remote API.
func (b BillRecord) CreationDate() (string, error) {
	var lastErr error
	for _, layout := range creationDateLayouts {
		t, err := time.Parse(layout, b.CreatedAt)
		if err == nil {
			return t.Format("2006-01-02"), nil
		}
		lastErr = err
	}
	return "", &DecodeError{Field: "createdAt", Err: lastErr}
}
