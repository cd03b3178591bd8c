package zoho

// purchaseOrdersPath is the fixed submission endpoint.
const purchaseOrdersPath = "/purchaseorders"

// PurchaseOrderPayload is the remote-API-shaped representation of an
// inbound bill record. Built fresh per send, never cached.
type PurchaseOrderPayload struct {
	VendorID            string            `json:"vendor_id"`
	ReferenceNumber     string            `json:"reference_number"`
	PurchaseOrderNumber string            `json:"purchaseorder_number"`
	Date                string            `json:"date"`
	CurrencyCode        string            `json:"currency_code"`
	LineItems           []LineItemPayload `json:"line_items"`
}

// LineItemPayload is one translated purchase-order line.
type LineItemPayload struct {
	Name        string  `json:"name"`
	ItemID      string  `json:"item_id"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	TaxName     string  `json:"tax_name"`
	Description string  `json:"description"`
}
