package zoho

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
	"github.com/custodia-labs/zoho-inventory-sink/internal/fuzzy"
	"github.com/custodia-labs/zoho-inventory-sink/internal/logger"
)

// Name resolution runs the fuzzy matcher over the remote candidates
// with these fixed parameters: only the single best match is wanted and
// it must be at least 80% similar.
const (
	matchCutoff     = 0.8
	matchMaxResults = 1
)

// Sink translates inbound bill records into purchase-order payloads and
// submits them. Processing is all-or-nothing per record: any resolution
// or transport failure aborts the record before the POST.
type Sink struct {
	client *Client
	state  *domain.RunState

	// resolved caches name lookups for the lifetime of one run. Every
	// run starts cold, so cached IDs never outlive a pipeline
	// invocation.
	resolved map[string]string
}

// NewSink creates a sink over the given API client.
func NewSink(client *Client, state *domain.RunState) *Sink {
	return &Sink{
		client:   client,
		state:    state,
		resolved: make(map[string]string),
	}
}

// ProcessRecord translates one bill record and posts it as a purchase
// order. The record is discarded afterwards regardless of outcome.
func (s *Sink) ProcessRecord(ctx context.Context, record domain.BillRecord) error {
	vendorID, err := s.vendorID(ctx, record)
	if err != nil {
		return err
	}

	lines, err := record.DecodeLineItems()
	if err != nil {
		return err
	}

	date, err := record.CreationDate()
	if err != nil {
		return err
	}

	lineItems := make([]LineItemPayload, 0, len(lines))
	for _, line := range lines {
		translated, err := s.translateLine(ctx, line)
		if err != nil {
			return err
		}
		lineItems = append(lineItems, translated)
	}

	payload := PurchaseOrderPayload{
		VendorID:            vendorID,
		ReferenceNumber:     record.ID,
		PurchaseOrderNumber: record.BillNumber,
		Date:                date,
		CurrencyCode:        record.Currency,
		LineItems:           lineItems,
	}

	return s.client.CreatePurchaseOrder(ctx, payload)
}

// vendorID resolves the record's vendor reference. An explicit ID wins,
// then the vendor number, then a fuzzy lookup of the free-text name.
func (s *Sink) vendorID(ctx context.Context, record domain.BillRecord) (string, error) {
	if record.VendorID != "" {
		return record.VendorID, nil
	}
	if record.VendorNumber != "" {
		return record.VendorNumber, nil
	}
	if record.VendorName != "" {
		return s.resolveEntity(ctx, ResourceVendors, "vendor", record.VendorName)
	}
	return "", nil
}

// translateLine maps one inbound line item to its payload shape,
// resolving the item ID from the product name when absent.
func (s *Sink) translateLine(ctx context.Context, line domain.LineItem) (LineItemPayload, error) {
	itemID := line.ProductID
	if itemID == "" {
		resolved, err := s.resolveEntity(ctx, ResourceItems, "item", line.ProductName)
		if err != nil {
			return LineItemPayload{}, err
		}
		itemID = resolved
	}

	return LineItemPayload{
		Name:        line.ProductName,
		ItemID:      itemID,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		Discount:    line.DiscountAmount,
		TaxName:     line.TaxCode,
		Description: line.Description,
	}, nil
}

// resolveEntity finds the remote entity whose display name best matches
// the free-text name: paginated substring search, fuzzy top-1 at the
// cutoff over the display names, then the first record carrying the
// matched name. No match above the cutoff is a NotFoundError.
func (s *Sink) resolveEntity(ctx context.Context, res Resource, kind, name string) (string, error) {
	cacheKey := kind + "\x00" + strings.ToLower(strings.TrimSpace(name))
	if id, ok := s.resolved[cacheKey]; ok {
		logger.Debug("resolved %s %q from run cache", kind, name)
		return id, nil
	}

	records, err := s.client.PaginatedSearch(ctx, res, name)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.StringField(res.NameField))
	}

	matches, err := fuzzy.BestMatches(name, names, matchMaxResults, matchCutoff)
	if err != nil {
		return "", fmt.Errorf("match %s %q: %w", kind, name, err)
	}
	if len(matches) == 0 {
		return "", &NotFoundError{Kind: kind, Query: name}
	}

	for _, r := range records {
		if r.StringField(res.NameField) == matches[0].Candidate {
			id := r.StringField(res.IDField)
			s.resolved[cacheKey] = id
			logger.Debug("resolved %s %q to id %s (score %.3f)", kind, name, id, matches[0].Score)
			return id, nil
		}
	}

	// The matched name always originates from records; reaching here
	// means the remote returned inconsistent data.
	return "", &NotFoundError{Kind: kind, Query: name}
}
