// Package zoho implements the Zoho Inventory connector: OAuth token
// lifecycle against the Zoho accounts service, paginated entity search,
// and purchase-order submission.
package zoho

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
)

// Default endpoints for the .com region.
const (
	defaultAPIBase = "https://inventory.zoho.com/api/v1"
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	defaultTokenEndpoint = "https://accounts.zoho.com/oauth/v2/token"
)

// Resource describes one searchable remote collection. The table below
// is the single place where per-resource naming quirks live; notably
// Zoho models vendors as contacts, so the vendor collection key differs
// from its path.
type Resource struct {
	// Path is the API path of the list endpoint.
	Path string

	// FilterField is the substring-match query parameter.
	FilterField string

	// CollectionKey is the response key holding the record array.
	CollectionKey string

	// NameField is the record key holding the display name.
	NameField string

	// IDField is the record key holding the entity identifier.
	IDField string
}

// Searchable resources.
var (
	ResourceVendors = Resource{
		Path:          "/vendors",
		FilterField:   "company_name.contains",
		CollectionKey: "contacts",
		NameField:     "vendor_name",
		IDField:       "contact_id",
	}

	ResourceItems = Resource{
		Path:          "/items",
		FilterField:   "name.contains",
		CollectionKey: "items",
		NameField:     "name",
		IDField:       "item_id",
	}
)

// APIBase derives the regional inventory API base URL from the
// credential document. The trailing DNS label of accounts-server picks
// the region (accounts.zoho.eu -> inventory.zoho.eu); anything absent
// or unparseable falls back to the .com host.
func APIBase(creds domain.Credentials) string {
	region := accountsRegion(creds.AccountsServer)
	if region == "" {
		return defaultAPIBase
	}
	return fmt.Sprintf("https://inventory.zoho.%s/api/v1", region)
}

// TokenEndpoint derives the OAuth token endpoint: an absolute auth_url
// override wins, then the regional accounts server, then the .com
// default. Invalid overrides fall back rather than fail.
func TokenEndpoint(creds domain.Credentials) string {
	if isAbsoluteURL(creds.AuthURL) {
		return creds.AuthURL
	}
	if isAbsoluteURL(creds.AccountsServer) {
		return strings.TrimRight(creds.AccountsServer, "/") + "/oauth/v2/token"
	}
	return defaultTokenEndpoint
}

// accountsRegion extracts the trailing DNS label from an accounts
// server URL, e.g. "https://accounts.zoho.eu" -> "eu".
func accountsRegion(accountsServer string) string {
	if !isAbsoluteURL(accountsServer) {
		return ""
	}
	u, err := url.Parse(accountsServer)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	idx := strings.LastIndex(host, ".")
	if idx < 0 || idx == len(host)-1 {
		return ""
	}
	return host[idx+1:]
}

// isAbsoluteURL reports whether s parses as a URL with both a scheme
// and a host.
func isAbsoluteURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
