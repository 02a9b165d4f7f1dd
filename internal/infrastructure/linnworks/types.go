package linnworks

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// authResponse is the payload returned by AuthorizeByApplication.
type authResponse struct {
	Token    string `json:"Token"`
	Server   string `json:"Server"`
	TTL      int    `json:"Ttl"`
	UserName string `json:"UserName,omitempty"`
	UserID   string `json:"Id,omitempty"`
}

// expiresAt converts the TTL into an absolute expiry. Sessions without an
// explicit TTL are assumed to live for one hour.
func (r *authResponse) expiresAt(now time.Time) time.Time {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = 3600
	}
	return now.Add(time.Duration(ttl) * time.Second)
}

// OpenOrdersViewStats reports how many orders a saved view currently holds.
type OpenOrdersViewStats struct {
	TotalOrders int `json:"TotalOrders"`
	TotalPages  int `json:"TotalPages"`
}

// OpenOrdersPage is one page of a saved open-orders view. Order rows are kept
// as raw maps so schema drift between accounts never fails a fetch.
type OpenOrdersPage struct {
	PageNumber     int              `json:"PageNumber"`
	EntriesPerPage int              `json:"EntriesPerPage"`
	TotalEntries   int              `json:"TotalEntries"`
	TotalPages     int              `json:"TotalPages"`
	Data           []map[string]any `json:"Data"`
}

// processedOrdersEnvelope wraps the processed-orders search result.
type processedOrdersEnvelope struct {
	ProcessedOrders ProcessedOrdersPage `json:"ProcessedOrders"`
}

type ProcessedOrdersPage struct {
	PageNumber     int              `json:"PageNumber"`
	EntriesPerPage int              `json:"EntriesPerPage"`
	TotalEntries   int              `json:"TotalEntries"`
	TotalPages     int              `json:"TotalPages"`
	Data           []map[string]any `json:"Data"`
}

// OpenOrdersWindow optionally bounds an open-orders page by receipt date.
// The zero value applies no date filter and pages the whole view.
type OpenOrdersWindow struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the window carries no bound at all.
func (w OpenOrdersWindow) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// ProcessedOrderFilter bounds a processed-orders search. From and To are
// required; every other field narrows the search and is left out of the
// request when empty.
type ProcessedOrderFilter struct {
	From time.Time
	To   time.Time

	Channel   string
	Status    string
	Reference string
	SKU       string
	Tag       string
	MinValue  *decimal.Decimal
	MaxValue  *decimal.Decimal

	PageNumber int
	PageSize   int
}

// applySearch serializes the narrowing fields onto the request params,
// omitting every empty field.
func (f ProcessedOrderFilter) applySearch(params url.Values) {
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("channel", f.Channel)
	set("status", f.Status)
	set("reference", f.Reference)
	set("sku", f.SKU)
	set("tag", f.Tag)
	if f.MinValue != nil {
		params.Set("minOrderValue", f.MinValue.String())
	}
	if f.MaxValue != nil {
		params.Set("maxOrderValue", f.MaxValue.String())
	}
}
