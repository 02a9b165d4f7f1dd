package orders

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Field alias tables
// ---------------------------------------------------------------------------

// The remote system has shipped at least three naming schemes for the same
// logical order fields: the current nested shape ("GeneralInfo.ReceivedDate"),
// a legacy Hungarian-prefixed flat shape ("dReceivedDate"), and a plain flat
// shape ("ReceivedDate"). Each logical field resolves through an ordered
// alias list, first match wins; new upstream shapes are additive here.
var (
	orderIDAliases      = []string{"OrderId", "pkOrderID", "pkOrderId", "OrderID"}
	orderNumberAliases  = []string{"NumOrderId", "nOrderId", "OrderNumber"}
	receivedDateAliases = []string{"GeneralInfo.ReceivedDate", "dReceivedDate", "ReceivedDate"}
	processedAtAliases  = []string{"GeneralInfo.ProcessedDateTime", "dProcessedOn", "ProcessedDateTime"}
	processedFlgAliases = []string{"Processed", "bProcessed", "GeneralInfo.Processed"}
	sourceAliases       = []string{"GeneralInfo.Source", "Source", "cSource"}
	subSourceAliases    = []string{"GeneralInfo.SubSource", "SubSource"}
	currencyAliases     = []string{"TotalsInfo.Currency", "cCurrency", "Currency"}
	totalChargeAliases  = []string{"TotalsInfo.TotalCharge", "fTotalCharge", "TotalCharge"}
	postageCostAliases  = []string{"TotalsInfo.PostageCost", "fPostageCost", "PostageCost"}
	taxAliases          = []string{"TotalsInfo.Tax", "fTax", "Tax"}
	profitMarginAliases = []string{"TotalsInfo.ProfitMargin", "ProfitMargin"}
	statusAliases       = []string{"GeneralInfo.Status", "nStatus", "Status"}
	locationAliases     = []string{"FulfilmentLocationId", "GeneralInfo.LocationId", "LocationId"}
	paidDateAliases     = []string{"GeneralInfo.PaidDateTime", "dPaidOn", "PaidDateTime"}
	cancelledAliases    = []string{"GeneralInfo.Cancelled", "bCancelled", "Cancelled"}
	channelRefAliases   = []string{"GeneralInfo.SecondaryReference", "ChannelReferenceNumber", "ReferenceNum"}
	markerAliases       = []string{"GeneralInfo.Marker", "Marker"}
	parkedAliases       = []string{"GeneralInfo.IsParked", "IsParked", "bParked"}
	despatchByAliases   = []string{"GeneralInfo.DespatchByDate", "dDespatchBy", "DespatchByDate"}
	paymentAliases      = []string{"TotalsInfo.PaymentMethod", "PaymentMethod"}
	itemsAliases        = []string{"Items", "OrderItems"}
	shippingAliases     = []string{"ShippingInfo", "Shipping"}
	notesAliases        = []string{"Notes", "OrderNotes"}
	propertiesAliases   = []string{"ExtendedProperties", "Properties"}
	identifiersAliases  = []string{"Identifiers", "Tags"}
)

// Item-level aliases.
var (
	itemSKUAliases      = []string{"SKU", "ItemNumber", "ChannelSKU"}
	itemTitleAliases    = []string{"Title", "ItemTitle"}
	itemCategoryAliases = []string{"CategoryName", "Category"}
	itemQtyAliases      = []string{"Quantity", "nQty", "Qty"}
	itemCostAliases     = []string{"UnitCost", "fUnitCost"}
	itemPriceAliases    = []string{"PricePerUnit", "fPricePerUnit", "Price"}
	itemTotalAliases    = []string{"CostIncTax", "LineTotal"}
)

// Shipping-level aliases.
var (
	shipVendorAliases   = []string{"Vendor", "ShippingVendor"}
	shipServiceAliases  = []string{"PostalServiceName", "ServiceName", "Service"}
	shipTrackingAliases = []string{"TrackingNumber", "TrackingNumbers"}
	shipCostAliases     = []string{"PostageCost", "Cost"}
	shipWeightAliases   = []string{"TotalWeight", "Weight"}
)

// Note-level aliases.
var (
	noteTextAliases     = []string{"Note", "Message", "NoteText"}
	noteByAliases       = []string{"CreatedBy", "NoteEnteredBy"}
	noteInternalAliases = []string{"Internal", "IsInternal"}
	noteDateAliases     = []string{"NoteDate", "CreatedDate"}
)

// dateLayouts are the timestamp formats observed across remote responses.
// Parsing failures are swallowed: a malformed date resolves to nil.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

// Normalize converts one loosely-typed remote order payload into a
// CanonicalOrder. It is pure and total: missing or malformed fields degrade
// to zero values and nils, never to an error. Identity validity (identifier
// or number present) is checked by the caller, not here.
func Normalize(raw RawOrder) *CanonicalOrder {
	o := &CanonicalOrder{
		OrderID:          stringField(raw, orderIDAliases),
		OrderNumber:      intField(raw, orderNumberAliases),
		ReceivedAt:       timeField(raw, receivedDateAliases),
		Source:           stringField(raw, sourceAliases),
		SubSource:        stringField(raw, subSourceAliases),
		Currency:         stringField(raw, currencyAliases),
		TotalCharge:      decimalField(raw, totalChargeAliases),
		PostageCost:      decimalField(raw, postageCostAliases),
		Tax:              decimalField(raw, taxAliases),
		ProfitMargin:     decimalField(raw, profitMarginAliases),
		LocationID:       stringField(raw, locationAliases),
		PaidAt:           timeField(raw, paidDateAliases),
		IsCancelled:      boolField(raw, cancelledAliases),
		ChannelReference: stringField(raw, channelRefAliases),
		IsParked:         boolField(raw, parkedAliases),
		DespatchBy:       timeField(raw, despatchByAliases),
		PaymentMethod:    stringField(raw, paymentAliases),
	}

	if n := intField(raw, statusAliases); n != nil {
		o.Status = int(*n)
	}
	if n := intField(raw, markerAliases); n != nil {
		marker := int(*n)
		o.Marker = &marker
	}

	// Processed timestamp: explicit processed date wins; otherwise an
	// explicit "is processed" boolean falls back to the received timestamp
	// as a best-effort processed time.
	o.ProcessedAt = timeField(raw, processedAtAliases)
	if o.ProcessedAt == nil && boolField(raw, processedFlgAliases) && o.ReceivedAt != nil {
		t := *o.ReceivedAt
		o.ProcessedAt = &t
	}

	o.IsPaid = o.PaidAt != nil || o.Status == StatusPaid

	o.Items = normalizeItems(raw)
	if len(o.Items) > 0 {
		total := 0
		for _, item := range o.Items {
			total += item.Quantity
		}
		o.NumItems = &total
	}

	o.Shipping = normalizeShipping(raw)
	o.Notes = normalizeNotes(raw)
	o.ExtendedProperties = normalizeProperties(raw)
	o.Identifiers = normalizeIdentifiers(raw)

	if data, err := json.Marshal(raw); err == nil {
		o.RawData = string(data)
	}

	return o
}

func normalizeItems(raw RawOrder) []CanonicalOrderItem {
	entries := listField(raw, itemsAliases)
	if len(entries) == 0 {
		return nil
	}
	items := make([]CanonicalOrderItem, 0, len(entries))
	for _, entry := range entries {
		item := CanonicalOrderItem{
			SKU:          stringField(entry, itemSKUAliases),
			Title:        stringField(entry, itemTitleAliases),
			Category:     stringField(entry, itemCategoryAliases),
			UnitCost:     decimalField(entry, itemCostAliases),
			PricePerUnit: decimalField(entry, itemPriceAliases),
			LineTotal:    decimalField(entry, itemTotalAliases),
		}
		if n := intField(entry, itemQtyAliases); n != nil {
			item.Quantity = int(*n)
		}
		items = append(items, item)
	}
	return items
}

func normalizeShipping(raw RawOrder) *ShippingDetail {
	entry, ok := mapField(raw, shippingAliases)
	if !ok {
		return nil
	}
	return &ShippingDetail{
		Vendor:         stringField(entry, shipVendorAliases),
		Service:        stringField(entry, shipServiceAliases),
		TrackingNumber: stringField(entry, shipTrackingAliases),
		Cost:           decimalField(entry, shipCostAliases),
		Weight:         decimalField(entry, shipWeightAliases),
	}
}

func normalizeNotes(raw RawOrder) []OrderNote {
	entries := listField(raw, notesAliases)
	if len(entries) == 0 {
		return nil
	}
	notes := make([]OrderNote, 0, len(entries))
	for _, entry := range entries {
		notes = append(notes, OrderNote{
			Note:       stringField(entry, noteTextAliases),
			CreatedBy:  stringField(entry, noteByAliases),
			IsInternal: boolField(entry, noteInternalAliases),
			NotedAt:    timeField(entry, noteDateAliases),
		})
	}
	return notes
}

func normalizeProperties(raw RawOrder) []ExtendedProperty {
	entries := listField(raw, propertiesAliases)
	if len(entries) == 0 {
		return nil
	}
	props := make([]ExtendedProperty, 0, len(entries))
	for _, entry := range entries {
		props = append(props, ExtendedProperty{
			Name:  stringField(entry, []string{"Name", "PropertyName"}),
			Value: stringField(entry, []string{"Value", "PropertyValue"}),
			Type:  stringField(entry, []string{"Type", "PropertyType"}),
		})
	}
	return props
}

func normalizeIdentifiers(raw RawOrder) []OrderIdentifier {
	entries := listField(raw, identifiersAliases)
	if len(entries) == 0 {
		return nil
	}
	ids := make([]OrderIdentifier, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, OrderIdentifier{
			Tag:  stringField(entry, []string{"Tag"}),
			Name: stringField(entry, []string{"Name"}),
		})
	}
	return ids
}

// ---------------------------------------------------------------------------
// Alias resolution
// ---------------------------------------------------------------------------

// lookup resolves the first alias present in the payload. Dotted aliases
// descend nested maps one level per segment.
func lookup(raw map[string]any, aliases []string) (any, bool) {
	for _, alias := range aliases {
		value, ok := lookupPath(raw, alias)
		if ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func lookupPath(raw map[string]any, path string) (any, bool) {
	current := raw
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		value, ok := current[segment]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

func stringField(raw map[string]any, aliases []string) string {
	value, ok := lookup(raw, aliases)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func intField(raw map[string]any, aliases []string) *int64 {
	value, ok := lookup(raw, aliases)
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case float64:
		n := int64(v)
		return &n
	case int:
		n := int64(v)
		return &n
	case int64:
		return &v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return &n
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func decimalField(raw map[string]any, aliases []string) decimal.Decimal {
	value, ok := lookup(raw, aliases)
	if !ok {
		return decimal.Zero
	}
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func boolField(raw map[string]any, aliases []string) bool {
	value, ok := lookup(raw, aliases)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case float64:
		return v != 0
	default:
		return false
	}
}

func timeField(raw map[string]any, aliases []string) *time.Time {
	value, ok := lookup(raw, aliases)
	if !ok {
		return nil
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// The remote reports zero dates for "not set".
			if t.Year() <= 1 {
				return nil
			}
			return &t
		}
	}
	return nil
}

func listField(raw map[string]any, aliases []string) []map[string]any {
	value, ok := lookup(raw, aliases)
	if !ok {
		return nil
	}
	entries, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func mapField(raw map[string]any, aliases []string) (map[string]any, bool) {
	value, ok := lookup(raw, aliases)
	if !ok {
		return nil, false
	}
	m, ok := value.(map[string]any)
	return m, ok
}
