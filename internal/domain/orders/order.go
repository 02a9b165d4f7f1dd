package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Remote order status codes
// ---------------------------------------------------------------------------

// Numeric status codes used by the remote order-management API.
const (
	// StatusUnpaid indicates the order has not been paid yet
	StatusUnpaid = 0
	// StatusPaid indicates payment has been received
	StatusPaid = 1
	// StatusReturn indicates the order is a return
	StatusReturn = 2
	// StatusPending indicates the order is held pending
	StatusPending = 3
	// StatusResend indicates the order is a resend
	StatusResend = 4
)

// RawOrder is a loosely-typed order payload as returned by the remote
// system. The same logical order may arrive in several historical shapes;
// the Normalizer reconciles them into a CanonicalOrder.
type RawOrder map[string]any

// ---------------------------------------------------------------------------
// CanonicalOrder
// ---------------------------------------------------------------------------

// CanonicalOrder is the normalized, schema-independent representation of
// one remote order. Instances are created fresh per fetch by the Normalizer
// and never mutated in place.
type CanonicalOrder struct {
	// OrderID is the remote-assigned order identifier (empty when absent)
	OrderID string
	// OrderNumber is the remote numeric order number (nil when absent)
	OrderNumber *int64
	// ReceivedAt is when the order was received on the channel
	ReceivedAt *time.Time
	// ProcessedAt is when the order was processed; nil means not processed
	ProcessedAt *time.Time
	// Source is the sales channel (e.g. "EBAY", "AMAZON")
	Source string
	// SubSource is the channel sub-account
	SubSource string
	// Currency is the ISO currency code
	Currency string
	// TotalCharge is the total amount charged to the buyer
	TotalCharge decimal.Decimal
	// PostageCost is the shipping charge
	PostageCost decimal.Decimal
	// Tax is the total tax amount
	Tax decimal.Decimal
	// ProfitMargin is the remote-reported profit margin
	ProfitMargin decimal.Decimal
	// Status is the remote numeric status code
	Status int
	// LocationID identifies the fulfilment location
	LocationID string
	// IsPaid is derived: paid timestamp present OR status equals StatusPaid
	IsPaid bool
	// PaidAt is when payment was received
	PaidAt *time.Time
	// IsCancelled indicates the order was cancelled on the channel
	IsCancelled bool
	// ChannelReference is the channel-side reference number
	ChannelReference string
	// Marker is the remote marker code
	Marker *int
	// IsParked indicates the order is parked
	IsParked bool
	// DespatchBy is the despatch-by deadline
	DespatchBy *time.Time
	// NumItems is the sum of item quantities; nil when no items were present
	NumItems *int
	// PaymentMethod is the payment method name
	PaymentMethod string
	// Items are the ordered line items
	Items []CanonicalOrderItem
	// Shipping is the optional shipping sub-record
	Shipping *ShippingDetail
	// Notes are free-form order notes
	Notes []OrderNote
	// ExtendedProperties are channel key/value properties
	ExtendedProperties []ExtendedProperty
	// Identifiers are channel tags attached to the order
	Identifiers []OrderIdentifier
	// RawData is the original payload (JSON), kept for failure snapshots
	RawData string
}

// HasIdentity reports whether the order carries at least one of the two
// authoritative remote keys. Orders without identity are rejected by the
// orchestrator, never by the Normalizer.
func (o *CanonicalOrder) HasIdentity() bool {
	return o.OrderID != "" || o.OrderNumber != nil
}

// IsProcessed reports whether a processed timestamp could be resolved.
func (o *CanonicalOrder) IsProcessed() bool {
	return o.ProcessedAt != nil
}

// ---------------------------------------------------------------------------
// CanonicalOrderItem
// ---------------------------------------------------------------------------

// CanonicalOrderItem is one normalized order line. Derived money values are
// computed on demand and never stored redundantly.
type CanonicalOrderItem struct {
	SKU          string
	Title        string
	Category     string
	Quantity     int
	UnitCost     decimal.Decimal
	PricePerUnit decimal.Decimal
	LineTotal    decimal.Decimal
}

// LineValue returns the line's sale value: the explicit line total when the
// remote provided one, otherwise price-per-unit times quantity.
func (i CanonicalOrderItem) LineValue() decimal.Decimal {
	if !i.LineTotal.IsZero() {
		return i.LineTotal
	}
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Profit returns line value minus total unit cost.
func (i CanonicalOrderItem) Profit() decimal.Decimal {
	cost := i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return i.LineValue().Sub(cost)
}

// ProfitMarginPercent returns profit as a percentage of line value, or zero
// when the line has no value.
func (i CanonicalOrderItem) ProfitMarginPercent() decimal.Decimal {
	value := i.LineValue()
	if value.IsZero() {
		return decimal.Zero
	}
	return i.Profit().Div(value).Mul(decimal.NewFromInt(100))
}

// ---------------------------------------------------------------------------
// Related sub-records
// ---------------------------------------------------------------------------

// ShippingDetail is the optional shipping sub-record of an order.
type ShippingDetail struct {
	Vendor         string
	Service        string
	TrackingNumber string
	Cost           decimal.Decimal
	Weight         decimal.Decimal
}

// OrderNote is a free-form note attached to an order.
type OrderNote struct {
	Note       string
	CreatedBy  string
	IsInternal bool
	NotedAt    *time.Time
}

// ExtendedProperty is a loosely-typed key/value property from the channel.
type ExtendedProperty struct {
	Name  string
	Value string
	Type  string
}

// OrderIdentifier is a channel tag attached to an order.
type OrderIdentifier struct {
	Tag  string
	Name string
}
