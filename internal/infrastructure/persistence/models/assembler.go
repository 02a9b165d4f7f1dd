package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orderdash/backend/internal/domain/orders"
)

// OrderRecordSet is the flattened, insert-ready form of one canonical order:
// a parent row plus all related child rows. The parent ID is assigned at
// insert time and backfilled into the children, so the assembly itself stays
// a pure transformation.
type OrderRecordSet struct {
	Order       OrderModel
	Items       []OrderItemModel
	Shipping    *OrderShippingModel
	Notes       []OrderNoteModel
	Properties  []OrderPropertyModel
	Identifiers []OrderIdentifierModel
}

// AssembleOrderRecordSet converts a canonical order into its insertable
// record set. It never talks to the database and never fails: absent
// sub-records simply produce no child rows.
func AssembleOrderRecordSet(o *orders.CanonicalOrder) *OrderRecordSet {
	now := time.Now()

	set := &OrderRecordSet{
		Order: OrderModel{
			OrderNumber:      o.OrderNumber,
			Channel:          NormalizeChannel(o.Source),
			SubSource:        o.SubSource,
			ChannelReference: o.ChannelReference,
			Currency:         o.Currency,
			TotalCharge:      o.TotalCharge,
			PostageCost:      o.PostageCost,
			Tax:              o.Tax,
			ProfitMargin:     o.ProfitMargin,
			RemoteStatus:     o.Status,
			StatusText:       statusText(o),
			LocationID:       o.LocationID,
			IsPaid:           o.IsPaid,
			IsCancelled:      o.IsCancelled,
			IsParked:         o.IsParked,
			Marker:           o.Marker,
			NumItems:         o.NumItems,
			PaymentMethod:    o.PaymentMethod,
			ReceivedAt:       o.ReceivedAt,
			ProcessedAt:      o.ProcessedAt,
			PaidAt:           o.PaidAt,
			DespatchBy:       o.DespatchBy,
			RawData:          o.RawData,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
	if o.OrderID != "" {
		id := o.OrderID
		set.Order.ExternalOrderID = &id
	}

	for _, item := range o.Items {
		set.Items = append(set.Items, OrderItemModel{
			ID:           uuid.New(),
			SKU:          item.SKU,
			Title:        item.Title,
			Category:     item.Category,
			Quantity:     item.Quantity,
			UnitCost:     item.UnitCost,
			PricePerUnit: item.PricePerUnit,
			LineTotal:    item.LineTotal,
			CreatedAt:    now,
		})
	}

	if o.Shipping != nil {
		set.Shipping = &OrderShippingModel{
			ID:             uuid.New(),
			Vendor:         o.Shipping.Vendor,
			Service:        o.Shipping.Service,
			TrackingNumber: o.Shipping.TrackingNumber,
			Cost:           o.Shipping.Cost,
			Weight:         o.Shipping.Weight,
			CreatedAt:      now,
		}
	}

	for _, note := range o.Notes {
		set.Notes = append(set.Notes, OrderNoteModel{
			ID:         uuid.New(),
			Note:       note.Note,
			CreatedBy:  note.CreatedBy,
			IsInternal: note.IsInternal,
			NotedAt:    note.NotedAt,
			CreatedAt:  now,
		})
	}

	for _, prop := range o.ExtendedProperties {
		set.Properties = append(set.Properties, OrderPropertyModel{
			ID:        uuid.New(),
			Name:      prop.Name,
			Value:     prop.Value,
			Type:      prop.Type,
			CreatedAt: now,
		})
	}

	for _, ident := range o.Identifiers {
		set.Identifiers = append(set.Identifiers, OrderIdentifierModel{
			ID:        uuid.New(),
			Tag:       ident.Tag,
			Name:      ident.Name,
			CreatedAt: now,
		})
	}

	return set
}

// BackfillParentID stamps the parent order ID onto every child row. Called
// once the parent row's ID is known, before the child bulk inserts.
func (s *OrderRecordSet) BackfillParentID(orderID uuid.UUID) {
	s.Order.ID = orderID
	for i := range s.Items {
		s.Items[i].OrderID = orderID
	}
	if s.Shipping != nil {
		s.Shipping.OrderID = orderID
	}
	for i := range s.Notes {
		s.Notes[i].OrderID = orderID
	}
	for i := range s.Properties {
		s.Properties[i].OrderID = orderID
	}
	for i := range s.Identifiers {
		s.Identifiers[i].OrderID = orderID
	}
}

// ChildCount returns how many child rows the set will insert.
func (s *OrderRecordSet) ChildCount() int {
	n := len(s.Items) + len(s.Notes) + len(s.Properties) + len(s.Identifiers)
	if s.Shipping != nil {
		n++
	}
	return n
}

// NormalizeChannel lowercases a channel name and collapses whitespace to
// underscores so "Amazon FBA" and "amazon fba" land in the same bucket.
func NormalizeChannel(source string) string {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(s), "_")
}

// statusText derives the human status column. Processed wins over
// cancelled: a processed order went through fulfilment even if the channel
// later flagged it.
func statusText(o *orders.CanonicalOrder) string {
	switch {
	case o.IsProcessed():
		return "processed"
	case o.IsCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}
