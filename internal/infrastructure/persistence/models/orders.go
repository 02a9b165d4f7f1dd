package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderdash/backend/internal/domain/orders"
)

// OrderModel is the persistence model for a canonical order. The two remote
// keys each carry a partial unique index; either may be absent, but never
// both, and the indexes are the last line of defence against duplicate
// ingestion.
type OrderModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	ExternalOrderID  *string         `gorm:"type:varchar(64);uniqueIndex:uq_orders_external_id"`
	OrderNumber      *int64          `gorm:"uniqueIndex:uq_orders_order_number"`
	Channel          string          `gorm:"type:varchar(50);not null;index"`
	SubSource        string          `gorm:"type:varchar(100)"`
	ChannelReference string          `gorm:"type:varchar(100);index"`
	Currency         string          `gorm:"type:varchar(3)"`
	TotalCharge      decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	PostageCost      decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	Tax              decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	ProfitMargin     decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	RemoteStatus     int             `gorm:"not null;default:0"`
	StatusText       string          `gorm:"type:varchar(20);not null;index"`
	LocationID       string          `gorm:"type:varchar(64)"`
	IsPaid           bool            `gorm:"not null;default:false"`
	IsCancelled      bool            `gorm:"not null;default:false"`
	IsParked         bool            `gorm:"not null;default:false"`
	Marker           *int            ``
	NumItems         *int            ``
	PaymentMethod    string          `gorm:"type:varchar(100)"`
	ReceivedAt       *time.Time      `gorm:"index"`
	ProcessedAt      *time.Time      `gorm:"index"`
	PaidAt           *time.Time      ``
	DespatchBy       *time.Time      ``
	RawData          string          `gorm:"type:jsonb"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one persisted order line.
type OrderItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU          string          `gorm:"type:varchar(100);index"`
	Title        string          `gorm:"type:varchar(255)"`
	Category     string          `gorm:"type:varchar(100)"`
	Quantity     int             `gorm:"not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderShippingModel is the optional shipping sub-record of an order.
type OrderShippingModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Vendor         string          `gorm:"type:varchar(100)"`
	Service        string          `gorm:"type:varchar(100)"`
	TrackingNumber string          `gorm:"type:varchar(100);index"`
	Cost           decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	Weight         decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderShippingModel) TableName() string {
	return "order_shipping"
}

// OrderNoteModel is one persisted order note.
type OrderNoteModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Note       string     `gorm:"type:text"`
	CreatedBy  string     `gorm:"type:varchar(100)"`
	IsInternal bool       `gorm:"not null;default:false"`
	NotedAt    *time.Time ``
	CreatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderNoteModel) TableName() string {
	return "order_notes"
}

// OrderPropertyModel is one persisted channel key/value property.
type OrderPropertyModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Value     string    `gorm:"type:text"`
	Type      string    `gorm:"type:varchar(50)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderPropertyModel) TableName() string {
	return "order_properties"
}

// OrderIdentifierModel is one persisted channel tag.
type OrderIdentifierModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Tag       string    `gorm:"type:varchar(100);not null"`
	Name      string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderIdentifierModel) TableName() string {
	return "order_identifiers"
}

// ToDomain converts the persistence model back to a canonical order.
// Related records are mapped by the repository, which loads them separately.
func (m *OrderModel) ToDomain() *orders.CanonicalOrder {
	o := &orders.CanonicalOrder{
		OrderNumber:      m.OrderNumber,
		ReceivedAt:       m.ReceivedAt,
		ProcessedAt:      m.ProcessedAt,
		Source:           m.Channel,
		SubSource:        m.SubSource,
		Currency:         m.Currency,
		TotalCharge:      m.TotalCharge,
		PostageCost:      m.PostageCost,
		Tax:              m.Tax,
		ProfitMargin:     m.ProfitMargin,
		Status:           m.RemoteStatus,
		LocationID:       m.LocationID,
		IsPaid:           m.IsPaid,
		PaidAt:           m.PaidAt,
		IsCancelled:      m.IsCancelled,
		ChannelReference: m.ChannelReference,
		Marker:           m.Marker,
		IsParked:         m.IsParked,
		DespatchBy:       m.DespatchBy,
		NumItems:         m.NumItems,
		PaymentMethod:    m.PaymentMethod,
		RawData:          m.RawData,
	}
	if m.ExternalOrderID != nil {
		o.OrderID = *m.ExternalOrderID
	}
	return o
}
