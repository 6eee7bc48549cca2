package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
	"github.com/peykantravel/peykan-storefront/pkg/types"
)

// CartItem persists one tagged-union line item tied to a CartRecord.
// Exactly one of the detail columns is populated, matching Kind.
type CartItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID             `gorm:"column:cart_id;type:uuid;not null;index"`
	Kind           enums.ProductKind     `gorm:"column:kind;not null"`
	ProductID      string                `gorm:"column:product_id;not null"`
	Title          string                `gorm:"column:title;not null"`
	UnitPrice      decimal.Decimal       `gorm:"column:unit_price;type:numeric;not null"`
	Currency       enums.Currency        `gorm:"column:currency;not null"`
	Quantity       int                   `gorm:"column:quantity;not null"`
	Image          *string               `gorm:"column:image"`
	Duration       *string               `gorm:"column:duration"`
	Location       *string               `gorm:"column:location"`
	Date           *string               `gorm:"column:date"`
	Time           *string               `gorm:"column:time"`
	VariantName    *string               `gorm:"column:variant_name"`
	TourDetail     *types.TourDetail     `gorm:"column:tour_detail;type:jsonb;serializer:json"`
	EventDetail    *types.EventDetail    `gorm:"column:event_detail;type:jsonb;serializer:json"`
	TransferDetail *types.TransferDetail `gorm:"column:transfer_detail;type:jsonb;serializer:json"`
	Subtotal       decimal.Decimal       `gorm:"column:subtotal;type:numeric;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
