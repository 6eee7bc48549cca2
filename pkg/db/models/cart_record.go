package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
)

// CartRecord persists the session's active cart with derived totals.
type CartRecord struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID  string           `gorm:"column:session_id;not null;index"`
	Status     enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Currency   enums.Currency   `gorm:"column:currency;not null"`
	Subtotal   decimal.Decimal  `gorm:"column:subtotal;type:numeric;not null"`
	Total      decimal.Decimal  `gorm:"column:total;type:numeric;not null"`
	TotalItems int              `gorm:"column:total_items;not null"`
	Items      []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartRecord) TableName() string {
	return "cart_records"
}
