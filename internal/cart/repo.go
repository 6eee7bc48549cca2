package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peykantravel/peykan-storefront/pkg/db/models"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
)

// Repository persists cart records and their items per session.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveBySession loads the session's active cart with its items.
// Returns (nil, nil) when the session has no active cart yet.
func (r *Repository) FindActiveBySession(ctx context.Context, sessionID string) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("session_id = ? AND status = ?", sessionID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Create inserts a new cart record.
func (r *Repository) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	for idx := range record.Items {
		if record.Items[idx].ID == uuid.Nil {
			record.Items[idx].ID = uuid.New()
		}
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update saves the record's scalar columns.
func (r *Repository) Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ReplaceItems atomically replaces the items of the provided cart.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for idx := range items {
		items[idx].CartID = cartID
		if items[idx].ID == uuid.Nil {
			items[idx].ID = uuid.New()
		}
	}
	return tx.Create(&items).Error
}

// UpdateStatus flips the cart's lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

// DeleteBySession drops the session's active cart and its items.
func (r *Repository) DeleteBySession(ctx context.Context, sessionID string) error {
	record, err := r.FindActiveBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", record.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.CartRecord{}, "id = ?", record.ID).Error
}
