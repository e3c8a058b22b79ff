package orders

import (
	"context"
	"errors"
	"time"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// NextInvoiceSeq şube sayacını tek sorguda artırır.
func (s *GormStore) NextInvoiceSeq(ctx context.Context, branchID uint) (int64, error) {
	var last int64
	err := s.DB.WithContext(ctx).Raw(`
		INSERT INTO invoice_sequences (branch_id, last) VALUES (?, 1)
		ON CONFLICT (branch_id) DO UPDATE SET last = invoice_sequences.last + 1
		RETURNING last`, branchID).Scan(&last).Error
	return last, err
}

// Create kalemler ve ödemelerle birlikte tek transaction'da yazar.
func (s *GormStore) Create(ctx context.Context, o *models.Order) error {
	return s.DB.WithContext(ctx).Create(o).Error
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.DB.WithContext(ctx).Preload("Items").Preload("Payments").First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *GormStore) List(ctx context.Context, f Filter) ([]models.Order, error) {
	dbq := s.DB.WithContext(ctx).Model(&models.Order{}).Where("branch_id = ?", f.BranchID)
	if f.From != nil {
		dbq = dbq.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		dbq = dbq.Where("date <= ?", *f.To)
	}
	if f.Status != "" {
		dbq = dbq.Where("status = ?", f.Status)
	}
	if f.Cancelled != nil {
		dbq = dbq.Where("cancelled = ?", *f.Cancelled)
	}
	if f.Limit > 0 {
		dbq = dbq.Limit(f.Limit)
	}

	var list []models.Order
	if err := dbq.Preload("Items").Preload("Payments").
		Order("date DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) UpdateState(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now()
	return s.DB.WithContext(ctx).Model(o).
		Select("cancelled", "cancelled_at", "cancel_reason", "on_hold", "held_at", "updated_at").
		Updates(o).Error
}

func (s *GormStore) ReplacePayments(ctx context.Context, o *models.Order) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderPayment{}).Error; err != nil {
			return err
		}
		for i := range o.Payments {
			o.Payments[i].ID = 0
			o.Payments[i].OrderID = o.ID
		}
		if len(o.Payments) > 0 {
			if err := tx.Create(&o.Payments).Error; err != nil {
				return err
			}
		}

		o.UpdatedAt = time.Now()
		return tx.Model(o).Select("received", "change", "due", "status", "updated_at").
			Updates(o).Error
	})
}
