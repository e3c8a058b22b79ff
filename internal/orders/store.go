package orders

import (
	"context"
	"errors"
	"time"

	"restoran-pos/internal/models"
)

var (
	ErrNotFound         = errors.New("sipariş bulunamadı")
	ErrCancelled        = errors.New("sipariş iptal edilmiş")
	ErrAlreadyCancelled = errors.New("sipariş zaten iptal edilmiş")
	ErrNotMealPlan      = errors.New("bekletme sadece meal_plan siparişlerinde kullanılabilir")
	ErrAlreadyOnHold    = errors.New("sipariş zaten beklemede")
	ErrNotOnHold        = errors.New("sipariş beklemede değil")
	ErrInvalidOrder     = errors.New("geçersiz sipariş")
)

type Filter struct {
	BranchID  uint
	From      *time.Time
	To        *time.Time
	Status    models.OrderStatus
	Cancelled *bool
	Limit     int
}

// Store siparişlerin kalıcı katmanı. Get/List kalemleri ve ödemeleri de
// yükler.
type Store interface {
	NextInvoiceSeq(ctx context.Context, branchID uint) (int64, error)
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, f Filter) ([]models.Order, error)
	// UpdateState iptal ve bekletme alanlarını yazar.
	UpdateState(ctx context.Context, o *models.Order) error
	// ReplacePayments ödemeleri tamamen değiştirir ve tahsilat alanlarını yazar.
	ReplacePayments(ctx context.Context, o *models.Order) error
}
