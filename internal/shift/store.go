package shift

import (
	"context"
	"errors"
	"time"

	"restoran-pos/internal/models"
)

var (
	// ErrDayAlreadyClosed günün gün sonu kaydı zaten var.
	ErrDayAlreadyClosed = errors.New("gün zaten kapatılmış")
	// ErrNothingToClose gün sonu kaydı yok ama kapatılacak open/closed vardiya da yok.
	ErrNothingToClose   = errors.New("kapatılacak vardiya yok")
	ErrShiftAlreadyOpen = errors.New("şubede açık vardiya zaten var")
	ErrNoOpenShift      = errors.New("açık vardiya bulunamadı")
)

type Filter struct {
	BranchID uint
	From     *time.Time
	To       *time.Time
	Status   models.ShiftStatus
}

// DayCloseBatch tek bir gün sonu işleminde yazılacaklar. Records, önceki
// günlerden devreden vardiyaların tarihleri için de kayıt içerebilir.
type DayCloseBatch struct {
	BranchID uint
	UpTo     time.Time
	At       time.Time
	Records  []*models.DayClose
}

// Store vardiya ve gün sonu kayıtlarının kalıcı katmanı.
type Store interface {
	// OpenShift yoksa ErrNoOpenShift döner.
	OpenShift(ctx context.Context, branchID uint) (*models.Shift, error)
	LastShiftNo(ctx context.Context, branchID uint) (int, error)
	// CreateShift şubede açık vardiya varsa ErrShiftAlreadyOpen döner.
	CreateShift(ctx context.Context, s *models.Shift) error
	UpdateShift(ctx context.Context, s *models.Shift) error
	ListShifts(ctx context.Context, f Filter) ([]models.Shift, error)

	// PendingShifts upTo dahil o güne kadarki open/closed vardiyalar,
	// start_date ve shift_no sırasıyla.
	PendingShifts(ctx context.Context, branchID uint, upTo time.Time) ([]models.Shift, error)
	// CloseDay gün sonu kayıtlarını ekler ve batch.UpTo'ya kadarki open/closed
	// vardiyaları day-close yapar. Hepsi ya yazılır ya hiçbiri; etkilenen
	// vardiya yoksa ErrNothingToClose, kayıt zaten varsa ErrDayAlreadyClosed.
	CloseDay(ctx context.Context, batch DayCloseBatch) (int, error)
	// FindDayClose kayıt yoksa nil, nil döner.
	FindDayClose(ctx context.Context, branchID uint, date time.Time) (*models.DayClose, error)
}
