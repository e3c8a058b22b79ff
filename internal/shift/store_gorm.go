package shift

import (
	"context"
	"errors"
	"time"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

var pendingStatuses = []string{string(models.ShiftStatusOpen), string(models.ShiftStatusClosed)}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) OpenShift(ctx context.Context, branchID uint) (*models.Shift, error) {
	var sh models.Shift
	err := s.DB.WithContext(ctx).
		Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
		First(&sh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenShift
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *GormStore) LastShiftNo(ctx context.Context, branchID uint) (int, error) {
	var n int
	err := s.DB.WithContext(ctx).Model(&models.Shift{}).
		Select("COALESCE(MAX(shift_no), 0)").
		Where("branch_id = ?", branchID).
		Scan(&n).Error
	return n, err
}

func (s *GormStore) CreateShift(ctx context.Context, sh *models.Shift) error {
	err := s.DB.WithContext(ctx).Create(sh).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrShiftAlreadyOpen
	}
	return err
}

func (s *GormStore) UpdateShift(ctx context.Context, sh *models.Shift) error {
	return s.DB.WithContext(ctx).Save(sh).Error
}

func (s *GormStore) ListShifts(ctx context.Context, f Filter) ([]models.Shift, error) {
	dbq := s.DB.WithContext(ctx).Model(&models.Shift{}).Where("branch_id = ?", f.BranchID)
	if f.From != nil {
		dbq = dbq.Where("start_date >= ?", *f.From)
	}
	if f.To != nil {
		dbq = dbq.Where("start_date <= ?", *f.To)
	}
	if f.Status != "" {
		dbq = dbq.Where("status = ?", f.Status)
	}

	var shifts []models.Shift
	if err := dbq.Order("start_date asc, shift_no asc").Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *GormStore) PendingShifts(ctx context.Context, branchID uint, upTo time.Time) ([]models.Shift, error) {
	var shifts []models.Shift
	err := s.DB.WithContext(ctx).
		Where("branch_id = ? AND start_date <= ? AND status IN ?", branchID, upTo, pendingStatuses).
		Order("start_date asc, shift_no asc").
		Find(&shifts).Error
	return shifts, err
}

func (s *GormStore) CloseDay(ctx context.Context, b DayCloseBatch) (int, error) {
	var n int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range b.Records {
			if err := tx.Create(rec).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDayAlreadyClosed
				}
				return err
			}
		}

		res := tx.Model(&models.Shift{}).
			Where("branch_id = ? AND start_date <= ? AND status IN ?", b.BranchID, b.UpTo, pendingStatuses).
			Updates(map[string]any{
				"status":         models.ShiftStatusDayClose,
				"day_close_time": b.At,
				"end_time":       gorm.Expr("COALESCE(end_time, ?)", b.At),
				"updated_at":     b.At,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNothingToClose
		}
		n = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *GormStore) FindDayClose(ctx context.Context, branchID uint, date time.Time) (*models.DayClose, error) {
	var rec models.DayClose
	err := s.DB.WithContext(ctx).
		Where("branch_id = ? AND date = ?", branchID, date).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
