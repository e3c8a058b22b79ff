package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

type Entry struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Recorder vardiya ve sipariş servislerinin audit kaydı yazdığı arayüz.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type GormRecorder struct {
	DB *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{DB: db}
}

func (r *GormRecorder) Record(ctx context.Context, e Entry) error {
	log := ToLog(e)
	if err := r.DB.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

// ToLog Entry'yi tabloya yazılacak hale getirir. jsonb kolonları için boş
// string yerine "null" kullanılır.
func ToLog(e Entry) models.AuditLog {
	return models.AuditLog{
		BranchID:    e.BranchID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  marshalOrNull(e.Before),
		AfterData:   marshalOrNull(e.After),
	}
}

func marshalOrNull(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// Discard hiçbir şey yazmaz.
type Discard struct{}

func (Discard) Record(context.Context, Entry) error { return nil }
