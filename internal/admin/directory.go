package admin

import (
	"context"
	"errors"
	"sync"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

// BranchDirectory sipariş servisine fatura öneklerini verir. Önekler
// bellekte tutulur, şube güncellenince Forget çağrılır.
type BranchDirectory struct {
	DB *gorm.DB

	mu       sync.RWMutex
	prefixes map[uint]string
}

func NewBranchDirectory(db *gorm.DB) *BranchDirectory {
	return &BranchDirectory{DB: db, prefixes: map[uint]string{}}
}

func (d *BranchDirectory) InvoicePrefix(ctx context.Context, branchID uint) (string, error) {
	d.mu.RLock()
	p, ok := d.prefixes[branchID]
	d.mu.RUnlock()
	if ok {
		return p, nil
	}

	var b models.Branch
	err := d.DB.WithContext(ctx).Select("id", "invoice_prefix").First(&b, branchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.prefixes[branchID] = b.InvoicePrefix
	d.mu.Unlock()
	return b.InvoicePrefix, nil
}

func (d *BranchDirectory) Forget(branchID uint) {
	d.mu.Lock()
	delete(d.prefixes, branchID)
	d.mu.Unlock()
}
