package audit

import (
	"context"
	"testing"

	"restoran-pos/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestToLog(t *testing.T) {
	branchID := uint(4)
	log := ToLog(Entry{
		BranchID:    &branchID,
		UserID:      9,
		UserName:    "Ayşe",
		EntityType:  "order",
		EntityID:    12,
		Action:      models.AuditActionCreate,
		Description: "Sipariş oluşturuldu",
		After:       map[string]any{"invoice_no": "INV-4-000012"},
	})

	assert.Equal(t, "null", log.BeforeData)
	assert.JSONEq(t, `{"invoice_no":"INV-4-000012"}`, log.AfterData)
	assert.Equal(t, &branchID, log.BranchID)
	assert.Equal(t, models.AuditActionCreate, log.Action)
}

func TestToLogUnmarshalable(t *testing.T) {
	log := ToLog(Entry{After: make(chan int)})
	assert.Equal(t, "null", log.AfterData)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Record(context.Background(), Entry{}))
}
