package shift

import (
	"context"
	"errors"
	"testing"
	"time"

	"restoran-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepWriter CloseDay adımlarını kaydeder; hata enjekte edilebilir.
type stepWriter struct {
	nextID     uint
	stored     map[uint]bool
	failInsert int // bu sıradaki insert hata verir (1'den başlar), 0 = hiç
	flipErr    error
	flipped    int
	flipCalls  int
	inserts    int
	deleted    []uint
}

func newStepWriter() *stepWriter { return &stepWriter{stored: map[uint]bool{}} }

func (w *stepWriter) insertDayClose(_ context.Context, rec *models.DayClose) error {
	w.inserts++
	if w.inserts == w.failInsert {
		return errors.New("insert failed")
	}
	w.nextID++
	rec.ID = w.nextID
	w.stored[rec.ID] = true
	return nil
}

func (w *stepWriter) deleteDayCloses(_ context.Context, ids []uint) error {
	for _, id := range ids {
		delete(w.stored, id)
	}
	w.deleted = append(w.deleted, ids...)
	return nil
}

func (w *stepWriter) flipShifts(context.Context, DayCloseBatch) (int, error) {
	w.flipCalls++
	return w.flipped, w.flipErr
}

func testBatch() DayCloseBatch {
	at := time.Date(2025, 1, 15, 21, 0, 0, 0, time.UTC)
	return DayCloseBatch{
		BranchID: 1,
		UpTo:     day("2025-01-15"),
		At:       at,
		Records: []*models.DayClose{
			{BranchID: 1, Date: day("2025-01-14"), DayCloseTime: at},
			{BranchID: 1, Date: day("2025-01-15"), DayCloseTime: at},
		},
	}
}

func TestCloseDayCompensatedSuccess(t *testing.T) {
	w := newStepWriter()
	w.flipped = 3

	n, err := closeDayCompensated(context.Background(), w, testBatch())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, w.stored, 2)
	assert.Empty(t, w.deleted)
}

func TestCloseDayCompensatedRemovesRecordsWhenFlipFails(t *testing.T) {
	w := newStepWriter()
	w.flipErr = errors.New("connection reset")

	_, err := closeDayCompensated(context.Background(), w, testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, w.stored, "vardiyalar çevrilemediyse gün kapalı görünmemeli")
	assert.ElementsMatch(t, []uint{1, 2}, w.deleted)
}

func TestCloseDayCompensatedNothingFlipped(t *testing.T) {
	w := newStepWriter()

	_, err := closeDayCompensated(context.Background(), w, testBatch())
	assert.ErrorIs(t, err, ErrNothingToClose)
	assert.Empty(t, w.stored)
}

func TestCloseDayCompensatedInsertFailureLeavesShiftsAlone(t *testing.T) {
	w := newStepWriter()
	w.failInsert = 2
	w.flipped = 3

	_, err := closeDayCompensated(context.Background(), w, testBatch())
	require.Error(t, err)
	assert.Empty(t, w.stored)
	assert.Equal(t, []uint{1}, w.deleted)
	assert.Zero(t, w.flipCalls)
}
