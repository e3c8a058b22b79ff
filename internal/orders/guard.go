package orders

import (
	"context"
	"fmt"
	"time"
)

// ClosureChecker gün sonu durumunu sorgular; shift.Register bunu sağlar.
type ClosureChecker interface {
	IsDateClosed(ctx context.Context, branchID uint, date time.Time) (bool, error)
}

// DateDecision siparişin hangi güne yazılacağı. Shifted false ise
// Effective == Requested ve Reason boştur.
type DateDecision struct {
	Requested time.Time
	Effective time.Time
	Shifted   bool
	Reason    string
}

// NoteSuffix mevcut nota kaydırma açıklamasını ekler.
func (d DateDecision) NoteSuffix(note string) string {
	if !d.Shifted {
		return note
	}
	if note == "" {
		return d.Reason
	}
	return note + " " + d.Reason
}

type Guard struct {
	closures ClosureChecker
}

func NewGuard(closures ClosureChecker) *Guard {
	return &Guard{closures: closures}
}

// PrepareOrderDate istenen gün kapalıysa siparişi tam bir gün ileri atar.
// Ertesi günün de kapalı olup olmadığına bakılmaz.
func (g *Guard) PrepareOrderDate(ctx context.Context, branchID uint, requested time.Time) (DateDecision, error) {
	requested = calendarDate(requested)

	closed, err := g.closures.IsDateClosed(ctx, branchID, requested)
	if err != nil {
		return DateDecision{}, fmt.Errorf("sipariş günü kontrol edilemedi: %w", err)
	}
	if !closed {
		return DateDecision{Requested: requested, Effective: requested}, nil
	}

	next := requested.AddDate(0, 0, 1)
	return DateDecision{
		Requested: requested,
		Effective: next,
		Shifted:   true,
		Reason: fmt.Sprintf("Order date automatically moved from %s to %s because %s is closed.",
			requested.Format(dateLayout), next.Format(dateLayout), requested.Format(dateLayout)),
	}, nil
}

const dateLayout = "2006-01-02"

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
