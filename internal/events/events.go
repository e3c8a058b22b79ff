package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TopicOrderCreated   = "pos.order.created"
	TopicShiftDayClosed = "pos.shift.day_closed"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventShiftDayClosed = "ShiftDayClosed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       uint   `json:"order_id"`
	BranchID      uint   `json:"branch_id"`
	InvoiceNo     string `json:"invoice_no"`
	Date          string `json:"date"`
	RequestedDate string `json:"requested_date"`
	DateShifted   bool   `json:"date_shifted"`
	Payable       string `json:"payable"`
	Status        string `json:"status"`
}

type DayClosedPayload struct {
	BranchID     uint      `json:"branch_id"`
	Date         string    `json:"date"`
	ClosedCount  int       `json:"closed_count"`
	TotalCash    string    `json:"total_cash"`
	DayCloseTime time.Time `json:"day_close_time"`
}

// Event yayınlanacak tek bir domain olayı. Key aynı şubenin olaylarını aynı
// partition'a düşürür.
type Event struct {
	Topic         string
	Type          string
	Key           string
	CorrelationID string
	Payload       any
}

// Publisher olayları en iyi çabayla (best effort) yayınlar; hata isteği bozmaz.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
