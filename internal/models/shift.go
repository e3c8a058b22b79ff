package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShiftStatus string

const (
	ShiftStatusOpen     ShiftStatus = "open"
	ShiftStatusClosed   ShiftStatus = "closed"    // kasiyer kendi vardiyasını kapattı
	ShiftStatusDayClose ShiftStatus = "day-close" // gün sonu alındı, terminal durum
)

// Denominations gün sonu / vardiya kapanışında sayılan banknot ve madeni para adetleri.
type Denominations struct {
	D1000 int `gorm:"column:denomination1000;not null;default:0" bson:"denomination1000" json:"denomination1000" validate:"gte=0"`
	D500  int `gorm:"column:denomination500;not null;default:0" bson:"denomination500" json:"denomination500" validate:"gte=0"`
	D200  int `gorm:"column:denomination200;not null;default:0" bson:"denomination200" json:"denomination200" validate:"gte=0"`
	D100  int `gorm:"column:denomination100;not null;default:0" bson:"denomination100" json:"denomination100" validate:"gte=0"`
	D50   int `gorm:"column:denomination50;not null;default:0" bson:"denomination50" json:"denomination50" validate:"gte=0"`
	D20   int `gorm:"column:denomination20;not null;default:0" bson:"denomination20" json:"denomination20" validate:"gte=0"`
	D10   int `gorm:"column:denomination10;not null;default:0" bson:"denomination10" json:"denomination10" validate:"gte=0"`
	D5    int `gorm:"column:denomination5;not null;default:0" bson:"denomination5" json:"denomination5" validate:"gte=0"`
	D2    int `gorm:"column:denomination2;not null;default:0" bson:"denomination2" json:"denomination2" validate:"gte=0"`
	D1    int `gorm:"column:denomination1;not null;default:0" bson:"denomination1" json:"denomination1" validate:"gte=0"`
}

// Pairs nominal değer -> adet, büyükten küçüğe.
func (d Denominations) Pairs() [][2]int {
	return [][2]int{
		{1000, d.D1000}, {500, d.D500}, {200, d.D200}, {100, d.D100}, {50, d.D50},
		{20, d.D20}, {10, d.D10}, {5, d.D5}, {2, d.D2}, {1, d.D1},
	}
}

func (d Denominations) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range d.Pairs() {
		total = total.Add(decimal.NewFromInt(int64(p[0])).Mul(decimal.NewFromInt(int64(p[1]))))
	}
	return total
}

func (d Denominations) Add(o Denominations) Denominations {
	return Denominations{
		D1000: d.D1000 + o.D1000, D500: d.D500 + o.D500, D200: d.D200 + o.D200,
		D100: d.D100 + o.D100, D50: d.D50 + o.D50, D20: d.D20 + o.D20,
		D10: d.D10 + o.D10, D5: d.D5 + o.D5, D2: d.D2 + o.D2, D1: d.D1 + o.D1,
	}
}

type Shift struct {
	ID       uint `gorm:"primaryKey" bson:"_id"`
	BranchID uint `gorm:"index;not null" bson:"branch_id"`
	ShiftNo  int  `gorm:"not null" bson:"shift_no"`

	// Gün bazlı (UTC gece yarısı)
	StartDate    time.Time  `gorm:"index;not null" bson:"start_date"`
	StartTime    time.Time  `gorm:"not null" bson:"start_time"`
	EndTime      *time.Time `bson:"end_time,omitempty"`
	DayCloseTime *time.Time `bson:"day_close_time,omitempty"`

	LoginID   uint   `gorm:"not null" bson:"login_id"`
	LoginName string `gorm:"size:100" bson:"login_name"`

	Denominations Denominations   `gorm:"embedded" bson:"denominations"`
	TotalCash     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" bson:"total_cash"`
	Note          string          `gorm:"size:500" bson:"note"`
	Status        ShiftStatus     `gorm:"size:20;index;not null" bson:"status"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// DayClose bir şubenin bir günü için alınan gün sonu kaydı.
// Kayıt varsa o tarih yeni siparişlere kapalıdır.
type DayClose struct {
	ID       uint      `gorm:"primaryKey" bson:"_id"`
	BranchID uint      `gorm:"not null;uniqueIndex:idx_day_close_branch_date" bson:"branch_id"`
	Date     time.Time `gorm:"not null;uniqueIndex:idx_day_close_branch_date" bson:"date"`

	DayCloseTime  time.Time       `gorm:"not null" bson:"day_close_time"`
	ClosedCount   int             `gorm:"not null" bson:"closed_count"`
	Denominations Denominations   `gorm:"embedded" bson:"denominations"`
	TotalCash     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" bson:"total_cash"`
	Note          string          `gorm:"size:500" bson:"note"`

	ClosedBy     uint   `gorm:"not null" bson:"closed_by"`
	ClosedByName string `gorm:"size:100" bson:"closed_by_name"`

	CreatedAt time.Time `bson:"created_at"`
}
