package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPaid   OrderStatus = "paid"
	OrderStatusUnpaid OrderStatus = "unpaid"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeMealPlan OrderType = "meal_plan" // üyelik / yemek planı
)

type SalesChannel string

const (
	SalesChannelPOS        SalesChannel = "pos"
	SalesChannelOnline     SalesChannel = "online"
	SalesChannelAggregator SalesChannel = "aggregator"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodMobile PaymentMethod = "mobile"
	PaymentMethodOnline PaymentMethod = "online"
)

type Order struct {
	ID        uint   `gorm:"primaryKey" bson:"_id"`
	BranchID  uint   `gorm:"index;not null" bson:"branch_id"`
	InvoiceNo string `gorm:"size:40;uniqueIndex;not null" bson:"invoice_no"`

	// Siparişin ait olduğu gün (gün sonu alınmışsa +1 gün)
	Date time.Time `gorm:"index;not null" bson:"date"`

	CustomerName  string `gorm:"size:100" bson:"customer_name"`
	CustomerPhone string `gorm:"size:30" bson:"customer_phone"`

	Items    []OrderItem    `gorm:"foreignKey:OrderID" bson:"items"`
	Payments []OrderPayment `gorm:"foreignKey:OrderID" bson:"payments"`

	SubTotal decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"sub_total"`
	VAT      decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"vat"`
	Discount decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"discount"`
	Rounding decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"rounding"`
	Payable  decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"payable"`
	Received decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"received"`
	Change   decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"change"`
	Due      decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"due"`

	Note         string       `gorm:"size:1000" bson:"note"`
	Status       OrderStatus  `gorm:"size:20;index;not null" bson:"status"`
	OrderType    OrderType    `gorm:"size:20;not null" bson:"order_type"`
	SalesChannel SalesChannel `gorm:"size:20;not null" bson:"sales_channel"`

	// Siparişler silinmez, iptal edilir
	Cancelled    bool       `gorm:"not null;default:false;index" bson:"cancelled"`
	CancelledAt  *time.Time `bson:"cancelled_at,omitempty"`
	CancelReason string     `gorm:"size:255" bson:"cancel_reason"`

	OnHold bool       `gorm:"not null;default:false" bson:"on_hold"`
	HeldAt *time.Time `bson:"held_at,omitempty"`

	CreatedBy uint      `bson:"created_by"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" bson:"-"`
	OrderID   uint            `gorm:"index;not null" bson:"-"`
	Name      string          `gorm:"size:150;not null" bson:"name"`
	Quantity  decimal.Decimal `gorm:"type:numeric(10,3);not null" bson:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"line_total"`
}

type OrderPayment struct {
	ID      uint            `gorm:"primaryKey" bson:"-"`
	OrderID uint            `gorm:"index;not null" bson:"-"`
	Method  PaymentMethod   `gorm:"size:20;not null" bson:"method"`
	Amount  decimal.Decimal `gorm:"type:numeric(14,2);not null" bson:"amount"`
}

// InvoiceSequence şube bazlı fatura numarası sayacı.
type InvoiceSequence struct {
	BranchID uint  `gorm:"primaryKey;autoIncrement:false"`
	Last     int64 `gorm:"not null"`
}
