package orders

import (
	"errors"
	"time"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/models"
	"restoran-pos/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderItemRequest struct {
	Name      string          `json:"name" validate:"required,max=150"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPaymentRequest struct {
	Method models.PaymentMethod `json:"method" validate:"required,oneof=cash card mobile online"`
	Amount decimal.Decimal      `json:"amount"`
}

type CreateOrderRequest struct {
	BranchID      *uint                 `json:"branch_id"`
	Date          string                `json:"date" validate:"required,isodate"`
	CustomerName  string                `json:"customer_name" validate:"max=100"`
	CustomerPhone string                `json:"customer_phone" validate:"max=30"`
	Items         []OrderItemRequest    `json:"items" validate:"required,min=1,dive"`
	Payments      []OrderPaymentRequest `json:"payments" validate:"dive"`
	VAT           decimal.Decimal       `json:"vat"`
	Discount      decimal.Decimal       `json:"discount"`
	Note          string                `json:"note" validate:"max=500"`
	OrderType     models.OrderType      `json:"order_type" validate:"omitempty,oneof=dine_in takeaway delivery meal_plan"`
	SalesChannel  models.SalesChannel   `json:"sales_channel" validate:"omitempty,oneof=pos online aggregator"`
}

type UpdatePaymentsRequest struct {
	Payments []OrderPaymentRequest `json:"payments" validate:"dive"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type OrderItemResponse struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type OrderPaymentResponse struct {
	Method models.PaymentMethod `json:"method"`
	Amount string               `json:"amount"`
}

type OrderResponse struct {
	ID            uint                   `json:"id"`
	BranchID      uint                   `json:"branch_id"`
	InvoiceNo     string                 `json:"invoice_no"`
	Date          string                 `json:"date"`
	CustomerName  string                 `json:"customer_name"`
	CustomerPhone string                 `json:"customer_phone"`
	Items         []OrderItemResponse    `json:"items"`
	Payments      []OrderPaymentResponse `json:"payments"`
	SubTotal      string                 `json:"sub_total"`
	VAT           string                 `json:"vat"`
	Discount      string                 `json:"discount"`
	Rounding      string                 `json:"rounding"`
	Payable       string                 `json:"payable"`
	Received      string                 `json:"received"`
	Change        string                 `json:"change"`
	Due           string                 `json:"due"`
	Note          string                 `json:"note"`
	Status        models.OrderStatus     `json:"status"`
	OrderType     models.OrderType       `json:"order_type"`
	SalesChannel  models.SalesChannel    `json:"sales_channel"`
	Cancelled     bool                   `json:"cancelled"`
	CancelledAt   *time.Time             `json:"cancelled_at"`
	CancelReason  string                 `json:"cancel_reason"`
	OnHold        bool                   `json:"on_hold"`
	HeldAt        *time.Time             `json:"held_at"`
	CreatedBy     uint                   `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
}

type CreateOrderResponse struct {
	Message       string        `json:"message"`
	Data          OrderResponse `json:"data"`
	Idempotent    bool          `json:"idempotent"`
	DateShifted   bool          `json:"dateShifted"`
	RequestedDate string        `json:"requestedDate"`
}

func toResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		BranchID:      o.BranchID,
		InvoiceNo:     o.InvoiceNo,
		Date:          o.Date.Format(dateLayout),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
		Payments:      make([]OrderPaymentResponse, 0, len(o.Payments)),
		SubTotal:      o.SubTotal.StringFixed(2),
		VAT:           o.VAT.StringFixed(2),
		Discount:      o.Discount.StringFixed(2),
		Rounding:      o.Rounding.StringFixed(2),
		Payable:       o.Payable.StringFixed(2),
		Received:      o.Received.StringFixed(2),
		Change:        o.Change.StringFixed(2),
		Due:           o.Due.StringFixed(2),
		Note:          o.Note,
		Status:        o.Status,
		OrderType:     o.OrderType,
		SalesChannel:  o.SalesChannel,
		Cancelled:     o.Cancelled,
		CancelledAt:   o.CancelledAt,
		CancelReason:  o.CancelReason,
		OnHold:        o.OnHold,
		HeldAt:        o.HeldAt,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			Name:      it.Name,
			Quantity:  it.Quantity.String(),
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.LineTotal.StringFixed(2),
		})
	}
	for _, p := range o.Payments {
		resp.Payments = append(resp.Payments, OrderPaymentResponse{Method: p.Method, Amount: p.Amount.StringFixed(2)})
	}
	return resp
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
	case errors.Is(err, ErrInvalidOrder):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotMealPlan):
		return fiber.NewError(fiber.StatusBadRequest, "Bekletme sadece meal_plan siparişlerinde kullanılabilir")
	case errors.Is(err, ErrCancelled):
		return fiber.NewError(fiber.StatusConflict, "Sipariş iptal edilmiş")
	case errors.Is(err, ErrAlreadyCancelled):
		return fiber.NewError(fiber.StatusConflict, "Sipariş zaten iptal edilmiş")
	case errors.Is(err, ErrAlreadyOnHold):
		return fiber.NewError(fiber.StatusConflict, "Sipariş zaten beklemede")
	case errors.Is(err, ErrNotOnHold):
		return fiber.NewError(fiber.StatusConflict, "Sipariş beklemede değil")
	}
	return err
}

func paymentInputs(reqs []OrderPaymentRequest) []PaymentInput {
	out := make([]PaymentInput, 0, len(reqs))
	for _, p := range reqs {
		out = append(out, PaymentInput{Method: p.Method, Amount: p.Amount})
	}
	return out
}

// -------------------------------------------------
// POST /api/orders
// -------------------------------------------------
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body CreateOrderRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}
		branchID, err := actor.BranchFor(body.BranchID)
		if err != nil {
			return err
		}
		date, err := validation.ParseDate(body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
		}

		in := CreateInput{
			BranchID:       branchID,
			Date:           date,
			CustomerName:   body.CustomerName,
			CustomerPhone:  body.CustomerPhone,
			Payments:       paymentInputs(body.Payments),
			VAT:            body.VAT,
			Discount:       body.Discount,
			Note:           body.Note,
			OrderType:      body.OrderType,
			SalesChannel:   body.SalesChannel,
			IdempotencyKey: c.Get(HeaderIdempotencyKey),
		}
		for _, it := range body.Items {
			in.Items = append(in.Items, ItemInput{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
		}

		res, err := svc.Create(c.UserContext(), actor, in)
		if err != nil {
			return httpError(err)
		}

		resp := CreateOrderResponse{
			Message:       "Sipariş oluşturuldu",
			Data:          toResponse(res.Order),
			Idempotent:    res.Idempotent,
			DateShifted:   res.Decision.Shifted,
			RequestedDate: res.Decision.Requested.Format(dateLayout),
		}
		if res.Idempotent {
			resp.Message = "Sipariş daha önce oluşturulmuş"
			return c.JSON(resp)
		}
		if res.Decision.Shifted {
			resp.Message = res.Decision.Reason
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/orders/:id
// -------------------------------------------------
func GetOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		o, err := svc.Get(c.UserContext(), actor, uint(id))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toResponse(o))
	}
}

// -------------------------------------------------
// GET /api/orders?from=2025-01-01&to=2025-01-31&status=unpaid&cancelled=false
// -------------------------------------------------
func ListOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		branchID, err := auth.BranchFromQuery(c, actor)
		if err != nil {
			return err
		}

		f := Filter{BranchID: branchID, Limit: c.QueryInt("limit", 200)}
		if raw := c.Query("from"); raw != "" {
			d, err := validation.ParseDate(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			f.From = &d
		}
		if raw := c.Query("to"); raw != "" {
			d, err := validation.ParseDate(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			f.To = &d
		}
		switch st := models.OrderStatus(c.Query("status")); st {
		case "", models.OrderStatusPaid, models.OrderStatusUnpaid:
			f.Status = st
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status (paid|unpaid)")
		}
		switch c.Query("cancelled") {
		case "":
		case "true":
			v := true
			f.Cancelled = &v
		case "false":
			v := false
			f.Cancelled = &v
		default:
			return fiber.NewError(fiber.StatusBadRequest, "cancelled true veya false olmalı")
		}

		list, err := svc.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		resp := make([]OrderResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toResponse(&list[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/orders/summary/daily?date=2025-01-15
// -------------------------------------------------
func DailySummaryHandler(svc *Service, today func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		branchID, err := auth.BranchFromQuery(c, actor)
		if err != nil {
			return err
		}
		date := today()
		if raw := c.Query("date"); raw != "" {
			if date, err = validation.ParseDate(raw); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
			}
		}

		sum, err := svc.DailySummary(c.UserContext(), branchID, date)
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}

// -------------------------------------------------
// PUT /api/orders/:id/payments
// -------------------------------------------------
func UpdatePaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}
		var body UpdatePaymentsRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}

		o, err := svc.UpdatePayments(c.UserContext(), actor, uint(id), paymentInputs(body.Payments))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toResponse(o))
	}
}

// -------------------------------------------------
// POST /api/orders/:id/cancel
// -------------------------------------------------
func CancelOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}
		var body CancelOrderRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}

		o, err := svc.Cancel(c.UserContext(), actor, uint(id), body.Reason)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toResponse(o))
	}
}

// POST /api/orders/:id/hold ve /unhold
func HoldOrderHandler(svc *Service, hold bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		o, err := svc.SetHold(c.UserContext(), actor, uint(id), hold)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toResponse(o))
	}
}
