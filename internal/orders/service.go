package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/events"
	"restoran-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Branches fatura öneki için şube bilgisini verir.
type Branches interface {
	InvoicePrefix(ctx context.Context, branchID uint) (string, error)
}

// Idempotency Idempotency-Key -> sipariş ID eşlemesi (Redis).
type Idempotency interface {
	Lookup(ctx context.Context, key string) (uint, bool, error)
	Remember(ctx context.Context, key string, orderID uint) error
}

type ItemInput struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

type PaymentInput struct {
	Method models.PaymentMethod
	Amount decimal.Decimal
}

type CreateInput struct {
	BranchID      uint
	Date          time.Time
	CustomerName  string
	CustomerPhone string
	Items         []ItemInput
	Payments      []PaymentInput
	VAT           decimal.Decimal
	Discount      decimal.Decimal
	Note          string
	OrderType     models.OrderType
	SalesChannel  models.SalesChannel

	IdempotencyKey string
}

type CreateResult struct {
	Order      *models.Order
	Decision   DateDecision
	Idempotent bool
}

type Service struct {
	store    Store
	guard    *Guard
	branches Branches
	idem     Idempotency
	audit    audit.Recorder
	events   events.Publisher
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(store Store, closures ClosureChecker, branches Branches, rec audit.Recorder, pub events.Publisher, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		guard:    NewGuard(closures),
		branches: branches,
		audit:    rec,
		events:   pub,
		log:      log,
		now:      time.Now,
	}
}

// WithIdempotency Redis yapılandırılmışsa çağrılır.
func (s *Service) WithIdempotency(idem Idempotency) *Service {
	s.idem = idem
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) PrepareOrderDate(ctx context.Context, branchID uint, requested time.Time) (DateDecision, error) {
	return s.guard.PrepareOrderDate(ctx, branchID, requested)
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (CreateResult, error) {
	if err := validateInput(in); err != nil {
		return CreateResult{}, err
	}

	if s.idem != nil && in.IdempotencyKey != "" {
		if res, ok := s.replay(ctx, in); ok {
			return res, nil
		}
	}

	decision, err := s.guard.PrepareOrderDate(ctx, in.BranchID, in.Date)
	if err != nil {
		return CreateResult{}, err
	}

	o := &models.Order{
		BranchID:      in.BranchID,
		Date:          decision.Effective,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		VAT:           in.VAT,
		Discount:      in.Discount,
		Note:          decision.NoteSuffix(in.Note),
		OrderType:     in.OrderType,
		SalesChannel:  in.SalesChannel,
		CreatedBy:     actor.UserID,
	}
	if o.OrderType == "" {
		o.OrderType = models.OrderTypeDineIn
	}
	if o.SalesChannel == "" {
		o.SalesChannel = models.SalesChannelPOS
	}
	for _, it := range in.Items {
		o.Items = append(o.Items, models.OrderItem{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	for _, p := range in.Payments {
		o.Payments = append(o.Payments, models.OrderPayment{Method: p.Method, Amount: p.Amount})
	}
	computeTotals(o)

	if o.InvoiceNo, err = s.invoiceNo(ctx, in.BranchID); err != nil {
		return CreateResult{}, err
	}
	if err := s.store.Create(ctx, o); err != nil {
		return CreateResult{}, fmt.Errorf("sipariş kaydedilemedi: %w", err)
	}

	if s.idem != nil && in.IdempotencyKey != "" {
		if err := s.idem.Remember(ctx, in.IdempotencyKey, o.ID); err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Warn("idempotency anahtarı yazılamadı")
		}
	}

	fields := logrus.Fields{"branch_id": o.BranchID, "order_id": o.ID, "invoice_no": o.InvoiceNo}
	if decision.Shifted {
		fields["requested_date"] = decision.Requested.Format(dateLayout)
		fields["effective_date"] = decision.Effective.Format(dateLayout)
		s.log.WithFields(fields).Info("sipariş günü kapalı, ertesi güne alındı")
	} else {
		s.log.WithFields(fields).Info("sipariş oluşturuldu")
	}

	s.record(ctx, actor, o, models.AuditActionCreate,
		fmt.Sprintf("Sipariş %s oluşturuldu (%s)", o.InvoiceNo, o.Payable.StringFixed(2)), nil, o)

	if err := s.events.Publish(ctx, events.Event{
		Topic:         events.TopicOrderCreated,
		Type:          events.EventOrderCreated,
		Key:           strconv.FormatUint(uint64(o.BranchID), 10),
		CorrelationID: o.InvoiceNo,
		Payload: events.OrderCreatedPayload{
			OrderID:       o.ID,
			BranchID:      o.BranchID,
			InvoiceNo:     o.InvoiceNo,
			Date:          o.Date.Format(dateLayout),
			RequestedDate: decision.Requested.Format(dateLayout),
			DateShifted:   decision.Shifted,
			Payable:       o.Payable.StringFixed(2),
			Status:        string(o.Status),
		},
	}); err != nil {
		s.log.WithError(err).WithField("order_id", o.ID).Warn("sipariş olayı yayınlanamadı")
	}

	return CreateResult{Order: o, Decision: decision}, nil
}

// replay aynı anahtarla daha önce oluşturulmuş siparişi döner. Redis
// hatasında sipariş normal akışla oluşturulur.
func (s *Service) replay(ctx context.Context, in CreateInput) (CreateResult, bool) {
	id, ok, err := s.idem.Lookup(ctx, in.IdempotencyKey)
	if err != nil {
		s.log.WithError(err).Warn("idempotency anahtarı okunamadı")
		return CreateResult{}, false
	}
	if !ok {
		return CreateResult{}, false
	}
	o, err := s.store.Get(ctx, id)
	if err != nil || o.BranchID != in.BranchID {
		return CreateResult{}, false
	}
	return CreateResult{
		Order:      o,
		Decision:   DateDecision{Requested: o.Date, Effective: o.Date},
		Idempotent: true,
	}, true
}

func (s *Service) invoiceNo(ctx context.Context, branchID uint) (string, error) {
	prefix := ""
	if s.branches != nil {
		p, err := s.branches.InvoicePrefix(ctx, branchID)
		if err != nil {
			return "", fmt.Errorf("şube bilgisi okunamadı: %w", err)
		}
		prefix = p
	}
	if prefix == "" {
		prefix = strconv.FormatUint(uint64(branchID), 10)
	}

	seq, err := s.store.NextInvoiceSeq(ctx, branchID)
	if err != nil {
		return "", fmt.Errorf("fatura numarası alınamadı: %w", err)
	}
	return fmt.Sprintf("INV-%s-%06d", prefix, seq), nil
}

func validateInput(in CreateInput) error {
	if in.BranchID == 0 {
		return fmt.Errorf("%w: şube zorunlu", ErrInvalidOrder)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: tarih zorunlu", ErrInvalidOrder)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: en az bir kalem olmalı", ErrInvalidOrder)
	}
	for _, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: %q için miktar sıfırdan büyük olmalı", ErrInvalidOrder, it.Name)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: %q için birim fiyat negatif olamaz", ErrInvalidOrder, it.Name)
		}
	}
	if in.VAT.IsNegative() || in.Discount.IsNegative() {
		return fmt.Errorf("%w: KDV ve indirim negatif olamaz", ErrInvalidOrder)
	}
	gross := in.VAT.Round(2)
	for _, it := range in.Items {
		gross = gross.Add(lineTotal(it.Quantity, it.UnitPrice))
	}
	if in.Discount.Round(2).GreaterThan(gross) {
		return fmt.Errorf("%w: indirim (%s) ara toplam ve KDV toplamını (%s) aşamaz",
			ErrInvalidOrder, in.Discount.StringFixed(2), gross.StringFixed(2))
	}
	return validatePayments(in.Payments)
}

func validatePayments(payments []PaymentInput) error {
	for _, p := range payments {
		switch p.Method {
		case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodMobile, models.PaymentMethodOnline:
		default:
			return fmt.Errorf("%w: bilinmeyen ödeme yöntemi %q", ErrInvalidOrder, p.Method)
		}
		if !p.Amount.IsPositive() {
			return fmt.Errorf("%w: ödeme tutarı sıfırdan büyük olmalı", ErrInvalidOrder)
		}
	}
	return nil
}

// Get siparişi aktörün şubesiyle sınırlı olarak getirir.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uint) (*models.Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("sipariş okunamadı: %w", err)
	}
	if !actor.CanAccess(o.BranchID) {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.Order, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 200
	}
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("siparişler listelenemedi: %w", err)
	}
	return list, nil
}

func (s *Service) UpdatePayments(ctx context.Context, actor auth.Actor, id uint, payments []PaymentInput) (*models.Order, error) {
	if err := validatePayments(payments); err != nil {
		return nil, err
	}
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if o.Cancelled {
		return nil, ErrCancelled
	}
	before := *o

	o.Payments = make([]models.OrderPayment, 0, len(payments))
	for _, p := range payments {
		o.Payments = append(o.Payments, models.OrderPayment{OrderID: o.ID, Method: p.Method, Amount: p.Amount})
	}
	applyPayments(o)

	if err := s.store.ReplacePayments(ctx, o); err != nil {
		return nil, fmt.Errorf("ödemeler güncellenemedi: %w", err)
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "status": o.Status}).Info("sipariş ödemeleri güncellendi")
	s.record(ctx, actor, o, models.AuditActionUpdate,
		fmt.Sprintf("Sipariş %s ödemeleri güncellendi: %s", o.InvoiceNo, o.Received.StringFixed(2)), before, o)
	return o, nil
}

func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uint, reason string) (*models.Order, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if o.Cancelled {
		return nil, ErrAlreadyCancelled
	}
	before := *o

	now := s.now()
	o.Cancelled = true
	o.CancelledAt = &now
	o.CancelReason = reason
	o.OnHold = false
	o.HeldAt = nil

	if err := s.store.UpdateState(ctx, o); err != nil {
		return nil, fmt.Errorf("sipariş iptal edilemedi: %w", err)
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "branch_id": o.BranchID}).Info("sipariş iptal edildi")
	s.record(ctx, actor, o, models.AuditActionCancel,
		fmt.Sprintf("Sipariş %s iptal edildi: %s", o.InvoiceNo, reason), before, o)
	return o, nil
}

// SetHold meal_plan siparişlerini bekletmeye alır veya bekletmeden çıkarır.
func (s *Service) SetHold(ctx context.Context, actor auth.Actor, id uint, hold bool) (*models.Order, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if o.Cancelled {
		return nil, ErrCancelled
	}
	if o.OrderType != models.OrderTypeMealPlan {
		return nil, ErrNotMealPlan
	}
	if hold && o.OnHold {
		return nil, ErrAlreadyOnHold
	}
	if !hold && !o.OnHold {
		return nil, ErrNotOnHold
	}
	before := *o

	o.OnHold = hold
	desc := fmt.Sprintf("Sipariş %s bekletmeden çıkarıldı", o.InvoiceNo)
	if hold {
		now := s.now()
		o.HeldAt = &now
		desc = fmt.Sprintf("Sipariş %s bekletmeye alındı", o.InvoiceNo)
	} else {
		o.HeldAt = nil
	}

	if err := s.store.UpdateState(ctx, o); err != nil {
		return nil, fmt.Errorf("sipariş güncellenemedi: %w", err)
	}
	s.record(ctx, actor, o, models.AuditActionUpdate, desc, before, o)
	return o, nil
}

type MethodTotal struct {
	Method models.PaymentMethod `json:"method"`
	Amount string               `json:"amount"`
}

type DailySummary struct {
	BranchID   uint          `json:"branch_id"`
	Date       string        `json:"date"`
	OrderCount int           `json:"order_count"`
	Payable    string        `json:"payable"`
	Received   string        `json:"received"`
	Due        string        `json:"due"`
	ByMethod   []MethodTotal `json:"by_method"`
}

// DailySummary iptal edilmemiş siparişlerin gün toplamı.
func (s *Service) DailySummary(ctx context.Context, branchID uint, date time.Time) (DailySummary, error) {
	date = calendarDate(date)
	notCancelled := false
	list, err := s.store.List(ctx, Filter{BranchID: branchID, From: &date, To: &date, Cancelled: &notCancelled})
	if err != nil {
		return DailySummary{}, fmt.Errorf("siparişler okunamadı: %w", err)
	}

	payable, received, due := decimal.Zero, decimal.Zero, decimal.Zero
	byMethod := map[models.PaymentMethod]decimal.Decimal{}
	for _, o := range list {
		payable = payable.Add(o.Payable)
		received = received.Add(o.Received)
		due = due.Add(o.Due)
		for _, p := range o.Payments {
			byMethod[p.Method] = byMethod[p.Method].Add(p.Amount)
		}
	}

	sum := DailySummary{
		BranchID:   branchID,
		Date:       date.Format(dateLayout),
		OrderCount: len(list),
		Payable:    payable.StringFixed(2),
		Received:   received.StringFixed(2),
		Due:        due.StringFixed(2),
		ByMethod:   make([]MethodTotal, 0, len(byMethod)),
	}
	for m, amt := range byMethod {
		sum.ByMethod = append(sum.ByMethod, MethodTotal{Method: m, Amount: amt.StringFixed(2)})
	}
	sort.Slice(sum.ByMethod, func(i, j int) bool { return sum.ByMethod[i].Method < sum.ByMethod[j].Method })
	return sum, nil
}

func (s *Service) record(ctx context.Context, actor auth.Actor, o *models.Order, action models.AuditAction, desc string, before, after any) {
	branchID := o.BranchID
	err := s.audit.Record(ctx, audit.Entry{
		BranchID:    &branchID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
	if err != nil {
		s.log.WithError(err).WithField("order_id", o.ID).Warn("audit log yazılamadı")
	}
}
