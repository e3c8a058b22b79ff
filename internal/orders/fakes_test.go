package orders

import (
	"context"
	"sync"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/events"
	"restoran-pos/internal/models"
)

type fakeClosures struct {
	mu     sync.Mutex
	closed map[string]bool
	err    error
	calls  int
}

func newFakeClosures(closedDays ...string) *fakeClosures {
	f := &fakeClosures{closed: map[string]bool{}}
	for _, d := range closedDays {
		f.closed[d] = true
	}
	return f
}

func (f *fakeClosures) IsDateClosed(_ context.Context, branchID uint, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.closed[date.Format(dateLayout)], nil
}

type memStore struct {
	mu     sync.Mutex
	orders map[uint]*models.Order
	seq    map[uint]int64
	nextID uint
}

func newMemStore() *memStore {
	return &memStore{orders: map[uint]*models.Order{}, seq: map[uint]int64{}}
}

func (m *memStore) NextInvoiceSeq(_ context.Context, branchID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[branchID]++
	return m.seq[branchID], nil
}

func (m *memStore) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	o.CreatedAt = time.Now()
	cp := cloneOrder(o)
	m.orders[o.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id uint) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for id := uint(1); id <= m.nextID; id++ {
		o, ok := m.orders[id]
		if !ok || o.BranchID != f.BranchID {
			continue
		}
		if f.From != nil && o.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && o.Date.After(*f.To) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Cancelled != nil && o.Cancelled != *f.Cancelled {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (m *memStore) UpdateState(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.orders[o.ID]
	cur.Cancelled, cur.CancelledAt, cur.CancelReason = o.Cancelled, o.CancelledAt, o.CancelReason
	cur.OnHold, cur.HeldAt = o.OnHold, o.HeldAt
	return nil
}

func (m *memStore) ReplacePayments(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.orders[o.ID]
	cur.Payments = append([]models.OrderPayment(nil), o.Payments...)
	cur.Received, cur.Change, cur.Due, cur.Status = o.Received, o.Change, o.Due, o.Status
	return nil
}

func cloneOrder(o *models.Order) models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	cp.Payments = append([]models.OrderPayment(nil), o.Payments...)
	return cp
}

type fakeBranches map[uint]string

func (f fakeBranches) InvoicePrefix(_ context.Context, branchID uint) (string, error) {
	return f[branchID], nil
}

type fakeIdem struct {
	mu   sync.Mutex
	keys map[string]uint
}

func (f *fakeIdem) Lookup(_ context.Context, key string) (uint, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.keys[key]
	return id, ok, nil
}

func (f *fakeIdem) Remember(_ context.Context, key string, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = map[string]uint{}
	}
	f.keys[key] = id
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}
