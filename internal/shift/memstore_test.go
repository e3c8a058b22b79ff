package shift

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"restoran-pos/internal/models"
)

type memStore struct {
	mu        sync.Mutex
	shifts    []models.Shift
	dayCloses []models.DayClose
	failRead  error
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) OpenShift(_ context.Context, branchID uint) (*models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.shifts {
		if m.shifts[i].BranchID == branchID && m.shifts[i].Status == models.ShiftStatusOpen {
			s := m.shifts[i]
			return &s, nil
		}
	}
	return nil, ErrNoOpenShift
}

func (m *memStore) LastShiftNo(_ context.Context, branchID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.shifts {
		if s.BranchID == branchID && s.ShiftNo > n {
			n = s.ShiftNo
		}
	}
	return n, nil
}

func (m *memStore) CreateShift(_ context.Context, s *models.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.shifts {
		if x.BranchID == s.BranchID && x.Status == models.ShiftStatusOpen {
			return ErrShiftAlreadyOpen
		}
	}
	s.ID = uint(len(m.shifts) + 1)
	m.shifts = append(m.shifts, *s)
	return nil
}

func (m *memStore) UpdateShift(_ context.Context, s *models.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.shifts {
		if m.shifts[i].ID == s.ID {
			m.shifts[i] = *s
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memStore) ListShifts(_ context.Context, f Filter) ([]models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Shift{}
	for _, s := range m.shifts {
		if s.BranchID != f.BranchID {
			continue
		}
		if f.From != nil && s.StartDate.Before(*f.From) {
			continue
		}
		if f.To != nil && s.StartDate.After(*f.To) {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) PendingShifts(_ context.Context, branchID uint, upTo time.Time) ([]models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Shift{}
	for _, s := range m.shifts {
		if s.BranchID == branchID && !s.StartDate.After(upTo) && pending(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ShiftNo < out[j].ShiftNo
	})
	return out, nil
}

func pending(s models.Shift) bool {
	return s.Status == models.ShiftStatusOpen || s.Status == models.ShiftStatusClosed
}

func (m *memStore) CloseDay(_ context.Context, b DayCloseBatch) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range b.Records {
		for _, d := range m.dayCloses {
			if d.BranchID == rec.BranchID && d.Date.Equal(rec.Date) {
				return 0, ErrDayAlreadyClosed
			}
		}
	}

	var idx []int
	for i, s := range m.shifts {
		if s.BranchID == b.BranchID && !s.StartDate.After(b.UpTo) && pending(s) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return 0, ErrNothingToClose
	}
	for _, i := range idx {
		s := &m.shifts[i]
		t := b.At
		s.Status = models.ShiftStatusDayClose
		s.DayCloseTime = &t
		if s.EndTime == nil {
			s.EndTime = &t
		}
	}
	for _, rec := range b.Records {
		rec.ID = uint(len(m.dayCloses) + 1)
		m.dayCloses = append(m.dayCloses, *rec)
	}
	return len(idx), nil
}

func (m *memStore) FindDayClose(_ context.Context, branchID uint, date time.Time) (*models.DayClose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead != nil {
		return nil, m.failRead
	}
	for _, d := range m.dayCloses {
		if d.BranchID == branchID && d.Date.Equal(date) {
			rec := d
			return &rec, nil
		}
	}
	return nil, nil
}

// seedShift testlerde doğrudan durum kurmak için.
func (m *memStore) seedShift(s models.Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uint(len(m.shifts) + 1)
	m.shifts = append(m.shifts, s)
}
