package shift

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/events"
	"restoran-pos/internal/models"

	"github.com/sirupsen/logrus"
)

// Register şubelerin vardiya ve gün sonu durumunu yönetir. Kapalı gün
// bilgisi önbelleğe alınmaz; her sorgu depoya gider.
type Register struct {
	store  Store
	audit  audit.Recorder
	events events.Publisher
	log    *logrus.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewRegister(store Store, rec audit.Recorder, pub events.Publisher, log *logrus.Logger, loc *time.Location) *Register {
	if loc == nil {
		loc = time.UTC
	}
	return &Register{store: store, audit: rec, events: pub, log: log, loc: loc, now: time.Now}
}

func (r *Register) WithClock(now func() time.Time) *Register {
	r.now = now
	return r
}

// BusinessDate işletme saat dilimine göre bugünün takvim günü (UTC gece yarısı).
func (r *Register) BusinessDate() time.Time {
	return CalendarDate(r.now().In(r.loc))
}

func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type DayCloseResult struct {
	Date         time.Time
	ClosedCount  int
	DayCloseTime time.Time
	TotalCash    string
	// Aynı işlemde kapatılan önceki günler
	CarriedOver []time.Time
}

func (r *Register) StartShift(ctx context.Context, actor auth.Actor, branchID uint, note string) (*models.Shift, error) {
	date := r.BusinessDate()

	closed, err := r.IsDateClosed(ctx, branchID, date)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, ErrDayAlreadyClosed
	}

	if _, err := r.store.OpenShift(ctx, branchID); err == nil {
		return nil, ErrShiftAlreadyOpen
	} else if !errors.Is(err, ErrNoOpenShift) {
		return nil, fmt.Errorf("açık vardiya sorgulanamadı: %w", err)
	}

	last, err := r.store.LastShiftNo(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("vardiya numarası alınamadı: %w", err)
	}

	s := &models.Shift{
		BranchID:  branchID,
		ShiftNo:   last + 1,
		StartDate: date,
		StartTime: r.now(),
		LoginID:   actor.UserID,
		LoginName: actor.Name,
		Note:      note,
		Status:    models.ShiftStatusOpen,
	}
	if err := r.store.CreateShift(ctx, s); err != nil {
		if errors.Is(err, ErrShiftAlreadyOpen) {
			return nil, err
		}
		return nil, fmt.Errorf("vardiya oluşturulamadı: %w", err)
	}

	r.log.WithFields(logrus.Fields{"branch_id": branchID, "shift_id": s.ID, "shift_no": s.ShiftNo}).Info("vardiya açıldı")
	r.record(ctx, actor, branchID, "shift", s.ID, models.AuditActionCreate,
		fmt.Sprintf("Vardiya #%d açıldı", s.ShiftNo), nil, s)
	return s, nil
}

// CloseShift kasiyerin kendi vardiyasını sayımla kapatır (open -> closed).
func (r *Register) CloseShift(ctx context.Context, actor auth.Actor, branchID uint, note string, counts models.Denominations) (*models.Shift, error) {
	s, err := r.store.OpenShift(ctx, branchID)
	if err != nil {
		if errors.Is(err, ErrNoOpenShift) {
			return nil, err
		}
		return nil, fmt.Errorf("açık vardiya sorgulanamadı: %w", err)
	}
	before := *s

	end := r.now()
	s.EndTime = &end
	s.Denominations = counts
	s.TotalCash = counts.Total()
	if note != "" {
		s.Note = note
	}
	s.Status = models.ShiftStatusClosed

	if err := r.store.UpdateShift(ctx, s); err != nil {
		return nil, fmt.Errorf("vardiya kapatılamadı: %w", err)
	}

	r.log.WithFields(logrus.Fields{"branch_id": branchID, "shift_id": s.ID, "total_cash": s.TotalCash.String()}).Info("vardiya kapatıldı")
	r.record(ctx, actor, branchID, "shift", s.ID, models.AuditActionUpdate,
		fmt.Sprintf("Vardiya #%d kapatıldı: %s", s.ShiftNo, s.TotalCash.StringFixed(2)), before, s)
	return s, nil
}

// CloseDay bugünün open/closed vardiyalarını day-close yapar. Önceki
// günlerden kalan (gece yarısını geçmiş) vardiyalar da süpürülür ve gün sonu
// kaydı olmayan her tarih için kayıt yazılır. Bugünün vardiyası yoksa bugün
// açık kalır, sadece devreden günler kapanır.
func (r *Register) CloseDay(ctx context.Context, actor auth.Actor, branchID uint, note string, counts models.Denominations) (DayCloseResult, error) {
	now := r.now()
	today := CalendarDate(now.In(r.loc))

	closed, err := r.IsDateClosed(ctx, branchID, today)
	if err != nil {
		return DayCloseResult{}, err
	}
	if closed {
		return DayCloseResult{}, ErrDayAlreadyClosed
	}

	pending, err := r.store.PendingShifts(ctx, branchID, today)
	if err != nil {
		return DayCloseResult{}, fmt.Errorf("bekleyen vardiyalar okunamadı: %w", err)
	}
	if len(pending) == 0 {
		return DayCloseResult{}, ErrNothingToClose
	}

	groups := groupByDate(pending)
	upTo := groups[len(groups)-1].date

	batch := DayCloseBatch{BranchID: branchID, UpTo: upTo, At: now}
	var primary *models.DayClose
	var carried []time.Time
	for _, g := range groups {
		if !g.date.Equal(today) {
			done, err := r.IsDateClosed(ctx, branchID, g.date)
			if err != nil {
				return DayCloseResult{}, err
			}
			if done {
				// kaydı olan güne sonradan düşmüş vardiya, sadece day-close yapılır
				continue
			}
		}
		rec := &models.DayClose{
			BranchID:     branchID,
			Date:         g.date,
			DayCloseTime: now,
			ClosedCount:  len(g.shifts),
			ClosedBy:     actor.UserID,
			ClosedByName: actor.Name,
		}
		if g.date.Equal(upTo) {
			rec.Denominations = counts
			rec.Note = note
			primary = rec
		} else {
			for _, sh := range g.shifts {
				rec.Denominations = rec.Denominations.Add(sh.Denominations)
			}
			rec.Note = fmt.Sprintf("Devreden vardiyalar %s gün sonunda kapatıldı", upTo.Format("2006-01-02"))
			carried = append(carried, g.date)
		}
		rec.TotalCash = rec.Denominations.Total()
		batch.Records = append(batch.Records, rec)
	}

	n, err := r.store.CloseDay(ctx, batch)
	if err != nil {
		if errors.Is(err, ErrDayAlreadyClosed) || errors.Is(err, ErrNothingToClose) {
			return DayCloseResult{}, err
		}
		return DayCloseResult{}, fmt.Errorf("gün sonu alınamadı: %w", err)
	}

	res := DayCloseResult{
		Date:         upTo,
		ClosedCount:  n,
		DayCloseTime: now,
		TotalCash:    counts.Total().StringFixed(2),
		CarriedOver:  carried,
	}

	r.log.WithFields(logrus.Fields{
		"branch_id":    branchID,
		"date":         upTo.Format("2006-01-02"),
		"closed_count": n,
		"carried_over": len(carried),
	}).Info("gün sonu alındı")

	for _, rec := range batch.Records {
		r.record(ctx, actor, branchID, "day_close", rec.ID, models.AuditActionDayClose,
			fmt.Sprintf("Gün sonu: %s (%d vardiya)", rec.Date.Format("2006-01-02"), rec.ClosedCount), nil, rec)
		r.publishDayClosed(ctx, rec)
	}
	if primary == nil {
		r.log.WithField("branch_id", branchID).Warn("gün sonu sayımı hiçbir kayda yazılmadı, son tarih zaten kapalıydı")
	}
	return res, nil
}

func (r *Register) publishDayClosed(ctx context.Context, rec *models.DayClose) {
	date := rec.Date.Format("2006-01-02")
	if err := r.events.Publish(ctx, events.Event{
		Topic:         events.TopicShiftDayClosed,
		Type:          events.EventShiftDayClosed,
		Key:           strconv.FormatUint(uint64(rec.BranchID), 10),
		CorrelationID: date,
		Payload: events.DayClosedPayload{
			BranchID:     rec.BranchID,
			Date:         date,
			ClosedCount:  rec.ClosedCount,
			TotalCash:    rec.TotalCash.StringFixed(2),
			DayCloseTime: rec.DayCloseTime,
		},
	}); err != nil {
		r.log.WithError(err).WithField("branch_id", rec.BranchID).Warn("gün sonu olayı yayınlanamadı")
	}
}

type dateGroup struct {
	date   time.Time
	shifts []models.Shift
}

// groupByDate start_date'e göre sıralı gelen vardiyaları gruplar.
func groupByDate(shifts []models.Shift) []dateGroup {
	var out []dateGroup
	for _, sh := range shifts {
		d := CalendarDate(sh.StartDate)
		if n := len(out); n > 0 && out[n-1].date.Equal(d) {
			out[n-1].shifts = append(out[n-1].shifts, sh)
			continue
		}
		out = append(out, dateGroup{date: d, shifts: []models.Shift{sh}})
	}
	return out
}

// IsDateClosed verilen takvim günü için gün sonu kaydı var mı.
func (r *Register) IsDateClosed(ctx context.Context, branchID uint, date time.Time) (bool, error) {
	rec, err := r.store.FindDayClose(ctx, branchID, CalendarDate(date))
	if err != nil {
		return false, fmt.Errorf("gün sonu durumu okunamadı: %w", err)
	}
	return rec != nil, nil
}

func (r *Register) CurrentShift(ctx context.Context, branchID uint) (*models.Shift, error) {
	s, err := r.store.OpenShift(ctx, branchID)
	if err != nil && !errors.Is(err, ErrNoOpenShift) {
		return nil, fmt.Errorf("açık vardiya sorgulanamadı: %w", err)
	}
	return s, err
}

func (r *Register) ListShifts(ctx context.Context, f Filter) ([]models.Shift, error) {
	shifts, err := r.store.ListShifts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("vardiyalar listelenemedi: %w", err)
	}
	return shifts, nil
}

func (r *Register) record(ctx context.Context, actor auth.Actor, branchID uint, entityType string, entityID uint, action models.AuditAction, desc string, before, after any) {
	err := r.audit.Record(ctx, audit.Entry{
		BranchID:    &branchID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{"entity_type": entityType, "entity_id": entityID}).Warn("audit log yazılamadı")
	}
}
