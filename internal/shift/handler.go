package shift

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/models"
	"restoran-pos/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type StartShiftRequest struct {
	Note     string `json:"note" validate:"max=500"`
	BranchID *uint  `json:"branch_id"` // super_admin için
}

type CloseShiftRequest struct {
	Note         string                `json:"note" validate:"max=500"`
	Denomination *models.Denominations `json:"denomination" validate:"required"`
	BranchID     *uint                 `json:"branch_id"`
}

type DayCloseRequest struct {
	Note         string                `json:"note" validate:"max=500"`
	Denomination *models.Denominations `json:"denomination" validate:"required"`
	BranchID     *uint                 `json:"branch_id"`
}

type DayCloseResponse struct {
	Message      string    `json:"message"`
	ClosedCount  int       `json:"closedCount"`
	DayCloseTime time.Time `json:"dayCloseTime"`
	Date         string    `json:"date"`
	TotalCash    string    `json:"totalCash"`
	CarriedOver  []string  `json:"carriedOver,omitempty"`
}

type ShiftResponse struct {
	ID            uint                 `json:"id"`
	BranchID      uint                 `json:"branch_id"`
	ShiftNo       int                  `json:"shift_no"`
	StartDate     string               `json:"start_date"`
	StartTime     time.Time            `json:"start_time"`
	EndTime       *time.Time           `json:"end_time"`
	DayCloseTime  *time.Time           `json:"day_close_time"`
	LoginID       uint                 `json:"login_id"`
	LoginName     string               `json:"login_name"`
	Denominations models.Denominations `json:"denomination"`
	TotalCash     string               `json:"total_cash"`
	Note          string               `json:"note"`
	Status        models.ShiftStatus   `json:"status"`
}

func toResponse(s *models.Shift) ShiftResponse {
	return ShiftResponse{
		ID:            s.ID,
		BranchID:      s.BranchID,
		ShiftNo:       s.ShiftNo,
		StartDate:     s.StartDate.Format("2006-01-02"),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		DayCloseTime:  s.DayCloseTime,
		LoginID:       s.LoginID,
		LoginName:     s.LoginName,
		Denominations: s.Denominations,
		TotalCash:     s.TotalCash.StringFixed(2),
		Note:          s.Note,
		Status:        s.Status,
	}
}

// httpError domain hatalarını HTTP koduna çevirir; diğerleri 500 olarak
// ErrorHandler'a gider.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrDayAlreadyClosed):
		return fiber.NewError(fiber.StatusConflict, "Gün zaten kapatılmış")
	case errors.Is(err, ErrNothingToClose):
		return fiber.NewError(fiber.StatusConflict, "Kapatılacak açık vardiya yok")
	case errors.Is(err, ErrShiftAlreadyOpen):
		return fiber.NewError(fiber.StatusConflict, "Şubede zaten açık bir vardiya var")
	case errors.Is(err, ErrNoOpenShift):
		return fiber.NewError(fiber.StatusNotFound, "Açık vardiya bulunamadı")
	}
	return err
}

// -------------------------------------------------
// POST /api/shift/start
// -------------------------------------------------
func StartShiftHandler(reg *Register) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body StartShiftRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}
		branchID, err := actor.BranchFor(body.BranchID)
		if err != nil {
			return err
		}

		s, err := reg.StartShift(c.UserContext(), actor, branchID, body.Note)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(s))
	}
}

// -------------------------------------------------
// POST /api/shift/close
// -------------------------------------------------
func CloseShiftHandler(reg *Register) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body CloseShiftRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}
		branchID, err := actor.BranchFor(body.BranchID)
		if err != nil {
			return err
		}

		s, err := reg.CloseShift(c.UserContext(), actor, branchID, body.Note, *body.Denomination)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toResponse(s))
	}
}

// -------------------------------------------------
// POST /api/shift/day-close
// -------------------------------------------------
func DayCloseHandler(reg *Register) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body DayCloseRequest
		if err := validation.BodyParser(c, &body); err != nil {
			return err
		}
		branchID, err := actor.BranchFor(body.BranchID)
		if err != nil {
			return err
		}

		res, err := reg.CloseDay(c.UserContext(), actor, branchID, body.Note, *body.Denomination)
		if err != nil {
			return httpError(err)
		}

		resp := DayCloseResponse{
			Message:      fmt.Sprintf("Gün sonu alındı, %d vardiya kapatıldı", res.ClosedCount),
			ClosedCount:  res.ClosedCount,
			DayCloseTime: res.DayCloseTime,
			Date:         res.Date.Format("2006-01-02"),
			TotalCash:    res.TotalCash,
		}
		for _, d := range res.CarriedOver {
			resp.CarriedOver = append(resp.CarriedOver, d.Format("2006-01-02"))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/shift/day-close/status?date=2025-01-15
// -------------------------------------------------
func DayCloseStatusHandler(reg *Register) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		branchID, err := auth.BranchFromQuery(c, actor)
		if err != nil {
			return err
		}
		date, err := dateQuery(c, "date", reg.BusinessDate())
		if err != nil {
			return err
		}

		closed, err := reg.IsDateClosed(c.UserContext(), branchID, date)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"branch_id": branchID,
			"date":      date.Format("2006-01-02"),
			"closed":    closed,
		})
	}
}

// -------------------------------------------------
// GET /api/shift/day-close/export?date=2025-01-15
// -------------------------------------------------
func DayCloseExportHandler(reg *Register) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		branchID, err := auth.BranchFromQuery(c, actor)
		if err != nil {
			return err
		}
		date, err := dateQuery(c, "date", reg.BusinessDate())
		if err != nil {
			return err
		}

		rep, err := reg.DayReport(c.UserContext(), branchID, date)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := rep.WriteXLSX(&buf); err != nil {
			return fmt.Errorf("excel oluşturulamadı: %w", err)
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="gun-sonu-%d-%s.xlsx"`, branchID, date.Format("2006-01-02")))
		return c.Send(buf.Bytes())
	}
}

// -------------------------------------------------
// GET /api/shift/current
// -------------------------------------------------
func CurrentShiftHandler(reg *Register) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		branchID, err := auth.BranchFromQuery(c, actor)
		if err != nil {
			return err
		}

		s, err := reg.CurrentShift(c.UserContext(), branchID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toResponse(s))
	}
}

// -------------------------------------------------
// GET /api/shift?from=2025-01-01&to=2025-01-31&status=closed
// -------------------------------------------------
func ListShiftsHandler(reg *Register) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		branchID, err := auth.BranchFromQuery(c, actor)
		if err != nil {
			return err
		}

		f := Filter{BranchID: branchID}
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
		switch st := models.ShiftStatus(c.Query("status")); st {
		case "", models.ShiftStatusOpen, models.ShiftStatusClosed, models.ShiftStatusDayClose:
			f.Status = st
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz status (open|closed|day-close)")
		}

		shifts, err := reg.ListShifts(c.UserContext(), f)
		if err != nil {
			return err
		}
		resp := make([]ShiftResponse, 0, len(shifts))
		for i := range shifts {
			resp = append(resp, toResponse(&shifts[i]))
		}
		return c.JSON(resp)
	}
}

func dateQuery(c *fiber.Ctx, key string, def time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	d, err := validation.ParseDate(raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
	}
	return d, nil
}
