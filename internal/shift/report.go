package shift

import (
	"context"
	"fmt"
	"io"
	"time"

	"restoran-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type DayReport struct {
	BranchID uint
	Date     time.Time
	DayClose *models.DayClose // gün kapanmadıysa nil
	Shifts   []models.Shift

	// Kasiyer sayımlarının toplamı (closed / day-close vardiyalar)
	ShiftCash          decimal.Decimal
	ShiftDenominations models.Denominations
}

func (r *Register) DayReport(ctx context.Context, branchID uint, date time.Time) (*DayReport, error) {
	date = CalendarDate(date)

	rec, err := r.store.FindDayClose(ctx, branchID, date)
	if err != nil {
		return nil, fmt.Errorf("gün sonu kaydı okunamadı: %w", err)
	}
	shifts, err := r.store.ListShifts(ctx, Filter{BranchID: branchID, From: &date, To: &date})
	if err != nil {
		return nil, fmt.Errorf("vardiyalar listelenemedi: %w", err)
	}

	rep := &DayReport{BranchID: branchID, Date: date, DayClose: rec, Shifts: shifts, ShiftCash: decimal.Zero}
	for _, s := range shifts {
		rep.ShiftCash = rep.ShiftCash.Add(s.TotalCash)
		rep.ShiftDenominations = rep.ShiftDenominations.Add(s.Denominations)
	}
	return rep, nil
}

const (
	sheetSummary = "Gün Sonu"
	sheetShifts  = "Vardiyalar"
)

// WriteXLSX raporu iki sayfalık bir Excel dosyası olarak yazar.
func (rep *DayReport) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetShifts); err != nil {
		return err
	}

	status := "Açık"
	if rep.DayClose != nil {
		status = "Kapalı"
	}
	rows := [][]any{
		{"Şube", rep.BranchID},
		{"Tarih", rep.Date.Format("2006-01-02")},
		{"Durum", status},
		{"Vardiya sayısı", len(rep.Shifts)},
		{"Vardiya kasa toplamı", rep.ShiftCash.StringFixed(2)},
	}
	if rep.DayClose != nil {
		rows = append(rows,
			[]any{"Gün sonu saati", rep.DayClose.DayCloseTime.Format("2006-01-02 15:04:05")},
			[]any{"Gün sonu kasa", rep.DayClose.TotalCash.StringFixed(2)},
			[]any{"Kapatan", rep.DayClose.ClosedByName},
			[]any{"Not", rep.DayClose.Note},
		)
	}
	rows = append(rows, []any{}, []any{"Küpür", "Vardiya adet", "Gün sonu adet"})
	var dayCounts models.Denominations
	if rep.DayClose != nil {
		dayCounts = rep.DayClose.Denominations
	}
	dayPairs := dayCounts.Pairs()
	for i, p := range rep.ShiftDenominations.Pairs() {
		rows = append(rows, []any{p[0], p[1], dayPairs[i][1]})
	}
	if err := writeRows(f, sheetSummary, rows); err != nil {
		return err
	}

	shiftRows := [][]any{{"No", "Kasiyer", "Başlangıç", "Bitiş", "Durum", "Kasa", "Not"}}
	for _, s := range rep.Shifts {
		end := ""
		if s.EndTime != nil {
			end = s.EndTime.Format("15:04:05")
		}
		shiftRows = append(shiftRows, []any{
			s.ShiftNo, s.LoginName, s.StartTime.Format("15:04:05"), end,
			string(s.Status), s.TotalCash.StringFixed(2), s.Note,
		})
	}
	if err := writeRows(f, sheetShifts, shiftRows); err != nil {
		return err
	}

	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
