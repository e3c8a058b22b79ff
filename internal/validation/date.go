package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ParseDate "2025-01-15" veya RFC3339 kabul eder ve takvim gününü UTC gece
// yarısı olarak döner.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func validateISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true // zorunluluk "required" ile
	}
	_, err := ParseDate(s)
	return err == nil
}
