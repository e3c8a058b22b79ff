package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Hata mesajlarında json alan adları görünsün
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("isodate", validateISODate)
	return v
}

// Struct gövdeyi doğrular; hata varsa 400 döner.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fiber.NewError(fiber.StatusBadRequest, strings.Join(msgs, "; "))
}

// BodyParser gövdeyi okuyup doğrular.
func BodyParser(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
	}
	return Struct(out)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s zorunlu", field)
	case "gte", "min":
		return fmt.Sprintf("%s en az %s olmalı", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s %s'dan büyük olmalı", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s en fazla %s olmalı", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s şunlardan biri olmalı: %s", field, fe.Param())
	case "isodate":
		return fmt.Sprintf("%s tarih formatı geçersiz, 'YYYY-MM-DD' olmalı", field)
	default:
		return fmt.Sprintf("%s geçersiz (%s)", field, fe.Tag())
	}
}
