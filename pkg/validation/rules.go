package validation

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("work_order_number", isWorkOrderNumber); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_in_past", isNotInPast); err != nil {
		return err
	}
	return nil
}

// isWorkOrderNumber - формат ГГММДД + 3 цифры, например "260831042"
func isWorkOrderNumber(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^\d{6}\d{3}$`)
	s := fl.Field().String()
	if !re.MatchString(s) {
		return false
	}
	_, err := time.Parse("060102", s[:6])
	return err == nil
}

// isNotInPast - плановая дата не должна быть в глубоком прошлом (допуск сутки)
func isNotInPast(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.After(time.Now().Add(-24 * time.Hour))
}
