package validator

import (
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func registerCustomRules(v *validator.Validate) {
	// A rule that fails to register is a startup bug.
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'notblank': a string that is not only whitespace
	mustRegister("notblank", validateNotBlank)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true // 'required' handles nil
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}
