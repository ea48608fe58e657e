package dto

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"registracion/internal/core/id"
)

// TagGUID marks fields that must hold a canonical 8-4-4-4-12 identifier.
const TagGUID = "guid"

var registerOnce sync.Once

// RegisterValidators installs the custom rules on gin's validator engine.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation(TagGUID, validateGUID)
		v.RegisterTagNameFunc(jsonFieldName)
	})
}

func validateGUID(fl validator.FieldLevel) bool {
	_, ok := id.Strict(fl.Field().String())
	return ok
}

// jsonFieldName reports fields by their wire name in validation errors.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
