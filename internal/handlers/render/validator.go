package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/bankmatch/internal/service/varsym"
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("varsym", validateVariableSymbol)
	v.RegisterTagNameFunc(useJSONTagNames)
	return v
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateVariableSymbol(fl validator.FieldLevel) bool {
	return varsym.IsValid(fl.Field().String())
}
