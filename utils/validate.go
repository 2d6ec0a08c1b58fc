package utils

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance. Opt fields validate as their inner
// value when present and are skipped when absent or null.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(optValue,
		Opt[string]{}, Opt[int]{}, Opt[float64]{}, Opt[bool]{})
	return v
}

func optValue(field reflect.Value) interface{} {
	switch o := field.Interface().(type) {
	case Opt[string]:
		if o.Present() {
			return o.Value
		}
	case Opt[int]:
		if o.Present() {
			return o.Value
		}
	case Opt[float64]:
		if o.Present() {
			return o.Value
		}
	case Opt[bool]:
		if o.Present() {
			return o.Value
		}
	}
	return nil
}
