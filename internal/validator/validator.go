package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"creditmart/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

var (
	digitsRe = regexp.MustCompile(`^[0-9]*$`)
	phoneRe  = regexp.MustCompile(`^\+?[0-9 ()-]*$`)
)

// RequestValidator plugs go-playground/validator into echo (e.Validator).
type RequestValidator struct {
	v *playground.Validate
}

func New() *RequestValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	// json名でエラーを返す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "ippis", func(fl playground.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 20 && digitsRe.MatchString(s)
	})
	mustRegister(v, "phone", func(fl playground.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 30 && phoneRe.MatchString(s)
	})

	return &RequestValidator{v: v}
}

// 起動時の設定ミスなので落とす
func mustRegister(v *playground.Validate, tag string, fn playground.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate implements echo.Validator. Failures come back as 400 validation errors.
func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.v.Struct(i); err != nil {
		return usecase.NewValidationError(message(err))
	}
	return nil
}

func message(err error) string {
	var ve playground.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf("%s is out of range", fe.Field())
	case "ippis":
		return fe.Field() + " must be digits only (max 20)"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
