package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/triviastake/internal/api/apierr"
)

const maxBodyBytes = 1 << 20

var fingerprintPattern = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("fingerprint", func(fl validator.FieldLevel) bool {
			return fingerprintPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Decode reads a JSON body into dst and validates it. Any failure is
// returned as an invalid request error naming the offending field.
func Decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.NewInvalidRequestError("request body is required")
		}
		return apierr.NewInvalidRequestError("request body is not valid JSON")
	}
	return Validate(dst)
}

// Validate runs struct tag validation on v
func Validate(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apierr.NewInvalidRequestError("invalid request")
	}
	return apierr.NewInvalidRequestError(describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "fingerprint":
		return fmt.Sprintf("%s must be 0x-prefixed hex", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
