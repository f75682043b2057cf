package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Exchange-qualified symbols ("BINANCE:BTCUSDT"), pairs ("BTC/USD") and
// index tickers ("^GSPC") are all accepted.
var tickerRe = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.:/_=-]{0,31}$`)

var (
	validate = newValidator()
	messages = map[string]string{}
)

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their query parameter name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return IsTicker(fl.Field().String())
	})
	_ = v.RegisterValidation("tickers", func(fl validator.FieldLevel) bool {
		need, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		syms := SplitTickers(fl.Field().String())
		if len(syms) < need {
			return false
		}
		for _, s := range syms {
			if !IsTicker(s) {
				return false
			}
		}
		return true
	})
	return v
}

// RegisterValidation adds a string rule usable in validate tags. message is
// a format whose only verb receives the field name. Call it from init.
func RegisterValidation(tag, message string, fn func(string) bool) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", tag, err)
	}
	messages[tag] = message
	return nil
}

// IsTicker reports whether s, ignoring case and surrounding space, looks
// like a ticker symbol.
func IsTicker(s string) bool {
	return tickerRe.MatchString(NormalizeTicker(s))
}

func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// SplitTickers splits a comma separated list into normalized symbols,
// dropping blanks and repeats while keeping the first-seen order.
func SplitTickers(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range strings.Split(raw, ",") {
		s = NormalizeTicker(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ReadAndValidateRequest binds query parameters into req, applies struct
// defaults and validates it. It returns nil when req is usable.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Value:   fmt.Sprint(fe.Value()),
				Message: errorMessage(fe),
				Params:  errorParams(fe),
			})
		}
		return out
	}

	// bind failures, e.g. a non-numeric gasPrice
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_BIND", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_BIND", Message: err.Error()}}
}

func errorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ticker":
		return fmt.Sprintf("%s must be a ticker symbol", field)
	case "tickers":
		return fmt.Sprintf("%s must list at least %s distinct ticker symbols", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	}
	if msg, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(msg, field)
	}
	return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
}

func errorParams(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "tickers", "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Split(fe.Param(), " ")}
	}
	return nil
}
