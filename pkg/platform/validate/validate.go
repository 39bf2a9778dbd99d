// Package validate wraps go-playground/validator with the clinic's custom
// tags and turns validator failures into a single domain validation error
// carrying every failing field.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/email"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	expiryRegex = regexp.MustCompile(`^\d{2}/\d{2}$`)
	digitsRegex = regexp.MustCompile(`^\d+$`)
	// Two-digit hours only, so clocks order correctly as text.
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// tagMessages renders a failing tag. %s is replaced by the field name, and
// tags with a parameter get it appended after the message.
var tagMessages = map[string]string{
	"required":    "%s is required",
	"required_if": "%s is required",
	"looseemail":  "please enter a valid email",
	"date":        "use format YYYY-MM-DD",
	"clock":       "use format HH:MM",
	"card16":      "card number must be 16 digits",
	"expiry":      "use format MM/YY",
	"cvv3":        "CVV must be 3 digits",
	"min":         "%s must be at least",
	"gte":         "%s must be at least",
	"oneof":       "%s must be one of",
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return email.Valid(fl.Field().String())
	})
	_ = v.RegisterValidation("card16", func(fl validator.FieldLevel) bool {
		digits := StripCardSeparators(fl.Field().String())
		return len(digits) == 16 && digitsRegex.MatchString(digits)
	})
	_ = v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
		return expiryRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("cvv3", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) == 3 && digitsRegex.MatchString(s)
	})

	return &Validator{v: v}
}

// Struct validates s and returns nil or a CodeValidation error whose Fields
// hold one message per failing field. All fields are checked; validation
// does not stop at the first failure.
func (v *Validator) Struct(s any, message string) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "validator misconfigured")
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = render(fe)
	}
	return dErrors.Validation(message, fields)
}

// StripCardSeparators removes the spaces and dashes users type between
// card number groups.
func StripCardSeparators(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

func render(fe validator.FieldError) string {
	tmpl, ok := tagMessages[fe.Tag()]
	if !ok {
		return fe.Field() + " is invalid"
	}
	msg := strings.Replace(tmpl, "%s", fe.Field(), 1)
	if fe.Param() != "" && fe.Tag() != "required_if" {
		msg += " " + fe.Param()
	}
	return msg
}
