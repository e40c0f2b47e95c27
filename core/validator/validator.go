package validator

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"go-schedule-api/core/constants"

	"github.com/go-playground/validator/v10"
)

var hhmm = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

const (
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrInvalidFormat      = "Invalid format"
	ErrInvalidValue       = "Invalid value"
	ErrUnknownValidation  = "Unknown validation error"
)

// EchoValidator adapts go-playground/validator to echo.Validator.
type EchoValidator struct {
	validate *validator.Validate
}

func New() *EchoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slotdate", validateSlotDate)
	_ = v.RegisterValidation("slottime", validateSlotTime)
	_ = v.RegisterValidation("runemax", validateRuneMax)
	return &EchoValidator{validate: v}
}

func (ev *EchoValidator) Validate(i any) error {
	return parseValidationErrors(ev.validate.Struct(i))
}

func validateSlotDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(constants.SlotDateLayout, fl.Field().String())
	return err == nil
}

func validateSlotTime(fl validator.FieldLevel) bool {
	return hhmm.MatchString(fl.Field().String())
}

// runemax counts characters rather than bytes, so names in any script get the same limit.
func validateRuneMax(fl validator.FieldLevel) bool {
	var limit int
	if _, err := fmt.Sscan(fl.Param(), &limit); err != nil {
		return false
	}
	return utf8.RuneCountInString(fl.Field().String()) <= limit
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "max", "runemax":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "slotdate", "slottime":
		msg = ErrInvalidFormat
	case "oneof":
		msg = ErrInvalidValue
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
