package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"venivici/pkg/logger"
	"venivici/pkg/model"
	"venivici/pkg/sanitizer"
)

const DateLayout = "2006-01-02"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	custom := map[string]validator.Func{
		"booking_date":   validateBookingDate,
		"payment_status": validatePaymentStatus,
		"phone":          validatePhone,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register booking validator",
				"tag", tag,
				"error", err,
			)
		}
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	return v.check(req)
}

func (v *BookingValidator) ValidatePayment(req *model.PaymentRequest) error {
	return v.check(req)
}

func (v *BookingValidator) ValidateVerification(req *model.VerifyPaymentRequest) error {
	return v.check(req)
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	if update.IsEmpty() {
		return ValidationErrors{{Field: "body", Message: "at least one of paymentStatus, status or notes must be provided"}}
	}
	return v.check(update)
}

func (v *BookingValidator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return v.translateValidationErrors(validationErrs)
	}
	return err
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "email":
			message = "must be a valid email address"
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "mongodb":
			message = "must be a valid service id"
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "booking_date":
			message = "must be a date in YYYY-MM-DD format"
		case "payment_status":
			message = fmt.Sprintf("must be one of: %s", paymentStatusList())
		case "phone":
			message = "must be a valid phone number"
		default:
			message = err.Error()
		}
		out = append(out, ValidationError{Field: err.Field(), Message: message})
	}
	return out
}

// ParseBookingDate accepts a calendar date or a full RFC3339 timestamp.
func ParseBookingDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func validateBookingDate(fl validator.FieldLevel) bool {
	_, err := ParseBookingDate(fl.Field().String())
	return err == nil
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	return model.PaymentStatus(fl.Field().String()).Valid()
}

func validatePhone(fl validator.FieldLevel) bool {
	return sanitizer.NormalizePhone(fl.Field().String()) != ""
}

func paymentStatusList() string {
	names := make([]string, 0, len(model.PaymentStatuses))
	for _, s := range model.PaymentStatuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
