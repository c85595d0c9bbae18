package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"agency-backend/models"
)

// ErrMalformedBody means the request body is not parseable JSON.
var ErrMalformedBody = errors.New("malformed_body")

const (
	msgExpectedObject = "Invalid input: expected object"
	msgExpectedString = "Invalid input: expected string"
	msgInvalidType    = "Invalid booking type"
)

// ValidationErrors is the 400 body of a rejected submission: form-level
// messages plus the first violated constraint per field.
type ValidationErrors struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func newValidationErrors() *ValidationErrors {
	return &ValidationErrors{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

func (e *ValidationErrors) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fmt.Sprintf("validation failed: form=%v fields=%v", e.FormErrors, fields)
}

func (e *ValidationErrors) add(field, msg string) {
	if len(e.FieldErrors[field]) > 0 {
		return
	}
	e.FieldErrors[field] = []string{msg}
}

func (e *ValidationErrors) empty() bool {
	return len(e.FormErrors) == 0 && len(e.FieldErrors) == 0
}

// BookingContact holds the fields both booking variants share.
type BookingContact struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,max=254,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
}

type consultationInput struct {
	BookingContact
	PreferredDate string `json:"preferredDate" validate:"required,notpast"`
	PreferredTime string `json:"preferredTime" validate:"required,timeslot"`
	Description   string `json:"description" validate:"max=500"`
}

type projectInput struct {
	BookingContact
	Service     string `json:"service" validate:"required,service"`
	BudgetRange string `json:"budgetRange" validate:"required,budgetrange"`
	Timeline    string `json:"timeline" validate:"required,timeline"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
}

type ConsultationDetails struct {
	PreferredDate time.Time
	PreferredTime string
}

type ProjectDetails struct {
	Service     models.ServiceType
	BudgetRange string
	Timeline    string
}

// ValidatedBooking is a submission that passed the schema. Exactly one of
// Consultation or Project is set, matching Type.
type ValidatedBooking struct {
	Type        models.BookingType
	Contact     BookingContact
	Source      *string
	Description *string

	Consultation *ConsultationDetails
	Project      *ProjectDetails
}

// BookingValidator checks raw submissions against the booking schema.
type BookingValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewBookingValidator() *BookingValidator {
	return NewBookingValidatorWithClock(time.Now)
}

// NewBookingValidatorWithClock uses now for the "today" bound of
// preferredDate, in now's location.
func NewBookingValidatorWithClock(now func() time.Time) *BookingValidator {
	bv := &BookingValidator{validate: validator.New(validator.WithRequiredStructEnabled()), now: now}

	bv.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	// registration only fails on empty tags or nil funcs
	_ = bv.validate.RegisterValidation("notpast", bv.notPast)
	_ = bv.validate.RegisterValidation("timeslot", oneOf(models.TimeSlots))
	_ = bv.validate.RegisterValidation("budgetrange", oneOf(models.BudgetRanges))
	_ = bv.validate.RegisterValidation("timeline", oneOf(models.TimelineOptions))
	_ = bv.validate.RegisterValidation("service", oneOf(models.ServiceOptions))

	return bv
}

func oneOf[T ~string](options []T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(options, T(fl.Field().String()))
	}
}

func (bv *BookingValidator) notPast(fl validator.FieldLevel) bool {
	d, ok := bv.parseDate(fl.Field().String())
	if !ok {
		return false
	}
	return !d.Before(startOfDay(bv.now()))
}

func (bv *BookingValidator) parseDate(s string) (time.Time, bool) {
	loc := bv.now().Location()
	if d, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d.In(loc), true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Validate parses body and applies the schema selected by its "type" field.
// It returns *ValidationErrors when the input is rejected and wraps
// ErrMalformedBody when body is not JSON.
func (bv *BookingValidator) Validate(body []byte) (*ValidatedBooking, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	verrs := newValidationErrors()
	obj, ok := raw.(map[string]any)
	if !ok {
		verrs.FormErrors = append(verrs.FormErrors, msgExpectedObject)
		return nil, verrs
	}

	str := func(field string, trim bool) string {
		v, present := obj[field]
		if !present || v == nil {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			verrs.add(field, msgExpectedString)
			return ""
		}
		if trim {
			s = strings.TrimSpace(s)
		}
		return s
	}

	typ, _ := obj["type"].(string)
	bookingType := models.BookingType(typ)

	contact := BookingContact{
		FullName: str("fullName", true),
		Email:    str("email", true),
		Phone:    str("phone", true),
	}
	out := &ValidatedBooking{
		Type:        bookingType,
		Contact:     contact,
		Source:      optional(str("source", true)),
		Description: optional(str("description", true)),
	}

	var input any
	switch bookingType {
	case models.BookingTypeConsultation:
		in := consultationInput{
			BookingContact: contact,
			PreferredDate:  str("preferredDate", false),
			PreferredTime:  str("preferredTime", false),
			Description:    derefOr(out.Description),
		}
		input = in
		if d, ok := bv.parseDate(in.PreferredDate); ok {
			out.Consultation = &ConsultationDetails{PreferredDate: startOfDay(d), PreferredTime: in.PreferredTime}
		}
	case models.BookingTypeProject:
		in := projectInput{
			BookingContact: contact,
			Service:        str("service", false),
			BudgetRange:    str("budgetRange", false),
			Timeline:       str("timeline", false),
			Description:    derefOr(out.Description),
		}
		input = in
		out.Project = &ProjectDetails{
			Service:     models.ServiceType(in.Service),
			BudgetRange: in.BudgetRange,
			Timeline:    in.Timeline,
		}
	default:
		return nil, &ValidationErrors{
			FormErrors:  []string{},
			FieldErrors: map[string][]string{"type": {msgInvalidType}},
		}
	}

	if err := bv.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		for _, fe := range fieldErrs {
			verrs.add(fe.Field(), fieldMessage(bookingType, fe.Field(), fe.Tag()))
		}
	}

	if !verrs.empty() {
		return nil, verrs
	}
	return out, nil
}

func fieldMessage(t models.BookingType, field, tag string) string {
	switch field {
	case "fullName":
		if tag == "max" {
			return "Name must be under 100 characters"
		}
		return "Name must be at least 2 characters"
	case "email":
		return "Please enter a valid email address"
	case "phone":
		if tag == "max" {
			return "Phone number is too long"
		}
		return "Phone number must be at least 7 digits"
	case "preferredDate":
		return "Please select a future date"
	case "preferredTime":
		return "Please select a valid time slot"
	case "service":
		return "Please select a service"
	case "budgetRange":
		return "Please select a budget range"
	case "timeline":
		return "Please select a timeline"
	case "description":
		if t == models.BookingTypeConsultation {
			return "Notes must be under 500 characters"
		}
		if tag == "max" {
			return "Description must be under 2000 characters"
		}
		return "Please describe your project (at least 10 characters)"
	}
	return "Invalid input"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
