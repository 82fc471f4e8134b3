package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[0-9+\-\s()]{7,20}$`)

// BookingRequest поля формы бронирования
type BookingRequest struct {
	Date            string `json:"date" validate:"required"`
	TimeSlot        string `json:"timeSlot" validate:"required,timeslot"`
	SchoolName      string `json:"schoolName" validate:"required,max=200"`
	ContactName     string `json:"contactName" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Phone           string `json:"phone" validate:"required,phone"`
	Address         string `json:"address" validate:"required,max=300"`
	City            string `json:"city" validate:"required,max=100"`
	NumberOfTalks   int    `json:"numberOfTalks" validate:"required,min=1,max=5"`
	IncludeWorkshop bool   `json:"includeWorkshop"`
}

// BookingPatchRequest частичное обновление; nil поле не меняется
type BookingPatchRequest struct {
	Date            *string `json:"date"`
	TimeSlot        *string `json:"timeSlot"`
	SchoolName      *string `json:"schoolName"`
	ContactName     *string `json:"contactName"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	City            *string `json:"city"`
	NumberOfTalks   *int    `json:"numberOfTalks"`
	IncludeWorkshop *bool   `json:"includeWorkshop"`
}

func (p BookingPatchRequest) isEmpty() bool {
	return p == BookingPatchRequest{}
}

func (r *BookingRequest) normalize() {
	for _, s := range []*string{&r.Date, &r.TimeSlot, &r.SchoolName, &r.ContactName, &r.Email, &r.Phone, &r.Address, &r.City} {
		*s = strings.TrimSpace(*s)
	}
}

// merge накладывает патч на текущие значения
func (r BookingRequest) merge(p BookingPatchRequest) BookingRequest {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.Date, p.Date)
	set(&r.TimeSlot, p.TimeSlot)
	set(&r.SchoolName, p.SchoolName)
	set(&r.ContactName, p.ContactName)
	set(&r.Email, p.Email)
	set(&r.Phone, p.Phone)
	set(&r.Address, p.Address)
	set(&r.City, p.City)
	if p.NumberOfTalks != nil {
		r.NumberOfTalks = *p.NumberOfTalks
	}
	if p.IncludeWorkshop != nil {
		r.IncludeWorkshop = *p.IncludeWorkshop
	}
	r.normalize()
	return r
}

// newValidator валидатор с правилами phone и timeslot, поля называются по json-тегам
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return model.TimeSlot(fl.Field().String()).Valid()
	})

	return v
}

// validateStruct переводит ошибки validator в ValidationError
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be 7-20 characters of digits, spaces, +, - or parentheses"
	case "timeslot":
		return "must be a half-hour slot between 8:00 AM and 4:30 PM"
	case "min", "max":
		if fe.Field() == "numberOfTalks" {
			return "must be between 1 and 5"
		}
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
