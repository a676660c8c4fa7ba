package middleware

import (
	"reflect"
	"strings"

	"slot-reservation/internal/domain/booking"
	"slot-reservation/internal/domain/slot"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the slotid and bookingid tags to gin's binding validator and reports
// fields by their wire name.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(wireName)
	if err := v.RegisterValidation("slotid", validateSlotID); err != nil {
		return err
	}
	return v.RegisterValidation("bookingid", validateBookingID)
}

func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func validateSlotID(fl validator.FieldLevel) bool {
	return slot.ValidateSlotID(fl.Field().String()) == nil
}

func validateBookingID(fl validator.FieldLevel) bool {
	return booking.ValidateID(fl.Field().String()) == nil
}
