package api

import (
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain enum rules to gin's binding validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("cabinclass", func(fl validator.FieldLevel) bool {
		return domain.CabinClass(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("bookingstatus", func(fl validator.FieldLevel) bool {
		return domain.BookingStatus(fl.Field().String()).Valid()
	})
}
