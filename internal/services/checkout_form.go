package services

import (
	"reflect"
	"regexp"
	"strings"

	pkgerrors "storefront/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CheckoutForm is the shipping and payment form. Card fields are forwarded to
// the backend as entered and never stored.
type CheckoutForm struct {
	FullName             string `json:"full_name" validate:"required"`
	Email                string `json:"email" validate:"required,shopper_email"`
	Phone                string `json:"phone" validate:"required"`
	Address              string `json:"address" validate:"required"`
	City                 string `json:"city" validate:"required"`
	State                string `json:"state" validate:"required"`
	PostalCode           string `json:"postal_code" validate:"required"`
	CardNumber           string `json:"card_number" validate:"required"`
	Expiry               string `json:"expiry" validate:"required"`
	CVV                  string `json:"cvv" validate:"required"`
	DeliveryInstructions string `json:"delivery_instructions"`
	ShippingMethod       string `json:"shipping_method"`
}

var requiredMessages = map[string]string{
	"full_name":   "Full name is required",
	"email":       "Email is required",
	"phone":       "Phone is required",
	"address":     "Address is required",
	"city":        "City is required",
	"state":       "State is required",
	"postal_code": "Postal code is required",
	"card_number": "Card number is required",
	"expiry":      "Expiry date is required",
	"cvv":         "CVV is required",
}

var checkoutValidator = newCheckoutValidator()

func newCheckoutValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("shopper_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// Normalize trims every field in place.
func (f *CheckoutForm) Normalize() {
	for _, field := range []*string{
		&f.FullName, &f.Email, &f.Phone, &f.Address, &f.City, &f.State,
		&f.PostalCode, &f.CardNumber, &f.Expiry, &f.CVV,
		&f.DeliveryInstructions, &f.ShippingMethod,
	} {
		*field = strings.TrimSpace(*field)
	}
}

// Validate returns nil or a CodeValidation error whose details map each json
// field name to its message.
func (f *CheckoutForm) Validate() error {
	f.Normalize()
	err := checkoutValidator.Struct(f)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Please fill in all required fields")
	}
	details := map[string]string{}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = requiredMessages[fe.Field()]
		case "shopper_email":
			details[fe.Field()] = "Please enter a valid email"
		default:
			details[fe.Field()] = "is invalid"
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "Please fill in all required fields").WithDetails(details)
}

// SplitName puts the first word in first and the rest in last.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
