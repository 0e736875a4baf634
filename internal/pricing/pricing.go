// Package pricing derives the display totals shown on the cart and checkout
// pages. The backend recomputes and validates every amount; nothing here is
// authoritative.
package pricing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "storefront/pkg/errors"

	"github.com/shopspring/decimal"
)

const deliveryDateLayout = "Mon, Jan 2"

const (
	TierStandard  = "standard"
	TierExpress   = "express"
	TierOvernight = "overnight"
)

type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"subtotal": t.Subtotal.StringFixed(2),
		"shipping": t.Shipping.StringFixed(2),
		"tax":      t.Tax.StringFixed(2),
		"total":    t.Total.StringFixed(2),
	})
}

// FreeShipping reports whether the shipping line is zero.
func (t Totals) FreeShipping() bool {
	return t.Shipping.IsZero()
}

// CartPolicy prices the cart page: a flat shipping fee waived strictly above
// a threshold.
type CartPolicy struct {
	FreeShippingOver decimal.Decimal
	FlatShipping     decimal.Decimal
	TaxRate          decimal.Decimal
}

func DefaultCartPolicy() CartPolicy {
	return CartPolicy{
		FreeShippingOver: decimal.NewFromInt(100),
		FlatShipping:     decimal.RequireFromString("15.99"),
		TaxRate:          decimal.RequireFromString("0.08"),
	}
}

func (p CartPolicy) Totals(subtotal decimal.Decimal) (Totals, error) {
	if subtotal.IsNegative() {
		return Totals{}, errNegativeSubtotal(subtotal)
	}
	shipping := p.FlatShipping
	if subtotal.GreaterThan(p.FreeShippingOver) {
		shipping = decimal.Zero
	}
	return compose(subtotal, shipping, p.TaxRate), nil
}

type ShippingOption struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Window      string          `json:"window"`
	TransitDays int             `json:"transit_days"`
}

// EstimatedDelivery is the arrival date shown to the shopper, e.g. "Fri, Mar 7".
func (o ShippingOption) EstimatedDelivery(now time.Time) string {
	return now.AddDate(0, 0, o.TransitDays).Format(deliveryDateLayout)
}

// CheckoutPolicy prices the checkout page. The standard tier is free from
// FreeStandardFrom upwards (inclusive); the other tiers always cost their price.
type CheckoutPolicy struct {
	FreeStandardFrom decimal.Decimal
	TaxRate          decimal.Decimal
	Options          []ShippingOption
}

func DefaultCheckoutPolicy() CheckoutPolicy {
	return CheckoutPolicy{
		FreeStandardFrom: decimal.NewFromInt(50),
		TaxRate:          decimal.RequireFromString("0.08"),
		Options:          DefaultShippingOptions(decimal.Zero),
	}
}

func DefaultShippingOptions(standardPrice decimal.Decimal) []ShippingOption {
	return []ShippingOption{
		{ID: TierStandard, Name: "Standard Shipping", Price: standardPrice, Window: "5-7 business days", TransitDays: 7},
		{ID: TierExpress, Name: "Express Shipping", Price: decimal.RequireFromString("15.99"), Window: "2-3 business days", TransitDays: 3},
		{ID: TierOvernight, Name: "Overnight Shipping", Price: decimal.RequireFromString("29.99"), Window: "1 business day", TransitDays: 1},
	}
}

func (p CheckoutPolicy) Option(id string) (ShippingOption, error) {
	want := strings.ToLower(strings.TrimSpace(id))
	if want == "" {
		want = TierStandard
	}
	for _, opt := range p.Options {
		if opt.ID == want {
			return opt, nil
		}
	}
	return ShippingOption{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown shipping method %q", id))
}

func (p CheckoutPolicy) Totals(subtotal decimal.Decimal, tier string) (Totals, ShippingOption, error) {
	if subtotal.IsNegative() {
		return Totals{}, ShippingOption{}, errNegativeSubtotal(subtotal)
	}
	opt, err := p.Option(tier)
	if err != nil {
		return Totals{}, ShippingOption{}, err
	}
	shipping := opt.Price
	if opt.ID == TierStandard && subtotal.GreaterThanOrEqual(p.FreeStandardFrom) {
		shipping = decimal.Zero
	}
	return compose(subtotal, shipping, p.TaxRate), opt, nil
}

func compose(subtotal, shipping, rate decimal.Decimal) Totals {
	tax := Round(subtotal.Mul(rate))
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// Round rounds to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount for display: "$12.34".
func Format(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid amount %q", raw))
	}
	return d, nil
}

func errNegativeSubtotal(subtotal decimal.Decimal) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative").
		WithDetails(map[string]string{"subtotal": subtotal.String()})
}
