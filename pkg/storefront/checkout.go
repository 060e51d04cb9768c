package storefront

import (
	"context"
	"errors"
	"strings"
)

// ValidationError is a checkout form problem detected before contacting the origin.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNoOrder is returned when checkout succeeds without an order in the reply.
var ErrNoOrder = errors.New("storefront: checkout returned no order")

type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CheckoutForm is what the shopper filled in.
type CheckoutForm struct {
	Billing Address
	// Shipping is only used when ShipToBilling is false and the cart needs shipping.
	Shipping       Address
	ShipToBilling  bool
	PaymentMethod  string
	ShippingMethod string
	CustomerNote   string
}

// Validate checks the form in display order and reports the first problem.
func (f *CheckoutForm) Validate(needsShipping bool) error {
	checks := []struct {
		value, msg string
	}{
		{f.Billing.FirstName, "Billing first name is required."},
		{f.Billing.LastName, "Billing last name is required."},
		{f.Billing.Email, "Email is required."},
		{f.Billing.Address1, "Billing address is required."},
		{f.Billing.City, "Billing city is required."},
		{f.Billing.State, "Billing state is required."},
		{f.Billing.Postcode, "Billing postal code is required."},
		{f.Billing.Country, "Billing country is required."},
	}
	if needsShipping && !f.ShipToBilling {
		checks = append(checks, []struct{ value, msg string }{
			{f.Shipping.FirstName, "Shipping first name is required."},
			{f.Shipping.LastName, "Shipping last name is required."},
			{f.Shipping.Address1, "Shipping address is required."},
			{f.Shipping.City, "Shipping city is required."},
			{f.Shipping.State, "Shipping state is required."},
			{f.Shipping.Postcode, "Shipping postal code is required."},
			{f.Shipping.Country, "Shipping country is required."},
		}...)
	}
	checks = append(checks, struct{ value, msg string }{f.PaymentMethod, "Please select a payment method."})

	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return &ValidationError{Message: c.msg}
		}
	}
	return nil
}

func (f *CheckoutForm) input(needsShipping bool) map[string]any {
	shipDifferent := needsShipping && !f.ShipToBilling
	in := map[string]any{
		"billing":                f.Billing,
		"shipToDifferentAddress": shipDifferent,
		"paymentMethod":          f.PaymentMethod,
	}
	if shipDifferent {
		in["shipping"] = f.Shipping
	}
	if f.ShippingMethod != "" {
		in["shippingMethod"] = []string{f.ShippingMethod}
	}
	if f.CustomerNote != "" {
		in["customerNote"] = f.CustomerNote
	}
	return in
}

// CheckoutResult is the origin's answer to a placed order.
type CheckoutResult struct {
	Order    Order  `json:"order"`
	Result   string `json:"result"`
	Redirect string `json:"redirect"`
}

// Checkout validates the form, places the order, keeps it in the session's
// order store and invalidates the cart. A failed cart refresh afterwards does
// not fail the checkout.
func (s *CartStore) Checkout(ctx context.Context, form *CheckoutForm) (*CheckoutResult, error) {
	needsShipping := false
	if c := s.Snapshot(); c != nil {
		needsShipping = c.NeedsShippingAddress
	}
	if err := form.Validate(needsShipping); err != nil {
		return nil, err
	}

	var out struct {
		Checkout *struct {
			Order    *Order `json:"order"`
			Result   string `json:"result"`
			Redirect string `json:"redirect"`
		} `json:"checkout"`
	}
	if err := s.fetcher.Do(ctx, checkoutMutation, map[string]any{"input": form.input(needsShipping)}, &out); err != nil {
		return nil, err
	}
	if out.Checkout == nil || out.Checkout.Order == nil {
		return nil, ErrNoOrder
	}

	res := &CheckoutResult{Order: *out.Checkout.Order, Result: out.Checkout.Result, Redirect: out.Checkout.Redirect}
	if err := s.orders.Save(&res.Order); err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("failed to keep placed order")
	}

	s.Invalidate()
	if _, err := s.Cart(ctx); err != nil && s.logger != nil {
		s.logger.WithError(err).Debug("cart refresh after checkout failed")
	}
	return res, nil
}

// Order returns an order placed earlier in this session.
func (s *CartStore) Order(databaseID int) (*Order, bool) {
	return s.orders.Load(databaseID)
}
