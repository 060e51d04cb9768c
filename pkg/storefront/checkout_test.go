package storefront_test

import (
	"context"
	"errors"
	"testing"

	"github.com/avatarctic/headless-gateway/pkg/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeForm() *storefront.CheckoutForm {
	addr := storefront.Address{
		FirstName: "Ada", LastName: "Lovelace", Address1: "1 Analytical Way",
		City: "London", State: "LDN", Postcode: "N1", Country: "GB", Email: "ada@example.com",
	}
	return &storefront.CheckoutForm{Billing: addr, ShipToBilling: true, PaymentMethod: "cod"}
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var ve *storefront.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Message
}

func TestCheckoutForm_Validate(t *testing.T) {
	f := completeForm()
	assert.NoError(t, f.Validate(true))

	f.Billing.Email = ""
	f.Billing.City = ""
	assert.Equal(t, "Email is required.", validationMessage(t, f.Validate(false)))

	f = completeForm()
	f.PaymentMethod = ""
	assert.Equal(t, "Please select a payment method.", validationMessage(t, f.Validate(false)))

	f = completeForm()
	f.ShipToBilling = false
	assert.Equal(t, "Shipping first name is required.", validationMessage(t, f.Validate(true)))
	assert.NoError(t, f.Validate(false), "shipping is ignored when nothing ships")
}

func TestCheckout_StoresOrderAndRefreshesCart(t *testing.T) {
	var input map[string]any
	cartReads := 0
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		if v == nil {
			cartReads++
			if cartReads > 1 {
				return `{"cart":{"contents":{"nodes":[],"itemCount":0}}}`, nil
			}
			return twoItemCart, nil
		}
		input = v["input"].(map[string]any)
		return `{"checkout":{"order":{"databaseId":42,"orderNumber":"42","status":"PROCESSING","total":"$25.00"},"result":"success","redirect":""}}`, nil
	}}
	s := loadedStore(t, f)

	res, err := s.Checkout(context.Background(), completeForm())
	require.NoError(t, err)
	assert.Equal(t, 42, res.Order.DatabaseID)
	assert.Equal(t, "success", res.Result)
	assert.Equal(t, false, input["shipToDifferentAddress"])
	assert.NotContains(t, input, "shipping")

	stored, ok := s.Order(42)
	require.True(t, ok)
	assert.Equal(t, "PROCESSING", stored.Status)
	assert.Equal(t, "order_42", storefront.OrderKey(42))

	assert.Equal(t, 0, s.ItemCount())
}

func TestCheckout_InvalidFormNeverCallsOrigin(t *testing.T) {
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		if v != nil {
			t.Fatal("checkout must not reach the origin")
		}
		return twoItemCart, nil
	}}
	s := loadedStore(t, f)

	form := completeForm()
	form.Billing.FirstName = ""
	_, err := s.Checkout(context.Background(), form)
	assert.Equal(t, "Billing first name is required.", validationMessage(t, err))
}

func TestOrderStore_IsBounded(t *testing.T) {
	o := storefront.NewOrderStore(1)
	require.NoError(t, o.Save(&storefront.Order{DatabaseID: 1}))
	require.NoError(t, o.Save(&storefront.Order{DatabaseID: 2}))

	_, ok := o.Load(1)
	assert.False(t, ok)
	_, ok = o.Load(2)
	assert.True(t, ok)
}
