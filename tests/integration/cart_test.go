//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestCart_SessionIssued(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	sid := resp.Header.Get("X-Session-ID")
	if sid == "" {
		t.Fatal("X-Session-ID header not present")
	}
	if _, err := uuid.Parse(sid); err != nil {
		t.Fatalf("issued session ID is not a UUID: %q", sid)
	}
}

func TestCart_AddAndTotals(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sid, cartItemRequest{
		ProductID: "mn-004", Size: "M", Color: "Ecru", Quantity: 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cart, _ := decodeData[cartResponse](t, resp)
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].UnitPrice != 98000 {
		t.Errorf("unitPrice: got %v, want 98000", cart.Lines[0].UnitPrice)
	}
	if cart.Totals.Subtotal != 98000 {
		t.Errorf("subtotal: got %v, want 98000", cart.Totals.Subtotal)
	}
	// Below the free-shipping threshold, so the flat fee applies.
	if cart.Totals.Shipping != 5000 {
		t.Errorf("shipping: got %v, want 5000", cart.Totals.Shipping)
	}
	if cart.Totals.Tax != 17640 {
		t.Errorf("tax: got %v, want 17640", cart.Totals.Tax)
	}
	if cart.Totals.Total != 120640 {
		t.Errorf("total: got %v, want 120640", cart.Totals.Total)
	}
}

func TestCart_AddUsesSalePrice(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sid, cartItemRequest{
		ProductID: "mn-002", Size: "M", Color: "Camel", Quantity: 1,
	})
	defer resp.Body.Close()

	cart, _ := decodeData[cartResponse](t, resp)
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].UnitPrice != 399000 {
		t.Errorf("unitPrice: got %v, want sale price 399000", cart.Lines[0].UnitPrice)
	}
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	first := uuid.New().String()
	second := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", first, cartItemRequest{
		ProductID: "mn-001", Size: "S", Color: "Noir", Quantity: 1,
	})
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, "/api/cart", second, nil)
	defer resp.Body.Close()

	cart, _ := decodeData[cartResponse](t, resp)
	if len(cart.Lines) != 0 {
		t.Errorf("expected empty cart for a fresh session, got %d lines", len(cart.Lines))
	}
}

func TestCart_ApplyCoupon(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sid, cartItemRequest{
		ProductID: "mn-004", Size: "M", Color: "Ecru", Quantity: 1,
	})
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/cart/coupon", sid, couponRequest{Code: "save10"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cart, _ := decodeData[cartResponse](t, resp)
	if cart.CouponCode != "SAVE10" {
		t.Errorf("couponCode: got %q, want canonical SAVE10", cart.CouponCode)
	}
	if cart.Totals.Discount != 9800 {
		t.Errorf("discount: got %v, want 9800", cart.Totals.Discount)
	}
	// Free shipping keys off the raw subtotal, which stays below the
	// threshold here.
	if cart.Totals.Shipping != 5000 {
		t.Errorf("shipping: got %v, want 5000", cart.Totals.Shipping)
	}
	if cart.Totals.Tax != 15876 {
		t.Errorf("tax: got %v, want 15876", cart.Totals.Tax)
	}
	if cart.Totals.Total != 109076 {
		t.Errorf("total: got %v, want 109076", cart.Totals.Total)
	}
}

func TestCart_ApplyCoupon_Unknown(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/cart/coupon", sid, couponRequest{Code: "NOTACODE"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCart_ApplyCoupon_Conflict(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/cart/coupon", sid, couponRequest{Code: "SAVE10"})
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/cart/coupon", sid, couponRequest{Code: "WELCOME15"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCheckout(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sid, cartItemRequest{
		ProductID: "mn-001", Size: "S", Color: "Noir", Quantity: 2,
	})
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/cart/coupon", sid, couponRequest{Code: "SAVE10"})
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/checkout", sid, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order, _ := decodeData[orderResponse](t, resp)
	if order.ID == "" {
		t.Error("order ID is empty")
	}
	if order.Subtotal != 578000 {
		t.Errorf("subtotal: got %v, want 578000", order.Subtotal)
	}
	if order.Discount != 57800 {
		t.Errorf("discount: got %v, want 57800", order.Discount)
	}
	if order.Shipping != 0 {
		t.Errorf("shipping: got %v, want 0", order.Shipping)
	}
	if order.Tax != 93636 {
		t.Errorf("tax: got %v, want 93636", order.Tax)
	}
	if order.Total != 613836 {
		t.Errorf("total: got %v, want 613836", order.Total)
	}
	if order.CouponCode != "SAVE10" {
		t.Errorf("couponCode: got %q", order.CouponCode)
	}

	// Checkout clears the cart.
	resp = doRequest(t, http.MethodGet, "/api/cart", sid, nil)
	defer resp.Body.Close()

	cart, _ := decodeData[cartResponse](t, resp)
	if len(cart.Lines) != 0 {
		t.Errorf("expected empty cart after checkout, got %d lines", len(cart.Lines))
	}
	if cart.CouponCode != "" {
		t.Errorf("expected coupon cleared after checkout, got %q", cart.CouponCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodPost, "/api/checkout", sid, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAuth_MeWithoutLogin(t *testing.T) {
	sid := uuid.New().String()

	resp := doRequest(t, http.MethodGet, "/api/auth/me", sid, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
