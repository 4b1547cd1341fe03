// internal/event/event_test.go
package event

import (
	"errors"
	"testing"
)

func TestDecodeRoundTrip(t *testing.T) {
	env, err := NewOrderCreated("order-1", []string{"p1", "p1", "p2"})
	if err != nil {
		t.Fatalf("NewOrderCreated: %v", err)
	}

	raw, err := env.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Message != KindOrderCreated {
		t.Fatalf("message = %q, want %q", decoded.Message, KindOrderCreated)
	}

	data, err := decoded.DecodeOrderCreated()
	if err != nil {
		t.Fatalf("DecodeOrderCreated: %v", err)
	}
	if data.OrderID != "order-1" || len(data.ProductIDs) != 3 {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "this is not json"},
		{"missing message", `{"data":{}}`},
		{"empty message", `{"message":"","data":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.raw)); !errors.Is(err, ErrBadPayload) {
				t.Fatalf("err = %v, want ErrBadPayload", err)
			}
		})
	}
}

func TestDecodeOrderCreatedValidation(t *testing.T) {
	env := Envelope{Message: KindOrderCreated, Data: []byte(`{"orderId":"","productIds":[]}`)}
	if _, err := env.DecodeOrderCreated(); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}

	other := Envelope{Message: KindInventoryChecked, Data: []byte(`{}`)}
	if _, err := other.DecodeOrderCreated(); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("kind mismatch err = %v, want ErrBadPayload", err)
	}
}

func TestDecodeInventoryCheckedRequiresAvailability(t *testing.T) {
	// 缺 isAvailable 字段不能被解读为 false
	missing := Envelope{Message: KindInventoryChecked, Data: []byte(`{"orderId":"order-1"}`)}
	if _, err := missing.DecodeInventoryChecked(); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}

	explicit := Envelope{Message: KindInventoryChecked, Data: []byte(`{"orderId":"order-1","isAvailable":false}`)}
	data, err := explicit.DecodeInventoryChecked()
	if err != nil {
		t.Fatalf("DecodeInventoryChecked: %v", err)
	}
	if data.IsAvailable {
		t.Fatal("explicit false must decode as unavailable")
	}
}

func TestDecodePaymentProcessedRejectsUnknownStatus(t *testing.T) {
	env := Envelope{Message: KindPaymentProcessed, Data: []byte(`{"orderId":"order-1","status":"maybe"}`)}
	if _, err := env.DecodePaymentProcessed(); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
}

func TestNewPaymentProcessedRejectsUnknownStatus(t *testing.T) {
	if _, err := NewPaymentProcessed("order-1", "pending"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
