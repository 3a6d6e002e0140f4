package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEmptyCartShape(t *testing.T) {
	cart := EmptyCart()
	if cart.Lines == nil || len(cart.Lines) != 0 {
		t.Fatalf("expected non-nil empty lines, got %#v", cart.Lines)
	}
	if !cart.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", cart.Total)
	}
	body, err := json.Marshal(cart)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"products":[],"totalPrice":"0"}` {
		t.Fatalf("unexpected empty cart body %s", body)
	}
}

func TestCartCloneIsDeep(t *testing.T) {
	sp := decimal.RequireFromString("8.00")
	cart := Cart{CartID: "c1", Lines: []CartLine{{ProductID: "P1", Quantity: 1, Price: decimal.NewFromInt(10), SpecialPrice: &sp}}, Total: decimal.NewFromInt(8)}

	clone := cart.Clone()
	clone.Lines[0].Quantity = 5
	*clone.Lines[0].SpecialPrice = decimal.NewFromInt(1)

	if cart.Lines[0].Quantity != 1 {
		t.Fatal("clone shares line storage")
	}
	if !cart.Lines[0].SpecialPrice.Equal(sp) {
		t.Fatal("clone shares special price pointer")
	}
}

func TestCartEqualTreatsMoneyNumerically(t *testing.T) {
	var a, b Cart
	if err := json.Unmarshal([]byte(`{"cartId":"c1","products":[{"productId":"P1","productName":"Tea","price":10.5,"quantity":2}],"totalPrice":21}`), &a); err != nil {
		t.Fatalf("unmarshal a: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"cartId":"c1","products":[{"productId":"P1","productName":"Tea","price":"10.50","quantity":2}],"totalPrice":"21.00"}`), &b); err != nil {
		t.Fatalf("unmarshal b: %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("expected carts to be equal: %+v vs %+v", a, b)
	}
	b.Lines[0].Quantity = 3
	if a.Equal(b) {
		t.Fatal("expected quantity difference to matter")
	}
}

func TestCartLineLookups(t *testing.T) {
	cart := Cart{Lines: []CartLine{{ProductID: "P1", Quantity: 2}, {ProductID: "P2", Quantity: 3}}}
	if line, ok := cart.Line("P2"); !ok || line.Quantity != 3 {
		t.Fatalf("unexpected lookup %+v ok=%v", line, ok)
	}
	if _, ok := cart.Line("P9"); ok {
		t.Fatal("unexpected hit for missing product")
	}
	if cart.ItemCount() != 5 {
		t.Fatalf("unexpected item count %d", cart.ItemCount())
	}
}

func TestEffectivePrice(t *testing.T) {
	sp := decimal.NewFromInt(7)
	line := CartLine{Price: decimal.NewFromInt(9)}
	if !line.EffectivePrice().Equal(decimal.NewFromInt(9)) {
		t.Fatal("expected unit price without discount")
	}
	line.SpecialPrice = &sp
	if !line.EffectivePrice().Equal(sp) {
		t.Fatal("expected special price")
	}
}

func TestAddressFieldsTrimmed(t *testing.T) {
	apt := "Apt 4"
	addr := Address{ID: "a1", Street: " 12 Main St ", Apartment: &apt, City: "Springfield", State: "IL", Country: "US", ZipCode: "62704"}
	fields := addr.Fields().Trimmed()
	if fields.Street != "12 Main St" || fields.Apartment != "Apt 4" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if got := addr.String(); got != " 12 Main St , Apt 4, Springfield, IL, 62704, US" {
		t.Fatalf("unexpected label %q", got)
	}
}
