package hold

import (
	"testing"

	"homeship.ai/internal/sim/catalogs"
)

func TestHold_StoreRespectsCapacity(t *testing.T) {
	h := New(30)
	if !h.CanStore(30, nil) || h.CanStore(31, nil) {
		t.Fatalf("capacity checks wrong")
	}
	h.Store([]catalogs.Stack{{Item: "ALLOY", Units: 20}, {Item: "SUPPLIES", Units: 20}})
	if h.Units() != 30 || h.Count("SUPPLIES") != 10 {
		t.Fatalf("inventory=%v", h.Inventory())
	}
	if h.CanStore(1, nil) {
		t.Fatalf("hold is full")
	}
}

func TestHold_Unbounded(t *testing.T) {
	h := New(0)
	if !h.CanStore(1<<30, nil) {
		t.Fatalf("unbounded hold refused cargo")
	}
	h.Store([]catalogs.Stack{{Item: "ALLOY", Units: 500}})
	if h.Count("ALLOY") != 500 {
		t.Fatalf("count=%d", h.Count("ALLOY"))
	}
}

func TestHold_PayIsAllOrNothing(t *testing.T) {
	h := New(0)
	h.Store([]catalogs.Stack{{Item: "ALLOY", Units: 50}, {Item: "MACHINERY", Units: 5}})

	cost := []catalogs.Stack{{Item: "ALLOY", Units: 40}, {Item: "MACHINERY", Units: 10}}
	if h.CanAfford(cost) {
		t.Fatalf("machinery short")
	}
	if err := h.Pay(cost); err == nil {
		t.Fatalf("expected error")
	}
	if h.Count("ALLOY") != 50 {
		t.Fatalf("failed payment changed inventory: %v", h.Inventory())
	}

	if err := h.Pay([]catalogs.Stack{{Item: "ALLOY", Units: 40}}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	inv := h.Inventory()
	if len(inv) != 2 || inv[0] != (catalogs.Stack{Item: "ALLOY", Units: 10}) {
		t.Fatalf("inventory=%v", inv)
	}
}
