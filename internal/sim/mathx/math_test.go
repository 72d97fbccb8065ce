package mathx

import "testing"

func TestRand_Deterministic(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 1000; i++ {
		if a.Uint64() != b.Uint64() {
			t.Fatalf("diverged at %d", i)
		}
	}
	if NewRand(1).Uint64() == NewRand(2).Uint64() {
		t.Fatalf("different seeds produced the same first value")
	}
}

func TestRand_Ranges(t *testing.T) {
	r := NewRand(7)
	for i := 0; i < 10000; i++ {
		f := r.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
		n := r.Intn(5)
		if n < 0 || n >= 5 {
			t.Fatalf("Intn out of range: %d", n)
		}
	}
	if r.Intn(0) != 0 || r.Intn(-3) != 0 {
		t.Fatalf("Intn(<=0) must be 0")
	}
}

func TestRand_ChanceExtremes(t *testing.T) {
	r := NewRand(3)
	for i := 0; i < 100; i++ {
		if r.Chance(0) {
			t.Fatalf("Chance(0) returned true")
		}
		if !r.Chance(1) {
			t.Fatalf("Chance(1) returned false")
		}
	}
}
