package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	if p, ok := MulOverflowSafe(12, 7); !ok || p != 84 {
		t.Fatalf("MulOverflowSafe(12,7)=%d,%v want 84,true", p, ok)
	}
	if p, ok := MulOverflowSafe(0, math.MaxInt); !ok || p != 0 {
		t.Fatalf("zero operand should yield 0,true; got %d,%v", p, ok)
	}
	if _, ok := MulOverflowSafe(math.MaxInt/2, 3); ok {
		t.Fatalf("expected overflow")
	}
	if _, ok := MulOverflowSafe(-1, 4); ok {
		t.Fatalf("negative operand should be rejected")
	}
}

func TestCheckListBounds(t *testing.T) {
	end, err := CheckListBounds(100, 0x10, 4, 12)
	if err != nil || end != 0x10+48 {
		t.Fatalf("CheckListBounds = %d, %v", end, err)
	}
	if _, err := CheckListBounds(100, 90, 1, 12); err == nil {
		t.Fatalf("expected bounds error")
	}
	if _, err := CheckListBounds(100, 0, math.MaxInt, 8); err == nil {
		t.Fatalf("expected overflow error")
	}
	if _, err := CheckListBounds(100, -1, 1, 1); err == nil {
		t.Fatalf("expected negative offset error")
	}
}

func TestFitsList(t *testing.T) {
	tests := []struct {
		name                  string
		off, count, size, lim uint64
		want                  bool
	}{
		{"exact fit", 0x70, 3, 8, 0x70 + 24, true},
		{"one short", 0x70, 3, 8, 0x70 + 23, false},
		{"offset past limit", 200, 0, 4, 100, false},
		{"huge count", 0, math.MaxUint32, 12, 1 << 20, false},
		{"zero size", 5, 1 << 40, 0, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FitsList(tt.off, tt.count, tt.size, tt.lim); got != tt.want {
				t.Fatalf("FitsList(%d,%d,%d,%d) = %v, want %v", tt.off, tt.count, tt.size, tt.lim, got, tt.want)
			}
		})
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}

	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}
