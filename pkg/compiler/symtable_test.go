package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestSymbolTable_Allocation(t *testing.T) {
	s := NewSymbolTable()
	if err := s.AddVariable("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddArray("t", 5, 9); err != nil {
		t.Fatal(err)
	}
	if err := s.AddVariable("b"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		addr uint64
	}{
		{"a", 0},
		{"t", 1},
		{"b", 6},
	}
	for _, tt := range tests {
		sym, ok := s.Lookup(tt.name)
		if !ok {
			t.Fatalf("Lookup(%q) failed", tt.name)
		}
		if sym.Address != tt.addr {
			t.Errorf("%s: expected address %d, got %d", tt.name, tt.addr, sym.Address)
		}
	}

	if addr, err := s.ElementAddress("t", 7); err != nil || addr != 3 {
		t.Errorf("ElementAddress(t, 7) = %d, %v; want 3", addr, err)
	}
	if _, err := s.ElementAddress("t", 4); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Errorf("ElementAddress(t, 4): expected ErrIndexOutOfBounds, got %v", err)
	}
	if _, err := s.ElementAddress("t", 10); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Errorf("ElementAddress(t, 10): expected ErrIndexOutOfBounds, got %v", err)
	}
	if s.IsArray("a") || !s.IsArray("t") || s.IsArray("nope") {
		t.Errorf("IsArray gave wrong answers")
	}
}

func TestSymbolTable_OnDemand(t *testing.T) {
	s := NewSymbolTable()
	if err := s.AddVariable("x"); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.ConstAddress(10); ok {
		t.Errorf("10 should not be pooled yet")
	}
	c := s.AddConst(10)
	if c != 1 {
		t.Errorf("AddConst(10): expected 1, got %d", c)
	}
	if again := s.AddConst(10); again != c {
		t.Errorf("AddConst is not idempotent: %d then %d", c, again)
	}
	if addr, ok := s.ConstAddress(10); !ok || addr != c {
		t.Errorf("ConstAddress(10) = %d, %v", addr, ok)
	}

	slot := s.AddIterator("i")
	if slot != (IteratorSlot{Current: 2, Bound: 3}) {
		t.Errorf("AddIterator(i) = %+v", slot)
	}
	if again := s.AddIterator("i"); again != slot {
		t.Errorf("AddIterator(i) again = %+v; want %+v", again, slot)
	}
	if got, ok := s.Iterator("i"); !ok || got != slot {
		t.Errorf("Iterator(i) = %+v, %v", got, ok)
	}
	if _, ok := s.Iterator("j"); ok {
		t.Errorf("Iterator(j) should not exist")
	}
	if s.Cells() != 4 {
		t.Errorf("Cells: expected 4, got %d", s.Cells())
	}
}

func TestSymbolTable_Errors(t *testing.T) {
	s := NewSymbolTable()
	if err := s.AddVariable("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddVariable("a"); !errors.Is(err, ErrRedeclaration) {
		t.Errorf("AddVariable(a) twice: expected ErrRedeclaration, got %v", err)
	}
	if err := s.AddArray("a", 0, 1); !errors.Is(err, ErrRedeclaration) {
		t.Errorf("AddArray(a): expected ErrRedeclaration, got %v", err)
	}
	if err := s.AddArray("u", 3, 2); !errors.Is(err, ErrInvalidArrayRange) {
		t.Errorf("AddArray(u, 3, 2): expected ErrInvalidArrayRange, got %v", err)
	}
	if err := s.AddArray("v", 4, 4); err != nil {
		t.Errorf("single element array rejected: %v", err)
	}
}

func TestSymbolTable_String(t *testing.T) {
	s := NewSymbolTable()
	if !strings.Contains(s.String(), "Declarations: (empty)") {
		t.Errorf("empty dump: %q", s.String())
	}

	_ = s.AddVariable("n")
	_ = s.AddArray("tab", 1, 4)
	s.AddConst(42)
	s.AddIterator("i")

	dump := s.String()
	for _, want := range []string{"Declarations:", "n", "tab", "array 1:4, Size: 4", "Constants:", "42", "Iterators:", "Current: 6 Bound: 7"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump does not contain %q:\n%s", want, dump)
		}
	}
}
