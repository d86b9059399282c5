package compiler

import (
	"fmt"
	"sort"
	"strings"
)

type SymbolKind int

const (
	KindVariable SymbolKind = iota
	KindArray
)

func (k SymbolKind) String() string {
	if k == KindArray {
		return "array"
	}
	return "variable"
}

// Symbol is a declared name. For arrays Address is the cell of element
// First; element i lives at Address + i - First.
type Symbol struct {
	Name        string
	Kind        SymbolKind
	Address     uint64
	First, Last uint64
	Initialized bool
}

// Size is the number of memory cells the symbol occupies.
func (s *Symbol) Size() uint64 {
	if s.Kind == KindArray {
		return s.Last - s.First + 1
	}
	return 1
}

// IteratorSlot holds the two cells backing a for-loop iterator.
type IteratorSlot struct {
	Current uint64
	Bound   uint64
}

// SymbolTable maps names to memory cells. Cells are handed out sequentially
// from 0: declarations first, then constant pool entries and iterator slots
// as the generator asks for them.
type SymbolTable struct {
	symbols   map[string]*Symbol
	order     []string
	consts    map[uint64]uint64
	iterators map[string]IteratorSlot
	next      uint64
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		symbols:   make(map[string]*Symbol),
		consts:    make(map[uint64]uint64),
		iterators: make(map[string]IteratorSlot),
	}
}

func (s *SymbolTable) alloc(n uint64) uint64 {
	addr := s.next
	s.next += n
	return addr
}

// AddVariable declares a scalar.
func (s *SymbolTable) AddVariable(name string) error {
	if _, ok := s.symbols[name]; ok {
		return newError(ErrRedeclaration, name, 0)
	}
	s.symbols[name] = &Symbol{Name: name, Kind: KindVariable, Address: s.alloc(1)}
	s.order = append(s.order, name)
	return nil
}

// AddArray declares name(first:last), bounds inclusive.
func (s *SymbolTable) AddArray(name string, first, last uint64) error {
	if _, ok := s.symbols[name]; ok {
		return newError(ErrRedeclaration, name, 0)
	}
	if first > last || last-first+1 == 0 {
		return newError(ErrInvalidArrayRange, fmt.Sprintf("%s(%d:%d)", name, first, last), 0)
	}
	sym := &Symbol{Name: name, Kind: KindArray, First: first, Last: last}
	sym.Address = s.alloc(sym.Size())
	s.symbols[name] = sym
	s.order = append(s.order, name)
	return nil
}

// Lookup returns the symbol declared as name.
func (s *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// IsArray reports whether name is a declared array.
func (s *SymbolTable) IsArray(name string) bool {
	sym, ok := s.symbols[name]
	return ok && sym.Kind == KindArray
}

// ElementAddress returns the cell of name(index) for a compile-time index.
func (s *SymbolTable) ElementAddress(name string, index uint64) (uint64, error) {
	sym, ok := s.symbols[name]
	if !ok || sym.Kind != KindArray {
		return 0, newError(ErrUndeclaredVariableRead, name, 0)
	}
	if index < sym.First || index > sym.Last {
		return 0, newError(ErrIndexOutOfBounds, fmt.Sprintf("%s(%d)", name, index), 0)
	}
	return sym.Address + index - sym.First, nil
}

// ConstAddress returns the pool cell of c, if it has one.
func (s *SymbolTable) ConstAddress(c uint64) (uint64, bool) {
	addr, ok := s.consts[c]
	return addr, ok
}

// AddConst returns the pool cell of c, allocating it on first use.
func (s *SymbolTable) AddConst(c uint64) uint64 {
	if addr, ok := s.consts[c]; ok {
		return addr
	}
	addr := s.alloc(1)
	s.consts[c] = addr
	return addr
}

// AddIterator returns the slot for name, allocating it on first use.
// Sibling loops reusing a name share one slot.
func (s *SymbolTable) AddIterator(name string) IteratorSlot {
	if slot, ok := s.iterators[name]; ok {
		return slot
	}
	slot := IteratorSlot{Current: s.alloc(1), Bound: s.alloc(1)}
	s.iterators[name] = slot
	return slot
}

// Iterator returns the slot previously allocated for name.
func (s *SymbolTable) Iterator(name string) (IteratorSlot, bool) {
	slot, ok := s.iterators[name]
	return slot, ok
}

// Cells is the number of memory cells allocated so far.
func (s *SymbolTable) Cells() uint64 { return s.next }

// String returns a deterministic dump of every allocation.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.order) > 0 {
		sb.WriteString("Declarations:\n")
		for _, name := range s.order {
			sym := s.symbols[name]
			if sym.Kind == KindArray {
				fmt.Fprintf(&sb, "  %-20s  Address: %d (array %d:%d, Size: %d)\n", name, sym.Address, sym.First, sym.Last, sym.Size())
			} else {
				fmt.Fprintf(&sb, "  %-20s  Address: %d (initialized: %v)\n", name, sym.Address, sym.Initialized)
			}
		}
	} else {
		sb.WriteString("Declarations: (empty)\n")
	}

	if len(s.consts) > 0 {
		sb.WriteString("Constants:\n")
		values := make([]uint64, 0, len(s.consts))
		for c := range s.consts {
			values = append(values, c)
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		for _, c := range values {
			fmt.Fprintf(&sb, "  %-20d  Address: %d\n", c, s.consts[c])
		}
	}

	if len(s.iterators) > 0 {
		sb.WriteString("Iterators:\n")
		names := make([]string, 0, len(s.iterators))
		for name := range s.iterators {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			slot := s.iterators[name]
			fmt.Fprintf(&sb, "  %-20s  Current: %d Bound: %d\n", name, slot.Current, slot.Bound)
		}
	}
	return sb.String()
}
