package sema

import (
	"mmcc/report"
	"mmcc/ssa"
	"mmcc/types"
)

// Symbol is a named value: a variable, parameter, function, or enum
// constant.
type Symbol struct {
	// The symbol's name.
	Name string

	// The symbol's semantic type.
	Type types.Type

	// Where the symbol was defined.
	DefSpan *report.TextSpan

	// For enum constants: the constant's value.
	ConstVal int32
	IsEnum   bool

	// For functions: whether a body has been seen.
	HasBody bool

	// A slot for the symbol's SSA value.  Lowering keeps its own scope maps
	// and does not set this field.
	IR ssa.Value
}

// -----------------------------------------------------------------------------

// scope is one lexical scope: a layer of the four namespaces the language
// distinguishes.  Type aliases live in their own namespace, separate from
// the enum and struct namespaces.
type scope struct {
	values  map[string]*Symbol
	structs map[string]*types.StructType
	enums   map[string]bool
	aliases map[string]types.Type
}

func newScope() *scope {
	return &scope{
		values:  make(map[string]*Symbol),
		structs: make(map[string]*types.StructType),
		enums:   make(map[string]bool),
		aliases: make(map[string]types.Type),
	}
}

// SymbolTable is the stack of lexical scopes.  Lookups walk outward;
// definitions go into the innermost scope.
type SymbolTable struct {
	scopes []*scope
}

// NewSymbolTable creates a symbol table holding only the global scope.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: []*scope{newScope()}}
}

// Push enters a new scope and returns the function that leaves it.  Callers
// defer the returned token so the scope is released on every exit path.
func (st *SymbolTable) Push() func() {
	st.scopes = append(st.scopes, newScope())

	return func() {
		st.scopes = st.scopes[:len(st.scopes)-1]
	}
}

// Global returns whether the innermost scope is the global one.
func (st *SymbolTable) Global() bool {
	return len(st.scopes) == 1
}

func (st *SymbolTable) inner() *scope {
	return st.scopes[len(st.scopes)-1]
}

// -----------------------------------------------------------------------------

// DefineValue adds a value symbol to the innermost scope; it returns false
// if the name is already bound there.
func (st *SymbolTable) DefineValue(sym *Symbol) bool {
	if _, ok := st.inner().values[sym.Name]; ok {
		return false
	}

	st.inner().values[sym.Name] = sym
	return true
}

// LookupValue finds a value symbol, walking the scopes outward.
func (st *SymbolTable) LookupValue(name string) (*Symbol, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym, ok := st.scopes[i].values[name]; ok {
			return sym, true
		}
	}

	return nil, false
}

// DefineStruct adds a struct type to the innermost scope.
func (st *SymbolTable) DefineStruct(s *types.StructType) bool {
	if _, ok := st.inner().structs[s.Name]; ok {
		return false
	}

	st.inner().structs[s.Name] = s
	return true
}

// LookupStruct finds a struct type by name.
func (st *SymbolTable) LookupStruct(name string) (*types.StructType, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if s, ok := st.scopes[i].structs[name]; ok {
			return s, true
		}
	}

	return nil, false
}

// DefineEnum records an enum type name in the innermost scope.
func (st *SymbolTable) DefineEnum(name string) bool {
	if _, ok := st.inner().enums[name]; ok {
		return false
	}

	st.inner().enums[name] = true
	return true
}

// LookupEnum finds whether an enum type name is visible.
func (st *SymbolTable) LookupEnum(name string) bool {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if st.scopes[i].enums[name] {
			return true
		}
	}

	return false
}

// DefineAlias adds a typedef to the alias namespace of the innermost scope.
func (st *SymbolTable) DefineAlias(name string, typ types.Type) bool {
	if _, ok := st.inner().aliases[name]; ok {
		return false
	}

	st.inner().aliases[name] = typ
	return true
}

// LookupAlias resolves a typedef name.
func (st *SymbolTable) LookupAlias(name string) (types.Type, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if typ, ok := st.scopes[i].aliases[name]; ok {
			return typ, true
		}
	}

	return nil, false
}
