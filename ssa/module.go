package ssa

import (
	"mmcc/report"
	"mmcc/types"
)

// GlobalVar is a top-level variable.  Its value is the variable's address, so
// its type is a pointer to the content type.  The initializer, if any, is an
// operand slot so constant rewrites keep the use lists exact.
type GlobalVar struct {
	UserBase

	// The variable's symbol name.
	Name string

	// The variable's linkage.
	Link Linkage
}

// ContentType returns the type of the variable's storage.
func (gv *GlobalVar) ContentType() types.Type {
	return gv.Type().(*types.PointerType).ElemType
}

// Init returns the initializer constant, or nil if the variable is
// zero-initialized.
func (gv *GlobalVar) Init() Value {
	if gv.NumOperands() == 0 {
		return nil
	}

	return gv.Operand(0)
}

// -----------------------------------------------------------------------------

// Module owns the ordered list of top-level values of a translation unit and
// the constant pool shared by them.
type Module struct {
	// The source file the module was lowered from.
	File string

	topLevel []Value

	intPool map[intKey]*IntConst
	strPool map[string]*StrConst
	zerPool map[string]*ZeroConst
}

type intKey struct {
	val int32
	typ string
}

// NewModule creates a new, empty module.
func NewModule(file string) *Module {
	return &Module{
		File:    file,
		intPool: make(map[intKey]*IntConst),
		strPool: make(map[string]*StrConst),
		zerPool: make(map[string]*ZeroConst),
	}
}

// TopLevel returns the module's top-level values in declaration order.
func (m *Module) TopLevel() []Value {
	return m.topLevel
}

// EraseTopLevel removes the top-level value at index i.
func (m *Module) EraseTopLevel(i int) {
	v := m.topLevel[i]

	if len(v.Uses()) != 0 {
		report.ReportICE("erasing a top-level value that still has uses")
	}

	// Globals drop their initializer edge; functions drop their body.
	switch tv := v.(type) {
	case *GlobalVar:
		tv.clearOperands()
	case *Function:
		for len(tv.blocks) > 0 {
			tv.RemoveBlock(tv.blocks[len(tv.blocks)-1])
		}
	}

	m.topLevel = append(m.topLevel[:i], m.topLevel[i+1:]...)
}

// Functions returns the module's functions in declaration order.
func (m *Module) Functions() []*Function {
	var fns []*Function
	for _, v := range m.topLevel {
		if f, ok := v.(*Function); ok {
			fns = append(fns, f)
		}
	}

	return fns
}

// FunctionByName looks a function up by symbol name.
func (m *Module) FunctionByName(name string) *Function {
	for _, v := range m.topLevel {
		if f, ok := v.(*Function); ok && f.Name == name {
			return f
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// NewFunction appends a new function to the module.
func (m *Module) NewFunction(name string, sig *types.FuncType, link Linkage) *Function {
	f := &Function{
		ValueBase: NewValueBase(sig),
		Name:      name,
		Link:      link,
		parent:    m,
	}

	for i, pt := range sig.ParamTypes {
		f.params = append(f.params, &Param{
			ValueBase: NewValueBase(pt),
			Index:     i,
		})
	}

	m.topLevel = append(m.topLevel, f)
	return f
}

// NewGlobalVar appends a new global variable to the module.  init may be nil
// for zero-initialized variables.
func (m *Module) NewGlobalVar(name string, content types.Type, init Value, link Linkage) *GlobalVar {
	gv := &GlobalVar{
		UserBase: NewUserBase(&types.PointerType{ElemType: types.Unqual(content)}),
		Name:     name,
		Link:     link,
	}

	if init != nil {
		gv.bindOperands(gv, init)
	}

	m.topLevel = append(m.topLevel, gv)
	return gv
}

// -----------------------------------------------------------------------------
// Constants are value-deduplicated within the module: requesting the same
// integer, string, or zero-initializer twice yields the same Value identity.

// Int returns the module's canonical integer constant of the given value and
// type.
func (m *Module) Int(val int32, typ types.Type) *IntConst {
	typ = types.Unqual(typ)
	key := intKey{val: val, typ: typ.Repr()}

	if ic, ok := m.intPool[key]; ok {
		return ic
	}

	ic := &IntConst{ValueBase: NewValueBase(typ), Val: val}
	m.intPool[key] = ic
	return ic
}

// Str returns the module's canonical string constant for s.
func (m *Module) Str(s string) *StrConst {
	if sc, ok := m.strPool[s]; ok {
		return sc
	}

	sc := &StrConst{
		ValueBase: NewValueBase(&types.PointerType{ElemType: types.PrimUInt8}),
		Str:       s,
	}
	m.strPool[s] = sc
	return sc
}

// Zero returns the module's canonical zero-initializer of the given type.
func (m *Module) Zero(typ types.Type) *ZeroConst {
	typ = types.Unqual(typ)

	if zc, ok := m.zerPool[typ.Repr()]; ok {
		return zc
	}

	zc := &ZeroConst{ValueBase: NewValueBase(typ)}
	m.zerPool[typ.Repr()] = zc
	return zc
}
