package ssa

import (
	"fmt"
	"io"
	"strings"

	"mmcc/types"
)

// Printer renders a module as stable text: two dumps of the same module are
// byte-identical, and the layout is regular enough for tests to match on.
type Printer struct {
	w io.Writer

	// Names assigned to instruction results and parameters of the function
	// currently being printed.
	names map[Value]string
}

// Dump writes the textual form of m to w.
func Dump(w io.Writer, m *Module) {
	p := &Printer{w: w}
	p.printModule(m)
}

// DumpString returns the textual form of m.
func DumpString(m *Module) string {
	sb := &strings.Builder{}
	Dump(sb, m)
	return sb.String()
}

func (p *Printer) printModule(m *Module) {
	fmt.Fprintf(p.w, "module \"%s\"\n", m.File)

	for _, v := range m.TopLevel() {
		fmt.Fprintln(p.w)

		switch tv := v.(type) {
		case *GlobalVar:
			p.printGlobal(tv)
		case *Function:
			p.printFunction(tv)
		}
	}
}

func (p *Printer) printGlobal(gv *GlobalVar) {
	fmt.Fprintf(p.w, "global @%s : %s, %s", gv.Name, gv.ContentType().Repr(), gv.Link)

	if init := gv.Init(); init != nil {
		fmt.Fprintf(p.w, " = %s", p.valueRef(init))
	}

	fmt.Fprintln(p.w)
}

func (p *Printer) printFunction(f *Function) {
	p.names = make(map[Value]string)

	// Parameters are named after their source names; instruction results are
	// numbered in block order.
	sig := f.Signature()
	params := make([]string, len(f.Params()))
	for i, param := range f.Params() {
		name := param.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}

		p.names[param] = "%" + name
		params[i] = fmt.Sprintf("%%%s : %s", name, param.Type().Repr())
	}

	if f.IsDecl() {
		fmt.Fprintf(p.w, "declare @%s(%s) : %s, %s\n",
			f.Name, strings.Join(params, ", "), sig.ReturnType.Repr(), f.Link)
		return
	}

	nextID := 0
	for _, b := range f.Blocks() {
		for _, inst := range b.Insts() {
			if instHasResult(inst) {
				p.names[inst] = fmt.Sprintf("%%%d", nextID)
				nextID++
			}
		}
	}

	fmt.Fprintf(p.w, "func @%s(%s) : %s, %s {\n",
		f.Name, strings.Join(params, ", "), sig.ReturnType.Repr(), f.Link)

	for _, b := range f.Blocks() {
		fmt.Fprintf(p.w, "%%%s:\n", b.Name)

		for _, inst := range b.Insts() {
			fmt.Fprintf(p.w, "  %s\n", p.instRepr(inst))
		}
	}

	fmt.Fprintln(p.w, "}")
}

// instHasResult returns whether the instruction produces a value worth
// naming.
func instHasResult(inst Inst) bool {
	switch inst.(type) {
	case *StoreInst, *JumpInst, *BranchInst, *RetInst:
		return false
	case *CallInst:
		return !types.IsVoid(inst.Type())
	default:
		return true
	}
}

func (p *Printer) instRepr(inst Inst) string {
	prefix := ""
	if name, ok := p.names[inst]; ok {
		prefix = name + " = "
	}

	switch v := inst.(type) {
	case *BinaryInst:
		return fmt.Sprintf("%s%s %s %s, %s", prefix, v.Op, v.Type().Repr(),
			p.valueRef(v.LHS()), p.valueRef(v.RHS()))
	case *UnaryInst:
		return fmt.Sprintf("%s%s %s %s", prefix, v.Op, v.Type().Repr(), p.valueRef(v.Operand(0)))
	case *AllocaInst:
		return fmt.Sprintf("%salloca %s", prefix, v.AllocType().Repr())
	case *LoadInst:
		return fmt.Sprintf("%sload %s %s", prefix, v.Type().Repr(), p.valueRef(v.Ptr()))
	case *StoreInst:
		return fmt.Sprintf("store %s, %s", p.valueRef(v.Val()), p.valueRef(v.Ptr()))
	case *CastInst:
		return fmt.Sprintf("%scast %s to %s", prefix, p.valueRef(v.Val()), v.Type().Repr())
	case *CallInst:
		args := make([]string, len(v.Args()))
		for i, arg := range v.Args() {
			args[i] = p.valueRef(arg)
		}
		return fmt.Sprintf("%scall %s(%s)", prefix, p.valueRef(v.Callee()), strings.Join(args, ", "))
	case *ElemPtrInst:
		kind := "elemptr"
		if v.Kind == ElemField {
			kind = "fieldptr"
		}
		return fmt.Sprintf("%s%s %s %s, %s", prefix, kind, v.Type().Repr(),
			p.valueRef(v.Ptr()), p.valueRef(v.Index()))
	case *PhiInst:
		pairs := make([]string, v.NumIncoming())
		for i := range pairs {
			pairs[i] = fmt.Sprintf("[%s, %%%s]", p.valueRef(v.IncomingValue(i)), v.IncomingBlock(i).Name)
		}
		return fmt.Sprintf("%sphi %s %s", prefix, v.Type().Repr(), strings.Join(pairs, ", "))
	case *JumpInst:
		return fmt.Sprintf("br %%%s", v.Target().Name)
	case *BranchInst:
		return fmt.Sprintf("br %s, %%%s, %%%s", p.valueRef(v.Cond()), v.Then().Name, v.Else().Name)
	case *RetInst:
		if v.Val() == nil {
			return "ret"
		}
		return fmt.Sprintf("ret %s", p.valueRef(v.Val()))
	default:
		return prefix + "<unknown inst>"
	}
}

func (p *Printer) valueRef(v Value) string {
	if name, ok := p.names[v]; ok {
		return name
	}

	switch cv := v.(type) {
	case *IntConst:
		return fmt.Sprintf("%d : %s", cv.Val, cv.Type().Repr())
	case *StrConst:
		return fmt.Sprintf("%q", cv.Str)
	case *ZeroConst:
		return fmt.Sprintf("zero : %s", cv.Type().Repr())
	case *ArrayConst, *StructConst:
		user := cv.(User)
		elems := make([]string, user.NumOperands())
		for i := range elems {
			elems[i] = p.valueRef(user.Operand(i))
		}
		return fmt.Sprintf("{%s} : %s", strings.Join(elems, ", "), v.Type().Repr())
	case *GlobalVar:
		return "@" + cv.Name
	case *Function:
		return "@" + cv.Name
	case *BasicBlock:
		return "%" + cv.Name
	case *Param:
		return "%" + cv.Name
	default:
		return "<unnamed>"
	}
}
