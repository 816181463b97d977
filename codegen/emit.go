package codegen

import (
	"fmt"
	"io"
	"strings"

	"mmcc/mir"
)

// Emit writes the final assembly text of a MIR program in GNU syntax.
// External linkage becomes a .global symbol, internal symbols stay local,
// and constructor functions are registered in .init_array so they run
// before main.
func Emit(w io.Writer, prog *mir.Program) {
	fmt.Fprintln(w, "\t.arch armv7-a")
	fmt.Fprintln(w, "\t.text")

	for _, f := range prog.Funcs {
		fmt.Fprintln(w)

		if f.Global {
			fmt.Fprintf(w, "\t.global %s\n", f.Name)
		}

		fmt.Fprintf(w, "%s:\n", f.Name)

		for _, in := range f.Insts {
			emitInst(w, in)
		}

		fmt.Fprintln(w, "\t.ltorg")
	}

	if len(prog.Data) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "\t.data")

		for _, d := range prog.Data {
			fmt.Fprintln(w)

			if d.Global {
				fmt.Fprintf(w, "\t.global %s\n", d.Name)
			}

			fmt.Fprintf(w, "%s:\n", d.Name)

			emitted := int32(0)
			for _, item := range d.Items {
				fmt.Fprintln(w, item.Repr())

				if item.Op == mir.WORD {
					emitted += 4
				} else {
					emitted = d.Size
				}
			}

			if emitted < d.Size {
				fmt.Fprintf(w, "\t.space %d\n", d.Size-emitted)
			}
		}
	}

	var ctors []*mir.Func
	for _, f := range prog.Funcs {
		if f.Ctor {
			ctors = append(ctors, f)
		}
	}

	if len(ctors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "\t.section .init_array,\"aw\"")
		fmt.Fprintln(w, "\t.align 2")

		for _, f := range ctors {
			fmt.Fprintf(w, "\t.word %s\n", f.Name)
		}
	}
}

// EmitString returns the assembly text of prog.
func EmitString(prog *mir.Program) string {
	sb := &strings.Builder{}
	Emit(sb, prog)
	return sb.String()
}

// emitInst prints one instruction, lowering the register-list forms and the
// ldr-literal pseudo-instruction into their assembly spellings.
func emitInst(w io.Writer, in *mir.Inst) {
	switch in.Op {
	case mir.PUSH, mir.POP:
		regs := make([]string, len(in.Oprs))
		for i, r := range in.Oprs {
			regs[i] = r.Repr()
		}

		fmt.Fprintf(w, "\t%s {%s}\n", in.Op, strings.Join(regs, ", "))
	case mir.LDR:
		// The ldr-literal pseudo-instruction carries its payload in a label
		// operand spelled "=value".
		if lr, ok := in.Oprs[0].(*mir.LabelRef); ok {
			fmt.Fprintf(w, "\tldr %s, %s\n", in.Dest.Repr(), lr.Name)
			return
		}

		fmt.Fprintln(w, in.Repr())
	default:
		fmt.Fprintln(w, in.Repr())
	}
}

// -----------------------------------------------------------------------------

// Compile runs the whole backend over one MIR program: liveness, linear-scan
// allocation, virtual-register rewriting, frame finalization, and peephole
// cleanup, leaving prog ready for emission.
func Compile(prog *mir.Program) {
	for _, f := range prog.Funcs {
		live := Analyze(f)
		alloc := AllocateRegisters(live.Intervals())
		RewriteVirtual(f, alloc)
		FinalizeFrame(f, alloc)
		Peephole(f)
	}
}
