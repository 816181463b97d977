package ast

import (
	"fmt"
	"io"
	"strings"
)

// DumpTo writes an s-expression rendering of the given definitions, one
// top-level form per line group.  Used by the driver's --dump-ast mode.
func DumpTo(w io.Writer, defs []ASTDef) {
	d := dumper{w: w}

	for _, def := range defs {
		d.dumpNode(def, 0)
	}
}

type dumper struct {
	w io.Writer
}

func (d *dumper) line(depth int, format string, args ...interface{}) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) dumpNode(node ASTNode, depth int) {
	switch v := node.(type) {
	case *FuncDef:
		kind := "func"
		if v.Body == nil {
			kind = "func-decl"
		}

		d.line(depth, "(%s %s", kind, v.Name)
		for _, param := range v.Params {
			d.line(depth+1, "(param %s)", param.Name)
		}
		if v.Body != nil {
			d.dumpNode(v.Body, depth+1)
		}
		d.line(depth, ")")
	case *VarDecl:
		for _, def := range v.Defs {
			if def.Init != nil {
				d.line(depth, "(var %s", def.Name)
				d.dumpNode(def.Init, depth+1)
				d.line(depth, ")")
			} else {
				d.line(depth, "(var %s)", def.Name)
			}
		}
	case *StructDef:
		d.line(depth, "(struct %s", v.Name)
		for _, field := range v.Fields {
			d.line(depth+1, "(field %s)", field.Name)
		}
		d.line(depth, ")")
	case *EnumDef:
		d.line(depth, "(enum %s", v.Name)
		for _, elem := range v.Elems {
			d.line(depth+1, "(elem %s)", elem.Name)
		}
		d.line(depth, ")")
	case *TypeAlias:
		d.line(depth, "(typedef %s)", v.Name)
	case *Block:
		d.line(depth, "(block")
		for _, stmt := range v.Stmts {
			d.dumpNode(stmt, depth+1)
		}
		d.line(depth, ")")
	case *If:
		d.line(depth, "(if")
		d.dumpNode(v.Cond, depth+1)
		d.dumpNode(v.Then, depth+1)
		if v.Else != nil {
			d.dumpNode(v.Else, depth+1)
		}
		d.line(depth, ")")
	case *While:
		d.line(depth, "(while")
		d.dumpNode(v.Cond, depth+1)
		d.dumpNode(v.Body, depth+1)
		d.line(depth, ")")
	case *Control:
		switch v.Kind {
		case CtrlBreak:
			d.line(depth, "(break)")
		case CtrlContinue:
			d.line(depth, "(continue)")
		default:
			if v.Expr != nil {
				d.line(depth, "(return")
				d.dumpNode(v.Expr, depth+1)
				d.line(depth, ")")
			} else {
				d.line(depth, "(return)")
			}
		}
	case *ExprStmt:
		d.dumpNode(v.Expr, depth)
	case *DeclStmt:
		d.dumpNode(v.Decl, depth)
	case *Binary:
		d.line(depth, "(%s", v.Op)
		d.dumpNode(v.LHS, depth+1)
		d.dumpNode(v.RHS, depth+1)
		d.line(depth, ")")
	case *Unary:
		names := [...]string{"+", "-", "~", "!", "*", "&", "sizeof"}
		d.line(depth, "(unary %s", names[v.Op])
		d.dumpNode(v.Opr, depth+1)
		d.line(depth, ")")
	case *Cast:
		d.line(depth, "(cast")
		d.dumpNode(v.Opr, depth+1)
		d.line(depth, ")")
	case *Index:
		d.line(depth, "(index")
		d.dumpNode(v.Opr, depth+1)
		d.dumpNode(v.Sub, depth+1)
		d.line(depth, ")")
	case *Call:
		d.line(depth, "(call")
		d.dumpNode(v.Fn, depth+1)
		for _, arg := range v.Args {
			d.dumpNode(arg, depth+1)
		}
		d.line(depth, ")")
	case *Access:
		d.line(depth, "(field %s", v.Field)
		d.dumpNode(v.Opr, depth+1)
		d.line(depth, ")")
	case *IntLit:
		d.line(depth, "(int %d)", v.Val)
	case *CharLit:
		d.line(depth, "(char %q)", v.Val)
	case *StringLit:
		d.line(depth, "(string %q)", v.Val)
	case *Ident:
		d.line(depth, "(id %s)", v.Name)
	case *InitList:
		d.line(depth, "(init-list")
		for _, elem := range v.Elems {
			d.dumpNode(elem, depth+1)
		}
		d.line(depth, ")")
	default:
		d.line(depth, "(?)")
	}
}
