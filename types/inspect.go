package types

// Unqual strips all Const and RValType qualifier wrappers off the given type.
func Unqual(typ Type) Type {
	for {
		switch v := typ.(type) {
		case *ConstType:
			typ = v.Inner
		case *RValType:
			typ = v.Inner
		default:
			return typ
		}
	}
}

// Unwrap strips RValType wrappers only, preserving constness.
func Unwrap(typ Type) Type {
	for {
		if rt, ok := typ.(*RValType); ok {
			typ = rt.Inner
		} else {
			return typ
		}
	}
}

// Equals returns whether a and b are structurally identical.  Value category
// is ignored; constness is not.
func Equals(a, b Type) bool {
	return Unwrap(a).equals(Unwrap(b))
}

// -----------------------------------------------------------------------------

// IsVoid returns whether typ is the void type.
func IsVoid(typ Type) bool {
	pt, ok := Unqual(typ).(PrimType)
	return ok && pt == PrimVoid
}

// IsInteger returns whether typ is an integral type.
func IsInteger(typ Type) bool {
	pt, ok := Unqual(typ).(PrimType)
	return ok && pt != PrimVoid
}

// IsUnsigned returns whether typ is an unsigned integral type.
func IsUnsigned(typ Type) bool {
	pt, ok := Unqual(typ).(PrimType)
	return ok && (pt == PrimUInt8 || pt == PrimUInt32)
}

// IsPointer returns whether typ is a pointer type.
func IsPointer(typ Type) bool {
	_, ok := Unqual(typ).(*PointerType)
	return ok
}

// IsArray returns whether typ is an array type.
func IsArray(typ Type) bool {
	_, ok := Unqual(typ).(*ArrayType)
	return ok
}

// IsStruct returns whether typ is a struct type.
func IsStruct(typ Type) bool {
	_, ok := Unqual(typ).(*StructType)
	return ok
}

// IsFunction returns whether typ is a function type.
func IsFunction(typ Type) bool {
	_, ok := Unqual(typ).(*FuncType)
	return ok
}

// IsConst returns whether typ carries a const qualifier at any wrapper level.
func IsConst(typ Type) bool {
	for {
		switch v := typ.(type) {
		case *ConstType:
			return true
		case *RValType:
			typ = v.Inner
		default:
			return false
		}
	}
}

// IsRightValue returns whether typ is a right-value.
func IsRightValue(typ Type) bool {
	_, ok := typ.(*RValType)
	return ok
}

// -----------------------------------------------------------------------------

// ValueType converts typ to the requested value category: the returned type
// is a right-value iff rightValue is true.
func ValueType(typ Type, rightValue bool) Type {
	inner := Unwrap(typ)

	if rightValue {
		return &RValType{Inner: inner}
	}

	return inner
}

// Deref returns the type obtained by dereferencing typ: the element type of a
// pointer or array.  The second return value indicates whether typ was
// dereferenceable at all.
func Deref(typ Type) (Type, bool) {
	switch v := Unqual(typ).(type) {
	case *PointerType:
		return v.ElemType, true
	case *ArrayType:
		return v.ElemType, true
	default:
		return nil, false
	}
}

// FieldType returns the type of the named field of a struct type.
func FieldType(typ Type, name string) (Type, bool) {
	st, ok := Unqual(typ).(*StructType)
	if !ok {
		return nil, false
	}

	ndx := st.FieldIndex(name)
	if ndx < 0 {
		return nil, false
	}

	return st.Fields[ndx].Type, true
}

// Decay converts an array type into a pointer to its element type.  All
// other types are returned unchanged.  This implements array-to-pointer
// decay for parameter passing.
func Decay(typ Type) Type {
	if at, ok := Unqual(typ).(*ArrayType); ok {
		return &PointerType{ElemType: at.ElemType}
	}

	return typ
}

// CommonType computes the type of a binary expression over operands of types
// a and b: both integer widths are promoted to 32 bits and the result is
// unsigned if either operand is unsigned.
func CommonType(a, b Type) Type {
	if IsPointer(a) {
		return Unqual(a)
	}
	if IsPointer(b) {
		return Unqual(b)
	}

	if IsUnsigned(a) || IsUnsigned(b) {
		return PrimUInt32
	}

	return PrimInt32
}

// -----------------------------------------------------------------------------

// StructCycle reports whether the given struct participates in a cycle in the
// nominal-type graph: ie. whether it (transitively) contains a field of its
// own type by value.  Pointers break cycles.
func StructCycle(st *StructType) bool {
	return structCycleFrom(st, map[string]bool{})
}

func structCycleFrom(st *StructType, visiting map[string]bool) bool {
	if visiting[st.Name] {
		return true
	}

	visiting[st.Name] = true
	defer delete(visiting, st.Name)

	for _, field := range st.Fields {
		ft := Unqual(field.Type)

		// Walk through by-value aggregates only: a pointer field never
		// extends the containment chain.
		for {
			if at, ok := ft.(*ArrayType); ok {
				ft = Unqual(at.ElemType)
				continue
			}
			break
		}

		if fst, ok := ft.(*StructType); ok {
			if structCycleFrom(fst, visiting) {
				return true
			}
		}
	}

	return false
}
