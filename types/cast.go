package types

// CanAccept returns whether a storage location of type dest can accept a
// value of type src: ie. whether `dest = src` is legal.  A const left-value
// is never assignable-to; arrays and const-qualified types require structural
// identity (they may only be initialized, never reassigned piecewise); all
// other types require the implicit-conversion relation.
func CanAccept(dest, src Type) bool {
	if IsRightValue(dest) || IsConst(dest) || IsArray(dest) {
		return false
	}

	return canInit(dest, src)
}

// CanInit returns whether a storage location of type dest can be initialized
// from a value of type src.  Initialization permits const and array
// destinations, but those require structural identity of the unqualified
// types; everything else follows the implicit-conversion relation.
func CanInit(dest, src Type) bool {
	return canInit(dest, src)
}

func canInit(dest, src Type) bool {
	d, s := Unqual(dest), Unqual(src)

	// Array and const destinations require structural identity.
	if IsArray(dest) || IsConst(dest) {
		return d.equals(s)
	}

	switch dt := d.(type) {
	case PrimType:
		if dt == PrimVoid {
			return false
		}
		// All integer types implicitly convert among each other.
		return IsInteger(src)
	case *PointerType:
		// A pointer accepts an identical pointer or a decayed array of the
		// same element type.
		if st, ok := s.(*PointerType); ok {
			return Equals(dt.ElemType, st.ElemType)
		}
		if at, ok := s.(*ArrayType); ok {
			return Equals(dt.ElemType, at.ElemType)
		}
		return false
	case *StructType:
		return d.equals(s)
	default:
		return false
	}
}

// CanCastTo returns whether an explicit cast from type from to type to is
// legal.  Integers cast among each other, pointers cast to other pointers and
// to/from integers, and arrays decay to pointers.  Structs only cast to
// themselves; nothing casts to or from void.
func CanCastTo(from, to Type) bool {
	f, t := Unqual(from), Unqual(to)

	if IsVoid(from) || IsVoid(to) {
		return false
	}

	switch t.(type) {
	case PrimType:
		return IsInteger(from) || IsPointer(from)
	case *PointerType:
		return IsInteger(from) || IsPointer(from) || IsArray(from)
	case *StructType:
		return f.equals(t)
	default:
		return false
	}
}
