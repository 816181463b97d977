package ssa

import (
	"mmcc/report"
	"mmcc/types"
)

// Value is the polymorphic base of everything the IR can name: constants,
// global variables, functions, basic blocks, function arguments, and the
// results of instructions.  Every value has a type, an identity (its Go
// pointer), and an exact set of uses: back-edges from the operand slots that
// reference it.
type Value interface {
	// Type returns the static type of the value.
	Type() types.Type

	// Logger returns the source back-link of the value.  May be nil.
	Logger() *report.Logger

	// SetLogger sets the source back-link of the value.
	SetLogger(l *report.Logger)

	// Uses returns the exact list of operand slots referencing this value, in
	// the order the references were installed.
	Uses() []*Use

	addUse(u *Use)
	removeUse(u *Use)
}

// ValueBase is the base struct for all values.
type ValueBase struct {
	typ    types.Type
	logger *report.Logger
	uses   []*Use
}

// NewValueBase creates a new value base of the given type.
func NewValueBase(typ types.Type) ValueBase {
	return ValueBase{typ: typ}
}

func (vb *ValueBase) Type() types.Type {
	return vb.typ
}

// SetType replaces the type of the value.  Used by lowering when value
// categories are adjusted; the IR itself never retypes a live value.
func (vb *ValueBase) SetType(typ types.Type) {
	vb.typ = typ
}

func (vb *ValueBase) Logger() *report.Logger {
	return vb.logger
}

func (vb *ValueBase) SetLogger(l *report.Logger) {
	vb.logger = l
}

func (vb *ValueBase) Uses() []*Use {
	return vb.uses
}

func (vb *ValueBase) addUse(u *Use) {
	vb.uses = append(vb.uses, u)
}

func (vb *ValueBase) removeUse(u *Use) {
	for i, use := range vb.uses {
		if use == u {
			vb.uses = append(vb.uses[:i], vb.uses[i+1:]...)
			return
		}
	}

	report.ReportICE("use-list corruption: removing a use that was never installed")
}

// -----------------------------------------------------------------------------

// Use represents a single operand slot: a triple of the user owning the
// slot, the slot's index within the user's operand list, and the value the
// slot currently references.
type Use struct {
	user  User
	index int
	value Value
}

// User returns the user owning this operand slot.
func (u *Use) User() User {
	return u.user
}

// Index returns the operand index of this slot within its user.
func (u *Use) Index() int {
	return u.index
}

// Value returns the value this slot currently references.
func (u *Use) Value() Value {
	return u.value
}

// set atomically rewires the slot to reference v: the old target's use list
// drops this slot and the new target's gains it.
func (u *Use) set(v Value) {
	if u.value == v {
		return
	}

	if u.value != nil {
		u.value.removeUse(u)
	}

	u.value = v

	if v != nil {
		v.addUse(u)
	}
}

// -----------------------------------------------------------------------------

// User is a value that references other values through an indexable list of
// operand slots.
type User interface {
	Value

	// Operands returns the user's operand slots in order.
	Operands() []*Use

	// Operand returns the value in the i-th operand slot.
	Operand(i int) Value

	// SetOperand removes the use edge at slot i and installs one referencing v.
	SetOperand(i int, v Value)

	// NumOperands returns the number of operand slots.
	NumOperands() int
}

// UserBase is the base struct for all users.
type UserBase struct {
	ValueBase
	operands []*Use
}

// NewUserBase creates a new user base of the given type; the user is
// registered as a use of each operand.  The concrete user must call
// bindOperands on itself immediately after embedding.
func NewUserBase(typ types.Type) UserBase {
	return UserBase{ValueBase: NewValueBase(typ)}
}

// bindOperands installs the operand slots for self referencing the given
// values.  It must be called exactly once, by the concrete user's
// constructor, since slot back-pointers need the fully constructed user.
func (ub *UserBase) bindOperands(self User, values ...Value) {
	if len(ub.operands) != 0 {
		report.ReportICE("operands bound twice on the same user")
	}

	for i, v := range values {
		u := &Use{user: self, index: i}
		ub.operands = append(ub.operands, u)
		u.set(v)
	}
}

// appendOperand adds a new trailing operand slot referencing v.
func (ub *UserBase) appendOperand(self User, v Value) {
	u := &Use{user: self, index: len(ub.operands)}
	ub.operands = append(ub.operands, u)
	u.set(v)
}

// removeOperand deletes the slot at index i, unlinking its use edge and
// re-indexing the slots after it.
func (ub *UserBase) removeOperand(i int) {
	ub.operands[i].set(nil)
	ub.operands = append(ub.operands[:i], ub.operands[i+1:]...)

	for j := i; j < len(ub.operands); j++ {
		ub.operands[j].index = j
	}
}

func (ub *UserBase) Operands() []*Use {
	return ub.operands
}

func (ub *UserBase) Operand(i int) Value {
	return ub.operands[i].value
}

func (ub *UserBase) SetOperand(i int, v Value) {
	ub.operands[i].set(v)
}

func (ub *UserBase) NumOperands() int {
	return len(ub.operands)
}

// clearOperands unlinks every operand use edge.  Called before a user is
// destroyed so no dangling references remain.
func (ub *UserBase) clearOperands() {
	for _, u := range ub.operands {
		u.set(nil)
	}

	ub.operands = nil
}

// -----------------------------------------------------------------------------

// ReplaceAllUsesWith rewrites every operand slot referencing old to reference
// new.  After it returns, old has no uses and may be safely removed.  The two
// values must have compatible types.
func ReplaceAllUsesWith(old, new Value) {
	if old == new {
		return
	}

	if !compatible(old.Type(), new.Type()) {
		report.ReportICE("replacing uses of a `%s` value with an incompatible `%s` value",
			old.Type().Repr(), new.Type().Repr())
	}

	// Each set() removes the head of old's use list, so drain from the front.
	for len(old.Uses()) > 0 {
		old.Uses()[0].set(new)
	}
}

// compatible reports whether a value of type b may stand wherever a value of
// type a did.  Identical types are always compatible; so are any two integer
// types, since IR integer operations fix their own width semantics.
func compatible(a, b types.Type) bool {
	if a == nil || b == nil {
		// Labels and other untyped values.
		return a == b
	}

	if types.Equals(a, b) {
		return true
	}

	return types.IsInteger(a) && types.IsInteger(b)
}
