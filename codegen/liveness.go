package codegen

import (
	"sort"

	"mmcc/mir"
)

// cfgBlock is a basic block of the linearized MIR.
type cfgBlock struct {
	// Instructions in the block, labels excluded.
	insts []*mir.Inst

	// Ids of predecessor and successor blocks.
	preds []int
	succs []int

	// All virtual registers defined (killed) in the block.
	varKill map[*mir.VirtReg]bool

	// All upward-exposed virtual registers: used before any definition in
	// the block.
	ueVar map[*mir.VirtReg]bool

	// The liveness solution.
	liveOut map[*mir.VirtReg]bool
}

func newCFGBlock() *cfgBlock {
	return &cfgBlock{
		varKill: make(map[*mir.VirtReg]bool),
		ueVar:   make(map[*mir.VirtReg]bool),
		liveOut: make(map[*mir.VirtReg]bool),
	}
}

// Interval is the live range of a virtual register in block positions.
type Interval struct {
	// The register the interval belongs to.
	VReg *mir.VirtReg

	// First and last position the register is live at.
	Start, End int
}

// Liveness is the result of CFG construction and liveness analysis over one
// function's MIR.
type Liveness struct {
	blocks map[int]*cfgBlock

	// Block ids in original linearization order.
	order []int
}

// Analyze partitions f's instruction list into basic blocks, solves the
// live-out data-flow problem, and is then ready to produce live intervals.
func Analyze(f *mir.Func) *Liveness {
	l := &Liveness{blocks: make(map[int]*cfgBlock)}
	l.buildCFG(f)
	l.initDefUse()
	l.solve()
	return l
}

// -----------------------------------------------------------------------------

// buildCFG walks the linear instruction list, starting a block at every
// label and splitting after conditional branches whose fall-through
// continues into plain code.
func (l *Liveness) buildCFG(f *mir.Func) {
	labelIDs := make(map[*mir.LabelRef]int)
	nextID := 0

	blockID := func(label *mir.LabelRef) int {
		if id, ok := labelIDs[label]; ok {
			return id
		}

		nextID++
		labelIDs[label] = nextID
		return nextID
	}

	block := func(id int) *cfgBlock {
		if b, ok := l.blocks[id]; ok {
			return b
		}

		b := newCFGBlock()
		l.blocks[id] = b
		return b
	}

	addEdge := func(from, to int) {
		block(from).succs = append(block(from).succs, to)
		block(to).preds = append(block(to).preds, from)
	}

	cur := 0
	block(cur)
	l.order = append(l.order, cur)

	insts := f.Insts
	for i, in := range insts {
		if in.IsLabel() {
			next := blockID(in.Oprs[0].(*mir.LabelRef))

			// Fall through from the previous block unless its last
			// instruction never falls through.
			if i == 0 || !insts[i-1].EndsBlockUnconditionally() {
				addEdge(cur, next)
			}

			cur = next
			l.order = append(l.order, cur)
			continue
		}

		block(cur).insts = append(block(cur).insts, in)

		switch {
		case in.Op == mir.B && in.Cond != mir.CondAL:
			addEdge(cur, blockID(in.Oprs[0].(*mir.LabelRef)))

			// If the next instruction is neither a branch nor a label, the
			// fall-through path continues in an anonymous block.
			if i+1 < len(insts) && insts[i+1].Op != mir.B && !insts[i+1].IsLabel() {
				nextID++
				anon := nextID
				addEdge(cur, anon)
				cur = anon
				l.order = append(l.order, cur)
			}
		case in.Op == mir.B:
			addEdge(cur, blockID(in.Oprs[0].(*mir.LabelRef)))
		}
	}
}

// -----------------------------------------------------------------------------

// vregUses collects the virtual registers an instruction reads.
func vregUses(in *mir.Inst) []*mir.VirtReg {
	var uses []*mir.VirtReg

	add := func(o mir.Operand) {
		switch v := o.(type) {
		case *mir.VirtReg:
			uses = append(uses, v)
		case *mir.MemOperand:
			if vr, ok := v.Base.(*mir.VirtReg); ok {
				uses = append(uses, vr)
			}
		}
	}

	for _, o := range in.Oprs {
		add(o)
	}

	// A conditional move leaves its destination unchanged on the untaken
	// path, so the destination is also an input.
	if in.Op == mir.MOV && in.Cond != mir.CondAL {
		add(in.Dest)
	}

	return uses
}

// vregDef returns the virtual register an instruction writes, if any.
func vregDef(in *mir.Inst) (*mir.VirtReg, bool) {
	if vr, ok := in.Dest.(*mir.VirtReg); ok {
		return vr, true
	}

	return nil, false
}

// initDefUse computes var_kill and ue_var for every block.
func (l *Liveness) initDefUse() {
	for _, b := range l.blocks {
		for _, in := range b.insts {
			for _, vr := range vregUses(in) {
				if !b.varKill[vr] {
					b.ueVar[vr] = true
				}
			}

			if vr, ok := vregDef(in); ok {
				b.varKill[vr] = true
			}
		}
	}
}

// -----------------------------------------------------------------------------

// solve iterates the live-out equations to a fixpoint, visiting blocks in
// reverse post-order of the reverse CFG.
//
//	live_out(B) = U_{S in succ(B)} (ue_var(S) U (live_out(S) \ var_kill(S)))
func (l *Liveness) solve() {
	rpo := l.reversePostOrder()

	changed := true
	for changed {
		changed = false

		for _, id := range rpo {
			b := l.blocks[id]

			for _, succID := range b.succs {
				succ := l.blocks[succID]

				for vr := range succ.ueVar {
					if !b.liveOut[vr] {
						b.liveOut[vr] = true
						changed = true
					}
				}

				for vr := range succ.liveOut {
					if !succ.varKill[vr] && !b.liveOut[vr] {
						b.liveOut[vr] = true
						changed = true
					}
				}
			}
		}
	}
}

// reversePostOrder returns block ids in RPO of the reverse CFG, rooted at
// the exit blocks.
func (l *Liveness) reversePostOrder() []int {
	var rpo []int
	visited := make(map[int]bool)

	var walk func(id int)
	walk = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true

		for _, p := range l.blocks[id].preds {
			walk(p)
		}

		rpo = append([]int{id}, rpo...)
	}

	// Exits in linearization order keep the traversal deterministic.
	for _, id := range l.order {
		if len(l.blocks[id].succs) == 0 {
			walk(id)
		}
	}

	// Blocks on paths that never reach an exit (infinite loops) still need
	// visiting.
	for _, id := range l.order {
		walk(id)
	}

	return rpo
}

// -----------------------------------------------------------------------------

// Intervals produces the conservative live interval of every virtual
// register: positions advance per block in original linearization order, and
// a register is live at a position if it appears in the block's var_kill,
// ue_var, or live_out set.
func (l *Liveness) Intervals() []*Interval {
	byReg := make(map[*mir.VirtReg]*Interval)

	log := func(vr *mir.VirtReg, pos int) {
		if iv, ok := byReg[vr]; ok {
			iv.End = pos
		} else {
			byReg[vr] = &Interval{VReg: vr, Start: pos, End: pos}
		}
	}

	for pos, id := range l.order {
		b := l.blocks[id]

		for _, vr := range sortedRegs(b.varKill) {
			log(vr, pos)
		}
		for _, vr := range sortedRegs(b.ueVar) {
			log(vr, pos)
		}
		for _, vr := range sortedRegs(b.liveOut) {
			log(vr, pos)
		}
	}

	intervals := make([]*Interval, 0, len(byReg))
	for _, iv := range byReg {
		intervals = append(intervals, iv)
	}

	// Allocation order: ascending start, register id as tiebreak.
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}

		return intervals[i].VReg.ID < intervals[j].VReg.ID
	})

	return intervals
}

func sortedRegs(set map[*mir.VirtReg]bool) []*mir.VirtReg {
	regs := make([]*mir.VirtReg, 0, len(set))
	for vr := range set {
		regs = append(regs, vr)
	}

	sort.Slice(regs, func(i, j int) bool { return regs[i].ID < regs[j].ID })
	return regs
}
