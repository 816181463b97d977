package codegen

import (
	"sort"

	"mmcc/mir"
	"mmcc/report"
)

// allocatable is the pool of general-purpose registers handed out by the
// allocator: the callee-saved registers r4..r10.  r0-r3 stay free for
// argument marshalling and r11/r12/r3 serve as spill scratch.
var allocatable = []int{4, 5, 6, 7, 8, 9, 10}

// scratchRegs are reserved for spill reloads; they are never allocated.
var scratchRegs = []*mir.PhysReg{mir.Reg(11), mir.Reg(12), mir.Reg(3)}

// Allocation maps every virtual register to a physical register or a spill
// slot index.
type Allocation struct {
	// Registers assigned to non-spilled virtual registers.
	Regs map[*mir.VirtReg]*mir.PhysReg

	// Spill slot indices of spilled virtual registers.
	Spills map[*mir.VirtReg]int
}

// AllocateRegisters runs linear scan over the intervals, which must be
// sorted by ascending start position.
func AllocateRegisters(intervals []*Interval) *Allocation {
	if len(allocatable) == 0 {
		report.ReportFatal("register allocation impossible: no allocatable registers remain")
	}

	alloc := &Allocation{
		Regs:   make(map[*mir.VirtReg]*mir.PhysReg),
		Spills: make(map[*mir.VirtReg]int),
	}

	free := append([]int(nil), allocatable...)

	// Active intervals, sorted by ascending end position.
	var active []*Interval

	takeFree := func() int {
		reg := free[0]
		free = free[1:]
		return reg
	}

	release := func(reg int) {
		free = append(free, reg)
		sort.Ints(free)
	}

	insertActive := func(iv *Interval) {
		ndx := sort.Search(len(active), func(i int) bool {
			return active[i].End > iv.End
		})

		active = append(active, nil)
		copy(active[ndx+1:], active[ndx:])
		active[ndx] = iv
	}

	spillSlot := func(vr *mir.VirtReg) {
		alloc.Spills[vr] = len(alloc.Spills)
	}

	for _, iv := range intervals {
		// Expire every active interval ending before this one starts.
		for len(active) > 0 && active[0].End < iv.Start {
			release(alloc.Regs[active[0].VReg].Index)
			active = active[1:]
		}

		if len(free) > 0 {
			alloc.Regs[iv.VReg] = mir.Reg(takeFree())
			insertActive(iv)
			continue
		}

		// No free register: spill the interval ending last.
		victim := active[len(active)-1]

		if victim.End > iv.End {
			// The victim outlives the new interval: it moves to the stack
			// and donates its register.
			alloc.Regs[iv.VReg] = alloc.Regs[victim.VReg]
			delete(alloc.Regs, victim.VReg)
			spillSlot(victim.VReg)

			active = active[:len(active)-1]
			insertActive(iv)
		} else {
			spillSlot(iv.VReg)
		}
	}

	return alloc
}

// -----------------------------------------------------------------------------

// RewriteVirtual substitutes physical registers and spill-slot accesses for
// the virtual registers of f according to alloc, and records the
// callee-saved registers the function ended up using.
func RewriteVirtual(f *mir.Func, alloc *Allocation) {
	saved := make(map[*mir.PhysReg]bool)
	spillBase := f.ArgArea

	spillMem := func(vr *mir.VirtReg) *mir.MemOperand {
		return &mir.MemOperand{Base: mir.SP, Offset: spillBase + int32(4*alloc.Spills[vr])}
	}

	var out []*mir.Inst

	for _, in := range f.Insts {
		scratchNdx := 0
		takeScratch := func() *mir.PhysReg {
			if scratchNdx == len(scratchRegs) {
				report.ReportFatal("register allocation impossible: out of spill scratch registers")
			}

			r := scratchRegs[scratchNdx]
			scratchNdx++
			return r
		}

		var loads, stores []*mir.Inst

		mapReg := func(vr *mir.VirtReg, isRead bool) *mir.PhysReg {
			if pr, ok := alloc.Regs[vr]; ok {
				if pr.Index >= 4 && pr.Index <= 10 {
					saved[pr] = true
				}

				return pr
			}

			sc := takeScratch()
			if isRead {
				loads = append(loads, mir.NewInst(mir.LDR, sc, spillMem(vr)))
			}

			return sc
		}

		// A conditional move reads its destination, so a spilled destination
		// must be reloaded first and the scratch reused for the write-back.
		readsDest := in.Op == mir.MOV && in.Cond != mir.CondAL

		for i, o := range in.Oprs {
			switch v := o.(type) {
			case *mir.VirtReg:
				in.Oprs[i] = mapReg(v, true)
			case *mir.MemOperand:
				if vr, ok := v.Base.(*mir.VirtReg); ok {
					v.Base = mapReg(vr, true)
				}
			}
		}

		if vr, ok := in.Dest.(*mir.VirtReg); ok {
			if _, spilled := alloc.Spills[vr]; spilled {
				sc := mapReg(vr, readsDest)
				in.Dest = sc
				stores = append(stores, mir.NewInst(mir.STR, nil, sc, spillMem(vr)))
			} else {
				in.Dest = mapReg(vr, false)
			}
		}

		out = append(out, loads...)
		out = append(out, in)
		out = append(out, stores...)
	}

	f.Insts = out

	// Deterministic saved-register order.
	for _, idx := range allocatable {
		if saved[mir.Reg(idx)] {
			f.SavedRegs = append(f.SavedRegs, mir.Reg(idx))
		}
	}
}
