package codegen

import (
	"mmcc/mir"
)

// FinalizeFrame patches the prologue/epilogue stubs of f once allocation has
// fixed the spill area: the frame size becomes concrete, local-slot and
// incoming-argument offsets are rebased, and the saved-register sets of the
// push/pop pair are filled in.
//
// The frame layout, growing upward from sp after the prologue:
//
//	sp + 0                      outgoing call arguments
//	sp + argArea                spill slots
//	sp + argArea + spillSize    locals (allocas)
//	sp + frameSize              saved registers, then lr
//	above                       incoming stack arguments
func FinalizeFrame(f *mir.Func, alloc *Allocation) {
	spillSize := int32(4 * len(alloc.Spills))

	frameSize := f.ArgArea + spillSize + f.LocalSize
	if frameSize%8 != 0 {
		frameSize += 8 - frameSize%8
	}

	savedBytes := int32(4 * (len(f.SavedRegs) + 1)) // +1 for lr

	patched := make(map[*mir.SlotImm]bool)

	patch := func(si *mir.SlotImm) {
		if patched[si] {
			return
		}
		patched[si] = true

		switch si.Kind {
		case mir.SlotLocal:
			si.Val += f.ArgArea + spillSize
		case mir.SlotFrameSize:
			si.Val = frameSize
		case mir.SlotArg:
			si.Val += frameSize + savedBytes
		}
	}

	for _, in := range f.Insts {
		if si, ok := in.Dest.(*mir.SlotImm); ok {
			patch(si)
		}

		for _, o := range in.Oprs {
			if si, ok := o.(*mir.SlotImm); ok {
				patch(si)
			}
		}

		// Fill the prologue/epilogue register lists.
		switch {
		case in.Op == mir.PUSH && len(in.Oprs) == 0:
			for _, r := range f.SavedRegs {
				in.Oprs = append(in.Oprs, r)
			}
			in.Oprs = append(in.Oprs, mir.LR)
		case in.Op == mir.POP && len(in.Oprs) == 0:
			for _, r := range f.SavedRegs {
				in.Oprs = append(in.Oprs, r)
			}
			in.Oprs = append(in.Oprs, mir.PC)
		}
	}
}
