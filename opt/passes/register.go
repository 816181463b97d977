package passes

import "mmcc/opt"

// RegisterAll inserts every mid-level pass descriptor into the process-wide
// registry.  It is called explicitly from the driver's start-up path so
// registration order never depends on package initialization order.
func RegisterAll() {
	opt.Register(&opt.PassInfo{
		Name:        "dead_global_elim",
		Ctor:        func() opt.Pass { return &DeadGlobalElim{} },
		Stages:      opt.StagePreOpt | opt.StageOpt,
		MinOptLevel: 0,
	})

	opt.Register(&opt.PassInfo{
		Name:        "const_fold",
		Ctor:        func() opt.Pass { return &ConstFold{} },
		Stages:      opt.StageOpt,
		MinOptLevel: 1,
	})

	opt.Register(&opt.PassInfo{
		Name:        "algebraic_simp",
		Ctor:        func() opt.Pass { return &AlgebraicSimp{} },
		Stages:      opt.StageOpt,
		MinOptLevel: 1,
		Deps:        []string{"const_fold"},
	})

	opt.Register(&opt.PassInfo{
		Name:        "inliner",
		Ctor:        func() opt.Pass { return &Inliner{} },
		Stages:      opt.StageOpt,
		MinOptLevel: 2,
	})

	opt.Register(&opt.PassInfo{
		Name:        "local_value_numbering",
		Ctor:        func() opt.Pass { return &LocalValueNumbering{} },
		Stages:      opt.StageOpt,
		MinOptLevel: 2,
		Deps:        []string{"algebraic_simp"},
	})

	opt.Register(&opt.PassInfo{
		Name:        "dead_code_elim",
		Ctor:        func() opt.Pass { return &DeadCodeElim{} },
		Stages:      opt.StageOpt | opt.StagePostOpt,
		MinOptLevel: 1,
		Deps:        []string{"algebraic_simp"},
	})
}
