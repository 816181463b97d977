package ssa

// buildDomTree computes the immediate-dominator map for the function using
// the iterative RPO algorithm of Cooper, Harvey, and Kennedy.
func (f *Function) buildDomTree() {
	f.dom = make(map[*BasicBlock]*BasicBlock)
	f.domValid = true

	if len(f.blocks) == 0 {
		return
	}

	entry := f.blocks[0]

	// Number the reachable blocks in reverse post-order.
	rpo := f.reversePostOrder()
	rpoNum := make(map[*BasicBlock]int, len(rpo))
	for i, b := range rpo {
		rpoNum[b] = i
	}

	idom := make(map[*BasicBlock]*BasicBlock, len(rpo))
	idom[entry] = entry

	intersect := func(a, b *BasicBlock) *BasicBlock {
		for a != b {
			for rpoNum[a] > rpoNum[b] {
				a = idom[a]
			}
			for rpoNum[b] > rpoNum[a] {
				b = idom[b]
			}
		}

		return a
	}

	changed := true
	for changed {
		changed = false

		for _, b := range rpo[1:] {
			var newIDom *BasicBlock

			for _, p := range b.Preds() {
				if idom[p] == nil {
					continue
				}

				if newIDom == nil {
					newIDom = p
				} else {
					newIDom = intersect(p, newIDom)
				}
			}

			if newIDom != nil && idom[b] != newIDom {
				idom[b] = newIDom
				changed = true
			}
		}
	}

	// The entry block has no immediate dominator.
	for b, d := range idom {
		if b == entry {
			continue
		}

		f.dom[b] = d
	}
}

// reversePostOrder returns the blocks reachable from the entry in reverse
// post-order.
func (f *Function) reversePostOrder() []*BasicBlock {
	var post []*BasicBlock
	visited := make(map[*BasicBlock]bool, len(f.blocks))

	var walk func(b *BasicBlock)
	walk = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true

		for _, s := range b.Succs() {
			walk(s)
		}

		post = append(post, b)
	}

	walk(f.blocks[0])

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}

	return post
}
