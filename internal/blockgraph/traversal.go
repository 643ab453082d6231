package blockgraph

// TraversalOptions tunes TopologicalTraversal.
type TraversalOptions struct {
	// Filter selects the blocks to yield. Nil yields every block.
	Filter func(key string) bool
	// YieldDescendantsOfUnyielded lets blocks below a filtered-out block be
	// yielded. When false, a block is yielded only if one of its parents was.
	YieldDescendantsOfUnyielded bool
}

// TopologicalTraversal walks the structure from the root and returns block
// keys such that every block comes after all of its parents. Siblings keep
// their document order: the walk is a depth-first pass over children, and a
// block reached before all its parents were visited is deferred until its
// last parent pushes it again.
func (bs *BlockStructure) TopologicalTraversal(opts TraversalOptions) []string {
	if _, ok := bs.blocks[bs.root]; !ok {
		return nil
	}

	visited := make(map[string]bool, len(bs.blocks))
	yielded := make(map[string]bool, len(bs.blocks))
	var out []string

	stack := []string{bs.root}
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[key] {
			continue
		}

		b := bs.blocks[key]
		if !bs.parentsVisited(b, visited) {
			continue
		}
		visited[key] = true

		yield := opts.Filter == nil || opts.Filter(key)
		if yield && !opts.YieldDescendantsOfUnyielded && key != bs.root {
			yield = anyYielded(b.parents, yielded)
		}
		yielded[key] = yield
		if yield {
			out = append(out, key)
		}

		for i := len(b.children) - 1; i >= 0; i-- {
			if !visited[b.children[i]] {
				stack = append(stack, b.children[i])
			}
		}
	}
	return out
}

func (bs *BlockStructure) parentsVisited(b *blockData, visited map[string]bool) bool {
	for _, p := range b.parents {
		if _, known := bs.blocks[p]; known && !visited[p] {
			return false
		}
	}
	return true
}

func anyYielded(parents []string, yielded map[string]bool) bool {
	for _, p := range parents {
		if yielded[p] {
			return true
		}
	}
	return false
}
