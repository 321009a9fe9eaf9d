package parser

import "LeadScout/internal/domain"

type frame[T any] struct {
	node  T
	depth int
}

// flattenReplies walks a reply forest depth-first, emitting each parent right before
// its children. toComment may reject a node, which also drops its subtree. Descent
// stops once limit comments were emitted or below maxDepth (both ignored when <= 0).
func flattenReplies[T any](roots []T, children func(T) []T, toComment func(T) (domain.Comment, bool), limit, maxDepth int) []domain.Comment {
	out := make([]domain.Comment, 0)
	stack := make([]frame[T], 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame[T]{node: roots[i]})
	}

	for len(stack) > 0 {
		if limit > 0 && len(out) >= limit {
			break
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c, ok := toComment(top.node)
		if !ok {
			continue
		}
		c.Depth = top.depth
		out = append(out, c)

		if maxDepth > 0 && top.depth+1 >= maxDepth {
			continue
		}
		kids := children(top.node)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame[T]{node: kids[i], depth: top.depth + 1})
		}
	}
	return out
}
