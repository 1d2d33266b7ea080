package codec

import "fmt"

// stableTopoOrder linearises n nodes so that every node in parents[i] comes
// before i. Ties are broken by node id, which equals creation order, so
// encoders with no relative constraint keep the order they were added in.
// Returns ErrDependencyCycle when the edges do not form a DAG.
//
// n is the number of attributes encoders in a call, typically single digits,
// so the repeated frontier scan is simpler and cheaper than a heap.
func stableTopoOrder(n int, parents [][]int) ([]int, error) {
	indegree := make([]int, n)
	children := make([][]int, n)
	for node, ps := range parents {
		seen := make(map[int]bool, len(ps))
		for _, p := range ps {
			if seen[p] {
				continue
			}
			seen[p] = true
			indegree[node]++
			children[p] = append(children[p], node)
		}
	}

	order := make([]int, 0, n)
	placed := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !placed[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, fmt.Errorf("%d of %d encoders unplaceable: %w",
				n-len(order), n, ErrDependencyCycle)
		}
		placed[next] = true
		order = append(order, next)
		for _, c := range children[next] {
			indegree[c]--
		}
	}
	return order, nil
}
