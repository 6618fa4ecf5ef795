package render

import "fmt"

// BuildExecutionOrder implements §4.2.2: every output resource other than
// "swapchain" claims its pass as producer; every input naming a known
// producer creates a producer→consumer edge ("auto" inputs are runtime-
// provided and ignored). Kahn's algorithm yields the topological order; a
// cycle is a fatal pipeline error.
func BuildExecutionOrder(passes []PassDef) ([]PassDef, error) {
	producerOf := map[string]int{}
	for i, p := range passes {
		for _, res := range p.Outputs {
			if res == "swapchain" {
				continue
			}
			producerOf[res] = i
		}
	}

	indegree := make([]int, len(passes))
	edges := make([][]int, len(passes))
	for i, p := range passes {
		for _, res := range p.Inputs {
			if res == "auto" {
				continue
			}
			producer, ok := producerOf[res]
			if !ok || producer == i {
				continue
			}
			edges[producer] = append(edges[producer], i)
			indegree[i]++
		}
	}

	var queue []int
	for i := range passes {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	var order []int
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, m := range edges[n] {
			indegree[m]--
			if indegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	if len(order) != len(passes) {
		return nil, fmt.Errorf("render pipeline: cycle detected among passes")
	}

	result := make([]PassDef, len(order))
	for i, idx := range order {
		result[i] = passes[idx]
	}
	return result, nil
}
