package orchestrator

import (
	"fmt"
	"sort"
)

// executionOrder validates the registry graph and returns a topological
// order. Ties resolve by canonical position, then by name, so the order is
// the same on every call.
func executionOrder(r Registry) ([]Feature, error) {
	rank := func(f Feature) int {
		for i, c := range CanonicalOrder {
			if c == f {
				return i
			}
		}
		return len(CanonicalOrder)
	}
	less := func(a, b Feature) bool {
		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra < rb
		}
		return a < b
	}

	indegree := make(map[Feature]int, len(r))
	dependents := make(map[Feature][]Feature, len(r))
	for f := range r {
		indegree[f] = 0
	}
	for f, s := range r {
		for _, dep := range s.Requires() {
			if _, ok := r[dep]; !ok {
				return nil, fmt.Errorf("%w: %s requires %s", ErrUnknownDependency, f, dep)
			}
			indegree[f]++
			dependents[dep] = append(dependents[dep], f)
		}
	}

	var ready []Feature
	for f, d := range indegree {
		if d == 0 {
			ready = append(ready, f)
		}
	}

	order := make([]Feature, 0, len(r))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		f := ready[0]
		ready = ready[1:]
		order = append(order, f)
		for _, d := range dependents[f] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(r) {
		var stuck []Feature
		for f, d := range indegree {
			if d > 0 {
				stuck = append(stuck, f)
			}
		}
		sort.Slice(stuck, func(i, j int) bool { return less(stuck[i], stuck[j]) })
		return nil, fmt.Errorf("%w: %v", ErrDependencyCycle, stuck)
	}
	return order, nil
}

// validateRequest checks the requested features against the registry.
func validateRequest(r Registry, features []Feature) error {
	enabled := make(map[Feature]bool, len(features))
	var unknown []string
	for _, f := range features {
		if _, ok := r[f]; !ok {
			if _, builtin := Dependencies[f]; builtin {
				return fmt.Errorf("%w: %s", ErrMissingStage, f)
			}
			unknown = append(unknown, string(f))
			continue
		}
		enabled[f] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %v", ErrUnknownFeature, unknown)
	}
	for _, f := range features {
		for _, dep := range r[f].Requires() {
			if !enabled[dep] {
				return fmt.Errorf("%w: feature %q requires %q but it is not enabled", ErrUnsatisfiedDependency, f, dep)
			}
		}
	}
	return nil
}
