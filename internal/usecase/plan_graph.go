package usecase

import (
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/deployplan/internal/domain"
)

// DependencyGraph represents a directed acyclic graph of contract specs
type DependencyGraph struct {
	nodes map[string]*domain.ContractSpec
	edges map[string][]string // adjacency list: node -> list of dependents
}

// NewDependencyGraph builds the graph for a set of specs. Unknown
// dependencies are left out of the edges and reported by TopologicalSort.
func NewDependencyGraph(specs []*domain.ContractSpec) *DependencyGraph {
	graph := &DependencyGraph{
		nodes: make(map[string]*domain.ContractSpec, len(specs)),
		edges: make(map[string][]string),
	}
	for _, spec := range specs {
		graph.nodes[spec.Name] = spec
	}

	for _, spec := range specs {
		for _, dep := range lo.Uniq(spec.Dependencies) {
			if _, exists := graph.nodes[dep]; !exists {
				continue
			}
			graph.edges[dep] = append(graph.edges[dep], spec.Name)
		}
	}

	return graph
}

// TopologicalSort orders the specs so every spec follows its dependencies.
// Ties are broken by name, so the same graph always yields the same order.
func (g *DependencyGraph) TopologicalSort() ([]*domain.ContractSpec, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		inDegree[name] = 0
	}

	for name, spec := range g.nodes {
		for _, dep := range lo.Uniq(spec.Dependencies) {
			if _, exists := g.nodes[dep]; !exists {
				return nil, domain.InvalidPlan("contract '%s' depends on undefined contract '%s'", name, dep)
			}
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]*domain.ContractSpec, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.nodes[current])

		dependents := g.edges[current]
		sort.Strings(dependents)
		for _, dependent := range dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycleNodes []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycleNodes = append(cycleNodes, name)
			}
		}
		sort.Strings(cycleNodes)
		return nil, domain.InvalidPlan("circular dependency detected involving contracts: %v", cycleNodes)
	}

	return result, nil
}

// OrderPlan validates the specs of plan and returns a new plan holding them
// in dependency order
func OrderPlan(plan *domain.DeploymentPlan) (*domain.DeploymentPlan, error) {
	if plan == nil {
		return nil, domain.InvalidPlan("no plan given")
	}
	if err := validateSpecs(plan.Specs); err != nil {
		return nil, err
	}

	ordered, err := NewDependencyGraph(plan.Specs).TopologicalSort()
	if err != nil {
		return nil, err
	}

	return &domain.DeploymentPlan{Group: plan.Group, Specs: ordered}, nil
}

// ValidatePlan checks that plan can be executed as given: specs are well
// formed, the graph is acyclic and every spec comes after its dependencies
func ValidatePlan(plan *domain.DeploymentPlan) error {
	if plan == nil {
		return domain.InvalidPlan("no plan given")
	}
	if err := validateSpecs(plan.Specs); err != nil {
		return err
	}
	if _, err := NewDependencyGraph(plan.Specs).TopologicalSort(); err != nil {
		return err
	}

	position := make(map[string]int, len(plan.Specs))
	for i, spec := range plan.Specs {
		position[spec.Name] = i
	}
	for i, spec := range plan.Specs {
		for _, dep := range spec.Dependencies {
			if position[dep] > i {
				return domain.InvalidPlan("contract '%s' is ordered before its dependency '%s'", spec.Name, dep)
			}
		}
	}

	return nil
}

// validateSpecs checks each spec on its own and against the set of names
func validateSpecs(specs []*domain.ContractSpec) error {
	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec == nil {
			return domain.InvalidPlan("plan contains an empty entry")
		}
		if spec.Name == "" {
			return domain.InvalidPlan("contract name is required")
		}
		if names[spec.Name] {
			return domain.InvalidPlan("contract '%s' is defined more than once", spec.Name)
		}
		names[spec.Name] = true
	}

	for _, spec := range specs {
		for _, dep := range spec.Dependencies {
			if dep == spec.Name {
				return domain.InvalidPlan("contract '%s' cannot depend on itself", spec.Name)
			}
			if !names[dep] {
				return domain.InvalidPlan("contract '%s' depends on undefined contract '%s'", spec.Name, dep)
			}
		}
		for i, arg := range spec.Args {
			if arg.IsRef() && !spec.DependsOn(arg.Ref) {
				return domain.InvalidPlan("contract '%s' argument %d references '%s' which is not a dependency", spec.Name, i, arg.Ref)
			}
		}
		for _, getter := range sortedGetters(spec) {
			if dep := spec.Wiring[getter]; !spec.DependsOn(dep) {
				return domain.InvalidPlan("contract '%s' wiring %s() references '%s' which is not a dependency", spec.Name, getter, dep)
			}
		}
	}

	return nil
}

// sortedGetters returns the wiring getters of spec in name order
func sortedGetters(spec *domain.ContractSpec) []string {
	getters := lo.Keys(spec.Wiring)
	sort.Strings(getters)
	return getters
}
