package domain

import (
	"fmt"
	"strings"
)

// Arg is a single constructor argument. Exactly one of Value or Ref is
// meaningful: a Ref names a dependency whose recorded address is substituted
// at deploy time.
type Arg struct {
	Value any
	Ref   string
}

// Literal returns an argument carrying a fixed value
func Literal(v any) Arg {
	return Arg{Value: v}
}

// AddressOf returns an argument resolved to the address of the named dependency
func AddressOf(name string) Arg {
	return Arg{Ref: name}
}

// IsRef reports whether the argument references a dependency
func (a Arg) IsRef() bool {
	return a.Ref != ""
}

func (a Arg) String() string {
	if a.IsRef() {
		return "${" + a.Ref + "}"
	}
	return fmt.Sprintf("%v", a.Value)
}

// ContractSpec describes one contract instance to deploy
type ContractSpec struct {
	// Name identifies the instance in the plan and in the result
	Name string
	// Contract is the artifact (contract type) name; defaults to Name
	Contract string
	// Args are the ordered constructor arguments
	Args []Arg
	// Dependencies lists the specs that must be deployed first
	Dependencies []string
	// Wiring maps a zero-argument getter on the deployed contract to the
	// dependency whose address it must return
	Wiring map[string]string
}

// ContractName returns the artifact name to deploy for this spec
func (s *ContractSpec) ContractName() string {
	if s.Contract != "" {
		return s.Contract
	}
	return s.Name
}

// DependsOn reports whether name is a declared dependency of the spec
func (s *ContractSpec) DependsOn(name string) bool {
	for _, dep := range s.Dependencies {
		if dep == name {
			return true
		}
	}
	return false
}

// DeploymentPlan is a dependency-ordered list of specs
type DeploymentPlan struct {
	Group string
	Specs []*ContractSpec
}

// Names returns the spec names in plan order
func (p *DeploymentPlan) Names() []string {
	names := make([]string, 0, len(p.Specs))
	for _, spec := range p.Specs {
		names = append(names, spec.Name)
	}
	return names
}

// Spec returns the spec with the given name, or nil
func (p *DeploymentPlan) Spec(name string) *ContractSpec {
	for _, spec := range p.Specs {
		if spec.Name == name {
			return spec
		}
	}
	return nil
}

// String renders the plan as "A → B → C"
func (p *DeploymentPlan) String() string {
	return strings.Join(p.Names(), " → ")
}
