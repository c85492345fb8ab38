package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
	"gopkg.in/yaml.v3"
)

// refPattern matches an argument that is exactly "${Name}"
var refPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// PlanFile is the YAML form of a deployment plan
type PlanFile struct {
	Group     string                   `yaml:"group"`
	Contracts map[string]*ContractFile `yaml:"contracts"`
}

// ContractFile is one entry of the contracts map
type ContractFile struct {
	Contract string            `yaml:"contract,omitempty"`
	Deps     []string          `yaml:"deps,omitempty"`
	Args     []any             `yaml:"args,omitempty"`
	Wiring   map[string]string `yaml:"wiring,omitempty"`
}

// Validate performs the structural checks that need no ordering
func (f *PlanFile) Validate() error {
	if f.Group == "" {
		return fmt.Errorf("group name is required")
	}

	if len(f.Contracts) == 0 {
		return fmt.Errorf("at least one contract is required")
	}

	for name, contract := range f.Contracts {
		if contract == nil {
			continue
		}
		for _, dep := range contract.Deps {
			if dep == name {
				return fmt.Errorf("contract '%s' cannot depend on itself", name)
			}
			if _, exists := f.Contracts[dep]; !exists {
				return fmt.Errorf("contract '%s' depends on non-existent contract '%s'", name, dep)
			}
		}
	}

	return nil
}

// Plan converts the file to a domain plan with specs sorted by name.
// "${Name}" arguments become references to Name's deployed address.
func (f *PlanFile) Plan() *domain.DeploymentPlan {
	names := make([]string, 0, len(f.Contracts))
	for name := range f.Contracts {
		names = append(names, name)
	}
	sort.Strings(names)

	plan := &domain.DeploymentPlan{Group: f.Group}
	for _, name := range names {
		entry := f.Contracts[name]
		if entry == nil {
			entry = &ContractFile{}
		}
		spec := &domain.ContractSpec{
			Name:         name,
			Contract:     entry.Contract,
			Dependencies: append([]string(nil), entry.Deps...),
			Wiring:       entry.Wiring,
		}
		for _, arg := range entry.Args {
			if s, ok := arg.(string); ok {
				if m := refPattern.FindStringSubmatch(s); m != nil {
					spec.Args = append(spec.Args, domain.AddressOf(m[1]))
					continue
				}
			}
			spec.Args = append(spec.Args, domain.Literal(arg))
		}
		plan.Specs = append(plan.Specs, spec)
	}
	return plan
}

// PlanFileLoader reads YAML plan files
type PlanFileLoader struct{}

// NewPlanFileLoader creates a new plan file loader
func NewPlanFileLoader() *PlanFileLoader {
	return &PlanFileLoader{}
}

// Load parses and validates the plan file at path
func (l *PlanFileLoader) Load(_ context.Context, path string) (*domain.DeploymentPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a plan document. Unknown keys are rejected.
func ParsePlan(data []byte) (*domain.DeploymentPlan, error) {
	var file PlanFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, domain.InvalidPlan("%w", err)
	}
	return file.Plan(), nil
}

// Ensure PlanFileLoader implements PlanLoader
var _ usecase.PlanLoader = (*PlanFileLoader)(nil)
