package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/deployplan/internal/domain"
)

// ShowPlan loads and orders a plan file without touching the network
type ShowPlan struct {
	plans     PlanLoader
	artifacts ArtifactRepository
}

// NewShowPlan creates a new show plan use case
func NewShowPlan(plans PlanLoader, artifacts ArtifactRepository) *ShowPlan {
	return &ShowPlan{plans: plans, artifacts: artifacts}
}

// PlanView is an ordered plan plus the compiled artifact behind each spec
type PlanView struct {
	Plan      *domain.DeploymentPlan
	Artifacts map[string]*domain.CompiledContract
	// Missing maps spec names to the reason their artifact could not be loaded
	Missing map[string]string
}

// Execute loads the plan at path and resolves its artifacts
func (s *ShowPlan) Execute(ctx context.Context, path string) (*PlanView, error) {
	loaded, err := s.plans.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	plan, err := OrderPlan(loaded)
	if err != nil {
		return nil, err
	}

	view := &PlanView{
		Plan:      plan,
		Artifacts: make(map[string]*domain.CompiledContract),
		Missing:   make(map[string]string),
	}
	for _, spec := range plan.Specs {
		contract, err := s.artifacts.GetContract(ctx, spec.ContractName())
		if err != nil {
			view.Missing[spec.Name] = err.Error()
			continue
		}
		view.Artifacts[spec.Name] = contract
	}

	return view, nil
}
