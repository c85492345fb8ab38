package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
)

// VerifyDeployment re-runs explorer verification for a persisted result
type VerifyDeployment struct {
	config   *config.RuntimeConfig
	store    ResultStore
	verifier *VerifyArtifacts
}

// NewVerifyDeployment creates a new verify deployment use case
func NewVerifyDeployment(cfg *config.RuntimeConfig, store ResultStore, verifier *VerifyArtifacts) *VerifyDeployment {
	return &VerifyDeployment{
		config:   cfg,
		store:    store,
		verifier: verifier,
	}
}

// VerifyResult contains the result of verification
type VerifyResult struct {
	Result     *domain.DeploymentResult
	Summary    *VerifySummary
	ResultPath string
}

// Execute loads the result for the configured network, verifies what is not
// verified yet and saves it back. Running it again is harmless.
func (v *VerifyDeployment) Execute(ctx context.Context, opts VerifyOptions) (*VerifyResult, error) {
	network := v.config.Network
	if network == nil {
		return nil, fmt.Errorf("no network configured")
	}

	result, err := v.store.Load(ctx, network.Name, network.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment result for %s: %w", network.Name, err)
	}

	summary := v.verifier.Run(ctx, result, opts)

	path, err := v.store.Save(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to save deployment result: %w", err)
	}

	return &VerifyResult{
		Result:     result,
		Summary:    summary,
		ResultPath: path,
	}, nil
}
