package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
)

// ErrAborted is returned when the user declines to broadcast
var ErrAborted = errors.New("deployment aborted by user")

// RunDeployment is the deploy command: load a plan file, deploy it, verify
// what got deployed and persist the result
type RunDeployment struct {
	config   *config.RuntimeConfig
	plans    PlanLoader
	chain    ChainConnector
	signers  SignerProvider
	deployer *DeployPlan
	verifier *VerifyArtifacts
	store    ResultStore
	confirm  Confirmer
	progress ProgressSink
}

// NewRunDeployment creates a new run deployment use case
func NewRunDeployment(
	cfg *config.RuntimeConfig,
	plans PlanLoader,
	chain ChainConnector,
	signers SignerProvider,
	deployer *DeployPlan,
	verifier *VerifyArtifacts,
	store ResultStore,
	confirm Confirmer,
	progress ProgressSink,
) *RunDeployment {
	if progress == nil {
		progress = NopProgress{}
	}
	return &RunDeployment{
		config:   cfg,
		plans:    plans,
		chain:    chain,
		signers:  signers,
		deployer: deployer,
		verifier: verifier,
		store:    store,
		confirm:  confirm,
		progress: progress,
	}
}

// RunDeploymentParams contains parameters for a deployment run
type RunDeploymentParams struct {
	PlanPath string
	Yes      bool // skip the broadcast confirmation prompt
}

// RunDeploymentResult is everything the reporter needs after a run
type RunDeploymentResult struct {
	Plan       *domain.DeploymentPlan
	Result     *domain.DeploymentResult
	Verify     *VerifySummary
	ResultPath string
	// Err is the fatal error that stopped the run, if any
	Err error
}

// Execute runs a deployment. The returned run is non-nil as soon as the plan
// could be loaded, and carries the partial result when the error is fatal.
func (r *RunDeployment) Execute(ctx context.Context, params RunDeploymentParams) (*RunDeploymentResult, error) {
	if r.config.Network == nil {
		return nil, fmt.Errorf("no network configured")
	}

	loaded, err := r.plans.Load(ctx, params.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	plan, err := OrderPlan(loaded)
	if err != nil {
		return nil, err
	}

	run := &RunDeploymentResult{Plan: plan}

	if err := r.chain.Connect(ctx); err != nil {
		return run, err
	}

	if !r.config.Network.Local && !params.Yes && r.confirm != nil {
		prompt := fmt.Sprintf("Deploy %d contracts to %s (chain %d)?", len(plan.Specs), r.config.Network.Name, r.config.Network.ChainID)
		ok, err := r.confirm.Confirm(ctx, prompt)
		if err != nil {
			return run, err
		}
		if !ok {
			return run, ErrAborted
		}
	}

	signer, err := r.signers.Signer(ctx)
	if err != nil {
		return run, fmt.Errorf("failed to load signer: %w", err)
	}

	result, deployErr := r.deployer.Deploy(ctx, plan, signer)
	run.Result = result
	run.Err = deployErr

	// Completed artifacts are verified even when the run stopped early
	if result.Len() > 0 && ctx.Err() == nil {
		run.Verify = r.verifier.Run(ctx, result, VerifyOptions{})
	} else {
		skipPending(result, "aborted")
	}

	if result.Len() > 0 {
		path, err := r.store.Save(ctx, result)
		if err != nil {
			r.progress.Error(fmt.Sprintf("Warning: failed to save deployment result: %v", err))
		}
		run.ResultPath = path
	}

	return run, deployErr
}

// skipPending marks artifacts still waiting for verification as skipped, so
// a saved result never claims a verification that will not happen
func skipPending(result *domain.DeploymentResult, reason string) {
	for _, a := range result.Artifacts() {
		if a.Verification.Status == domain.VerificationStatusPending {
			_ = result.SetVerification(a.Name, domain.VerificationInfo{
				Status: domain.VerificationStatusSkipped,
				Reason: reason,
				URL:    a.Verification.URL,
			})
		}
	}
}
