package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

type runFixture struct {
	*deployFixture
	verifier  *MockContractVerifier
	store     *MockResultStore
	confirmer *answerConfirmer
	connected bool
	planPath  string
}

func newRunFixture(t *testing.T) *runFixture {
	return &runFixture{
		deployFixture: newDeployFixture(t),
		verifier:      &MockContractVerifier{},
		store:         &MockResultStore{},
		confirmer:     &answerConfirmer{answer: true},
	}
}

func (f *runFixture) useCase(plan *domain.DeploymentPlan) *usecase.RunDeployment {
	loader := planLoaderFunc(func(_ context.Context, path string) (*domain.DeploymentPlan, error) {
		f.planPath = path
		return plan, nil
	})
	connector := chainConnectorFunc(func(context.Context) error {
		f.connected = true
		return nil
	})
	deployer := f.deployFixture.useCase()
	verify := usecase.NewVerifyArtifacts(f.cfg, f.repo, f.verifier, f.progress)
	return usecase.NewRunDeployment(f.cfg, loader, connector, staticSigner{newSigner()}, deployer, verify, f.store, f.confirmer, f.progress)
}

// unorderedScenarioPlan lists the hub first; the loader does not sort
func unorderedScenarioPlan() *domain.DeploymentPlan {
	plan := scenarioPlan()
	plan.Specs = []*domain.ContractSpec{plan.Specs[2], plan.Specs[1], plan.Specs[0]}
	return plan
}

func TestRunDeployment(t *testing.T) {
	ctx := context.Background()

	t.Run("full run without explorer credential", func(t *testing.T) {
		f := newRunFixture(t)
		f.expectCreate("TokenA", tokenAAddr, 1)
		f.expectConfirm("TokenA", 1)
		f.expectCreate("TokenB", tokenBAddr, 2)
		f.expectConfirm("TokenB", 2)
		f.expectCreate("Hub", hubAddr, 3)
		f.expectConfirm("Hub", 3)
		f.expectHubWiring(tokenAAddr, tokenBAddr)
		f.store.On("Save", mock.Anything, mock.Anything).Return("/tmp/deployments/localhost-31337.json", nil).Once()

		run, err := f.useCase(unorderedScenarioPlan()).Execute(ctx, usecase.RunDeploymentParams{PlanPath: "plan.yaml"})
		require.NoError(t, err)

		assert.Equal(t, "plan.yaml", f.planPath)
		assert.True(t, f.connected)
		assert.Equal(t, []string{"TokenA", "TokenB", "Hub"}, run.Plan.Names())
		assert.Equal(t, 3, run.Result.Len())
		assert.NoError(t, run.Err)
		assert.Equal(t, "/tmp/deployments/localhost-31337.json", run.ResultPath)
		require.NotNil(t, run.Verify)
		assert.Equal(t, 3, run.Verify.Skipped)
		f.verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)

		// Local network needs no confirmation
		assert.Empty(t, f.confirmer.prompts)
	})

	t.Run("partial result is verified and saved on failure", func(t *testing.T) {
		f := newRunFixture(t)
		f.cfg.Network = &config.Network{Name: "sepolia", ChainID: 11155111}
		f.cfg.Confirmations = 1
		f.cfg.ConfirmationTimeout = time.Minute
		f.cfg.Verification = config.VerificationConfig{Enabled: true, APIKey: "key", Concurrency: 1}

		f.expectCreate("TokenA", tokenAAddr, 1)
		f.waiter.On("Wait", mock.Anything, pendingNamed("TokenA"), uint64(1), time.Minute).
			Return(&usecase.Confirmation{BlockNumber: 10, Confirmations: 1}, nil).Once()
		f.expectCreate("TokenB", tokenBAddr, 2)
		f.waiter.On("Wait", mock.Anything, pendingNamed("TokenB"), uint64(1), time.Minute).
			Return(nil, fmt.Errorf("reverted: %w", domain.ErrTransaction)).Once()
		f.verifier.On("Verify", mock.Anything, mock.Anything).
			Return(domain.VerificationInfo{Status: domain.VerificationStatusVerified}).Once()

		var saved *domain.DeploymentResult
		f.store.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.DeploymentResult) }).
			Return("out.json", nil).Once()

		run, err := f.useCase(scenarioPlan()).Execute(ctx, usecase.RunDeploymentParams{PlanPath: "plan.yaml"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransaction)
		require.NotNil(t, run)
		assert.Equal(t, err, run.Err)
		assert.Equal(t, []string{"TokenA"}, run.Result.Names())
		assert.Same(t, run.Result, saved)
		assert.Equal(t, domain.VerificationStatusVerified, statusOf(t, run.Result, "TokenA").Status)

		// Public network prompts before broadcasting
		require.Len(t, f.confirmer.prompts, 1)
		assert.Contains(t, f.confirmer.prompts[0], "sepolia")
	})

	t.Run("aborted run saves pending artifacts as skipped", func(t *testing.T) {
		f := newRunFixture(t)
		f.cfg.Network = &config.Network{Name: "sepolia", ChainID: 11155111}
		f.cfg.Confirmations = 1
		f.cfg.ConfirmationTimeout = time.Minute
		f.cfg.Verification = config.VerificationConfig{Enabled: true, APIKey: "key", Concurrency: 1}

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		f.expectCreate("TokenA", tokenAAddr, 1)
		f.waiter.On("Wait", mock.Anything, pendingNamed("TokenA"), uint64(1), time.Minute).
			Run(func(mock.Arguments) { cancel() }).
			Return(&usecase.Confirmation{BlockNumber: 10, Confirmations: 1}, nil).Once()

		var saved *domain.DeploymentResult
		f.store.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.DeploymentResult) }).
			Return("out.json", nil).Once()

		run, err := f.useCase(scenarioPlan()).Execute(cctx, usecase.RunDeploymentParams{PlanPath: "plan.yaml", Yes: true})
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, run)
		assert.Nil(t, run.Verify)
		require.NotNil(t, saved)
		assert.Equal(t, []string{"TokenA"}, saved.Names())

		info := statusOf(t, saved, "TokenA")
		assert.Equal(t, domain.VerificationStatusSkipped, info.Status)
		assert.Equal(t, "aborted", info.Reason)
		f.verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("declined confirmation sends nothing", func(t *testing.T) {
		f := newRunFixture(t)
		f.cfg.Network = &config.Network{Name: "sepolia", ChainID: 11155111}
		f.confirmer.answer = false

		run, err := f.useCase(scenarioPlan()).Execute(ctx, usecase.RunDeploymentParams{PlanPath: "plan.yaml"})
		assert.ErrorIs(t, err, usecase.ErrAborted)
		require.NotNil(t, run)
		assert.Nil(t, run.Result)
		f.factory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		f := newRunFixture(t)
		f.cfg.Network = &config.Network{Name: "sepolia", ChainID: 11155111}
		f.factory.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("nonce too low")).Once()

		_, err := f.useCase(scenarioPlan()).Execute(ctx, usecase.RunDeploymentParams{PlanPath: "plan.yaml", Yes: true})
		assert.ErrorIs(t, err, domain.ErrTransaction)
		assert.Empty(t, f.confirmer.prompts)
		// Nothing was recorded so nothing is written
		f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("cyclic plan file", func(t *testing.T) {
		f := newRunFixture(t)
		plan := &domain.DeploymentPlan{Specs: []*domain.ContractSpec{
			{Name: "A", Dependencies: []string{"B"}},
			{Name: "B", Dependencies: []string{"A"}},
		}}

		run, err := f.useCase(plan).Execute(ctx, usecase.RunDeploymentParams{PlanPath: "plan.yaml"})
		assert.ErrorIs(t, err, domain.ErrInvalidPlan)
		assert.Nil(t, run)
		assert.False(t, f.connected)
	})

	t.Run("no network", func(t *testing.T) {
		f := newRunFixture(t)
		f.cfg.Network = nil

		_, err := f.useCase(scenarioPlan()).Execute(ctx, usecase.RunDeploymentParams{PlanPath: "plan.yaml"})
		assert.EqualError(t, err, "no network configured")
	})
}
