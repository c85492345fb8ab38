package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
)

// DeployPlan deploys the specs of a plan one after another with a single
// signer, confirming and checking each before the next is submitted
type DeployPlan struct {
	config    *config.RuntimeConfig
	artifacts ArtifactRepository
	encoder   ArgumentEncoder
	factory   ArtifactFactory
	waiter    ConfirmationWaiter
	wiring    WiringReader
	progress  ProgressSink
}

// NewDeployPlan creates a new deploy plan use case
func NewDeployPlan(
	cfg *config.RuntimeConfig,
	artifacts ArtifactRepository,
	encoder ArgumentEncoder,
	factory ArtifactFactory,
	waiter ConfirmationWaiter,
	wiring WiringReader,
	progress ProgressSink,
) *DeployPlan {
	if progress == nil {
		progress = NopProgress{}
	}
	return &DeployPlan{
		config:    cfg,
		artifacts: artifacts,
		encoder:   encoder,
		factory:   factory,
		waiter:    waiter,
		wiring:    wiring,
		progress:  progress,
	}
}

// Deploy runs plan and returns the artifacts recorded so far. On the first
// fatal error the remaining specs are abandoned and the partial result is
// returned alongside the error.
func (d *DeployPlan) Deploy(ctx context.Context, plan *domain.DeploymentPlan, signer *domain.SignerContext) (*domain.DeploymentResult, error) {
	result := d.newResult(plan, signer)

	if err := ValidatePlan(plan); err != nil {
		return result, err
	}
	if signer == nil {
		return result, fmt.Errorf("no signer configured")
	}

	contracts, err := d.preflight(ctx, plan)
	if err != nil {
		return result, err
	}

	if err := signer.Acquire(); err != nil {
		return result, err
	}
	defer signer.Release()

	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCreated,
		Total:    len(plan.Specs),
		Metadata: plan,
	})

	for i, spec := range plan.Specs {
		// Nothing is broadcast once the run has been aborted
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("deployment aborted before %s: %w", spec.Name, err)
		}

		d.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageSpecStarting,
			Current:  i + 1,
			Total:    len(plan.Specs),
			Message:  spec.Name,
			Spinner:  true,
			Metadata: spec,
		})

		if err := d.deploySpec(ctx, spec, contracts[spec.Name], signer, result); err != nil {
			d.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageSpecFailed,
				Current:  i + 1,
				Total:    len(plan.Specs),
				Message:  spec.Name,
				Metadata: err,
			})
			return result, err
		}
	}

	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageDeployCompleted,
		Total:    len(plan.Specs),
		Metadata: result,
	})

	return result, nil
}

func (d *DeployPlan) newResult(plan *domain.DeploymentPlan, signer *domain.SignerContext) *domain.DeploymentResult {
	var (
		group    string
		network  string
		chainID  uint64
		deployer common.Address
	)
	if plan != nil {
		group = plan.Group
	}
	if signer != nil {
		deployer = signer.Address
		if signer.ChainID != nil {
			chainID = signer.ChainID.Uint64()
		}
	}
	if d.config != nil && d.config.Network != nil {
		network = d.config.Network.Name
		if chainID == 0 {
			chainID = d.config.Network.ChainID
		}
	}
	return domain.NewDeploymentResult(group, network, chainID, deployer)
}

// preflight loads every artifact and checks constructor arguments and wiring
// getters against its ABI, so a broken plan fails before the first broadcast
func (d *DeployPlan) preflight(ctx context.Context, plan *domain.DeploymentPlan) (map[string]*domain.CompiledContract, error) {
	contracts := make(map[string]*domain.CompiledContract, len(plan.Specs))

	for _, spec := range plan.Specs {
		contract, err := d.artifacts.GetContract(ctx, spec.ContractName())
		if err != nil {
			return nil, domain.InvalidPlan("contract '%s': %w", spec.Name, err)
		}
		if len(contract.Bytecode) == 0 {
			return nil, domain.InvalidPlan("contract '%s': artifact %s has no creation bytecode (abstract contract or interface?)", spec.Name, contract.Name)
		}

		// Refs are not known yet; the zero address stands in for type checking
		if _, err := d.encoder.EncodeConstructorArgs(contract, resolveArgs(spec, nil)); err != nil {
			return nil, domain.InvalidPlan("contract '%s': %w", spec.Name, err)
		}

		for _, getter := range sortedGetters(spec) {
			method, ok := contract.ABI.Methods[getter]
			if !ok {
				return nil, domain.InvalidPlan("contract '%s': %s has no method %s()", spec.Name, contract.Name, getter)
			}
			if len(method.Inputs) != 0 || len(method.Outputs) != 1 || method.Outputs[0].Type.String() != "address" {
				return nil, domain.InvalidPlan("contract '%s': %s() must take no arguments and return an address", spec.Name, getter)
			}
		}

		contracts[spec.Name] = contract
	}

	return contracts, nil
}

func (d *DeployPlan) deploySpec(
	ctx context.Context,
	spec *domain.ContractSpec,
	contract *domain.CompiledContract,
	signer *domain.SignerContext,
	result *domain.DeploymentResult,
) error {
	constructorArgs, err := d.encoder.EncodeConstructorArgs(contract, resolveArgs(spec, result))
	if err != nil {
		return domain.InvalidPlan("contract '%s': %w", spec.Name, err)
	}

	pending, err := d.factory.Create(ctx, signer, contract, constructorArgs)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("deployment aborted while submitting %s: %w", spec.Name, err)
		}
		return domain.TransactionFailed(spec.Name, err)
	}
	pending.Name = spec.Name

	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageTxSubmitted,
		Message:  spec.Name,
		Spinner:  true,
		Metadata: pending,
	})

	confirmation, err := d.waiter.Wait(ctx, pending, d.confirmations(), d.confirmationTimeout())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConfirmationTimeout):
		return domain.ConfirmationTimedOut(spec.Name, err)
	case ctx.Err() != nil:
		// The transaction is out; only scheduling of the rest stops here
		return fmt.Errorf("deployment aborted while waiting for %s (tx %s): %w", spec.Name, pending.TxHash.Hex(), err)
	default:
		return domain.TransactionFailed(spec.Name, err)
	}

	address := pending.Address
	if confirmation.ContractAddress != (common.Address{}) {
		address = confirmation.ContractAddress
	}

	artifact := &domain.DeployedArtifact{
		Name:            spec.Name,
		Contract:        contract.Name,
		Address:         address,
		TxHash:          pending.TxHash,
		BlockNumber:     confirmation.BlockNumber,
		Confirmations:   confirmation.Confirmations,
		ConstructorArgs: hex.EncodeToString(constructorArgs),
		DeployedAt:      time.Now().UTC(),
		Verification:    domain.VerificationInfo{Status: initialVerificationStatus(d.config)},
	}
	if err := result.Record(artifact); err != nil {
		return domain.InvalidPlan("contract '%s': %w", spec.Name, err)
	}

	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageConfirmed,
		Message:  spec.Name,
		Metadata: artifact,
	})

	return d.checkWiring(ctx, spec, contract, artifact, result)
}

// checkWiring reads every declared getter and compares it with the address
// recorded for the dependency it should point at
func (d *DeployPlan) checkWiring(
	ctx context.Context,
	spec *domain.ContractSpec,
	contract *domain.CompiledContract,
	artifact *domain.DeployedArtifact,
	result *domain.DeploymentResult,
) error {
	getters := sortedGetters(spec)
	if len(getters) == 0 {
		return nil
	}

	for _, getter := range getters {
		dep := spec.Wiring[getter]
		expected, _ := result.Address(dep)

		actual, err := d.wiring.ReadAddress(ctx, artifact.Address, contract.ABI, getter)
		if err != nil {
			return domain.WiringMismatch(spec.Name, &domain.WiringMismatchError{
				Getter:     getter,
				Dependency: dep,
				Expected:   expected,
				ReadErr:    err,
			})
		}
		if actual != expected {
			return domain.WiringMismatch(spec.Name, &domain.WiringMismatchError{
				Getter:     getter,
				Dependency: dep,
				Expected:   expected,
				Actual:     actual,
			})
		}
	}

	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageWiringChecked,
		Message:  spec.Name,
		Metadata: getters,
	})

	return nil
}

func (d *DeployPlan) confirmations() uint64 {
	if d.config == nil {
		return 0
	}
	return d.config.Confirmations
}

func (d *DeployPlan) confirmationTimeout() time.Duration {
	if d.config == nil {
		return 0
	}
	return d.config.ConfirmationTimeout
}

// resolveArgs turns spec arguments into values, substituting references with
// the addresses recorded in result. A nil result resolves every reference to
// the zero address.
func resolveArgs(spec *domain.ContractSpec, result *domain.DeploymentResult) []any {
	values := make([]any, 0, len(spec.Args))
	for _, arg := range spec.Args {
		if !arg.IsRef() {
			values = append(values, arg.Value)
			continue
		}
		var addr common.Address
		if result != nil {
			addr, _ = result.Address(arg.Ref)
		}
		values = append(values, addr)
	}
	return values
}

// verificationRequested reports whether artifacts of this run will be
// submitted to an explorer
func verificationRequested(cfg *config.RuntimeConfig) bool {
	if cfg == nil || !cfg.Verification.Enabled || !cfg.Verification.HasCredential() {
		return false
	}
	return cfg.Network != nil && !cfg.Network.Local
}

func initialVerificationStatus(cfg *config.RuntimeConfig) domain.VerificationStatus {
	if verificationRequested(cfg) {
		return domain.VerificationStatusPending
	}
	return domain.VerificationStatusSkipped
}
