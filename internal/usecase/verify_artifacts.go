package usecase

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"golang.org/x/sync/errgroup"
)

// VerifyArtifacts submits deployed artifacts to the block explorer. It only
// ever changes the verification field of an artifact and never fails.
type VerifyArtifacts struct {
	config    *config.RuntimeConfig
	artifacts ArtifactRepository
	verifier  ContractVerifier
	progress  ProgressSink
}

// NewVerifyArtifacts creates a new verify artifacts use case
func NewVerifyArtifacts(
	cfg *config.RuntimeConfig,
	artifacts ArtifactRepository,
	verifier ContractVerifier,
	progress ProgressSink,
) *VerifyArtifacts {
	if progress == nil {
		progress = NopProgress{}
	}
	return &VerifyArtifacts{
		config:    cfg,
		artifacts: artifacts,
		verifier:  verifier,
		progress:  progress,
	}
}

// VerifySummary counts the verification outcome of a run
type VerifySummary struct {
	Verified int
	Failed   int
	Skipped  int
	// Attempted is the number of artifacts handed to the verifier
	Attempted int
}

// VerifyOptions contains options for verification
type VerifyOptions struct {
	Force bool // Re-verify artifacts already marked VERIFIED
}

// Run verifies every artifact in result that still needs it. Without an
// explorer credential, on a local network or with verification disabled the
// verifier is not called and pending artifacts are marked SKIPPED.
func (v *VerifyArtifacts) Run(ctx context.Context, result *domain.DeploymentResult, opts VerifyOptions) *VerifySummary {
	summary := &VerifySummary{}
	if result == nil {
		return summary
	}

	artifacts := result.Artifacts()

	if reason := v.skipReason(); reason != "" {
		for _, artifact := range artifacts {
			if artifact.Verification.Status == domain.VerificationStatusPending {
				_ = result.SetVerification(artifact.Name, domain.VerificationInfo{
					Status: domain.VerificationStatusSkipped,
					Reason: reason,
				})
			}
		}
		v.summarize(result, summary)
		return summary
	}

	var todo []*domain.DeployedArtifact
	for _, artifact := range artifacts {
		if artifact.Verification.Status == domain.VerificationStatusVerified && !opts.Force {
			continue
		}
		todo = append(todo, artifact)
	}
	summary.Attempted = len(todo)

	concurrency := v.config.Verification.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, artifact := range todo {
		g.Go(func() error {
			v.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageVerifyStarting,
				Current:  i + 1,
				Total:    len(todo),
				Message:  artifact.Name,
				Spinner:  concurrency == 1,
				Metadata: artifact,
			})

			info := v.verifyOne(ctx, artifact)
			_ = result.SetVerification(artifact.Name, info)

			v.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageVerifyCompleted,
				Current:  i + 1,
				Total:    len(todo),
				Message:  artifact.Name,
				Metadata: info,
			})
			return nil
		})
	}
	_ = g.Wait()

	v.summarize(result, summary)
	v.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageVerifyAllCompleted,
		Metadata: summary,
	})
	return summary
}

func (v *VerifyArtifacts) skipReason() string {
	switch {
	case v.config == nil || !v.config.Verification.Enabled:
		return "verification disabled"
	case v.config.Network == nil:
		return "no network configured"
	case v.config.Network.Local:
		return "local network"
	case !v.config.Verification.HasCredential():
		return "no explorer API key configured"
	default:
		return ""
	}
}

func (v *VerifyArtifacts) verifyOne(ctx context.Context, artifact *domain.DeployedArtifact) domain.VerificationInfo {
	contract, err := v.artifacts.GetContract(ctx, artifact.Contract)
	if err != nil {
		return domain.VerificationInfo{
			Status: domain.VerificationStatusFailed,
			Reason: fmt.Sprintf("artifact unavailable: %v", err),
		}
	}

	constructorArgs, err := hex.DecodeString(artifact.ConstructorArgs)
	if err != nil {
		return domain.VerificationInfo{
			Status: domain.VerificationStatusFailed,
			Reason: fmt.Sprintf("invalid recorded constructor arguments: %v", err),
		}
	}

	return v.verifier.Verify(ctx, &VerificationRequest{
		Name:            artifact.Name,
		Address:         artifact.Address,
		Contract:        contract,
		ConstructorArgs: constructorArgs,
		Network:         v.config.Network,
	})
}

func (v *VerifyArtifacts) summarize(result *domain.DeploymentResult, summary *VerifySummary) {
	counts := result.CountByStatus()
	summary.Verified = counts[domain.VerificationStatusVerified]
	summary.Failed = counts[domain.VerificationStatusFailed]
	summary.Skipped = counts[domain.VerificationStatusSkipped]
}
