package progress

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

func TestDeployProgress(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var out bytes.Buffer
	p := NewDeployProgress(&out, false)
	ctx := context.Background()

	plan := &domain.DeploymentPlan{
		Group: "PayItForward",
		Specs: []*domain.ContractSpec{{Name: "PIFRewards"}, {Name: "PayItForward"}},
	}
	hub := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StagePlanCreated, Total: 2, Metadata: plan})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageSpecStarting, Current: 1, Total: 2, Message: "PayItForward", Spinner: true})
	p.OnProgress(ctx, usecase.ProgressEvent{
		Stage:    usecase.StageTxSubmitted,
		Message:  "PayItForward",
		Metadata: &usecase.PendingArtifact{TxHash: common.HexToHash("0xabc"), Nonce: 4},
	})
	p.OnProgress(ctx, usecase.ProgressEvent{
		Stage:    usecase.StageConfirmed,
		Message:  "PayItForward",
		Metadata: &domain.DeployedArtifact{Name: "PayItForward", Address: hub, BlockNumber: 12, Confirmations: 2},
	})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageWiringChecked, Message: "PayItForward", Metadata: []string{"erc20Ron", "rewardToken"}})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageDeployCompleted, Total: 2})
	p.OnProgress(ctx, usecase.ProgressEvent{
		Stage:    usecase.StageVerifyCompleted,
		Message:  "PIFRewards",
		Metadata: domain.VerificationInfo{Status: domain.VerificationStatusVerified, URL: "https://sepolia.etherscan.io/address/0x1#code"},
	})
	p.OnProgress(ctx, usecase.ProgressEvent{
		Stage:    usecase.StageVerifyCompleted,
		Message:  "PayItForward",
		Metadata: domain.VerificationInfo{Status: domain.VerificationStatusFailed, Reason: "bytecode mismatch"},
	})
	p.OnProgress(ctx, usecase.ProgressEvent{
		Stage:    usecase.StageVerifyAllCompleted,
		Metadata: &usecase.VerifySummary{Verified: 1, Failed: 1},
	})

	got := out.String()
	assert.Contains(t, got, "Deploying 2 contracts (PayItForward)")
	assert.Contains(t, got, "order: PIFRewards → PayItForward")
	assert.Contains(t, got, "PayItForward tx 0x0000000000000000000000000000000000000000000000000000000000000abc (nonce 4)")
	assert.Contains(t, got, "✓ PayItForward deployed at 0x5FbDB2315678afecb367f032d93F642f64180aa3 (block 12, 2 confirmations)")
	assert.Contains(t, got, "wiring ok: erc20Ron, rewardToken")
	assert.Contains(t, got, "Deployed 2 contracts")
	assert.Contains(t, got, "✓ PIFRewards verified https://sepolia.etherscan.io/address/0x1#code")
	assert.Contains(t, got, "! PayItForward verification failed: bytecode mismatch")
	assert.Contains(t, got, "Verification: 1 verified, 1 failed, 0 skipped")
}

func TestDeployProgressFailure(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var out bytes.Buffer
	p := NewDeployProgress(&out, false)

	p.OnProgress(context.Background(), usecase.ProgressEvent{
		Stage:    usecase.StageSpecFailed,
		Message:  "Hub",
		Metadata: errors.New("execution reverted"),
	})
	p.Error("warning: failed to save deployment result")

	assert.Contains(t, out.String(), "✗ Hub failed: execution reverted")
	assert.Contains(t, out.String(), "warning: failed to save deployment result")
}

func TestDeployProgressQuietSummary(t *testing.T) {
	var out bytes.Buffer
	p := NewDeployProgress(&out, false)

	p.OnProgress(context.Background(), usecase.ProgressEvent{
		Stage:    usecase.StageVerifyAllCompleted,
		Metadata: &usecase.VerifySummary{},
	})
	assert.Empty(t, out.String())
}
