package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
)

// ArtifactRepository provides access to compiled contracts
type ArtifactRepository interface {
	GetContract(ctx context.Context, name string) (*domain.CompiledContract, error)
}

// ArgumentEncoder converts plan argument values to the constructor's ABI
// types and packs them
type ArgumentEncoder interface {
	EncodeConstructorArgs(contract *domain.CompiledContract, args []any) ([]byte, error)
}

// PendingArtifact is a creation transaction accepted by the network but not
// yet confirmed
type PendingArtifact struct {
	Name            string
	Contract        string
	Address         common.Address // derived from sender and nonce
	TxHash          common.Hash
	Nonce           uint64
	ConstructorArgs []byte
	SubmittedAt     time.Time
}

// ArtifactFactory builds, signs and broadcasts contract creation transactions
type ArtifactFactory interface {
	Create(ctx context.Context, signer *domain.SignerContext, contract *domain.CompiledContract, constructorArgs []byte) (*PendingArtifact, error)
}

// Confirmation describes a creation transaction that reached the requested depth
type Confirmation struct {
	BlockNumber     uint64
	Confirmations   uint64
	ContractAddress common.Address
	GasUsed         uint64
}

// ConfirmationWaiter blocks until a pending artifact is confirmed.
// A timeout of zero waits until ctx is done. Errors wrap
// domain.ErrConfirmationTimeout on expiry and domain.ErrTransaction when
// the transaction reverted.
type ConfirmationWaiter interface {
	Wait(ctx context.Context, pending *PendingArtifact, minConfirmations uint64, timeout time.Duration) (*Confirmation, error)
}

// WiringReader reads an address returned by a zero-argument getter
type WiringReader interface {
	ReadAddress(ctx context.Context, contract common.Address, contractABI abi.ABI, getter string) (common.Address, error)
}

// VerificationRequest is everything an explorer needs to verify one artifact
type VerificationRequest struct {
	Name            string
	Address         common.Address
	Contract        *domain.CompiledContract
	ConstructorArgs []byte
	Network         *config.Network
}

// ContractVerifier registers deployed source with a block explorer. It never
// fails: every problem ends up in the returned status and reason.
type ContractVerifier interface {
	Verify(ctx context.Context, req *VerificationRequest) domain.VerificationInfo
}

// PlanLoader reads a deployment plan definition. The returned plan is not
// necessarily in dependency order.
type PlanLoader interface {
	Load(ctx context.Context, path string) (*domain.DeploymentPlan, error)
}

// ResultStore persists deployment results
type ResultStore interface {
	Save(ctx context.Context, result *domain.DeploymentResult) (string, error)
	Load(ctx context.Context, network string, chainID uint64) (*domain.DeploymentResult, error)
}

// SignerProvider builds the signer context for the configured account
type SignerProvider interface {
	Signer(ctx context.Context) (*domain.SignerContext, error)
}

// ChainConnector connects to the configured network and checks its chain id
type ChainConnector interface {
	Connect(ctx context.Context) error
}

// Confirmer asks the user to approve an action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// Deployment progress stages
const (
	StagePlanCreated        = "plan_created"
	StageSpecStarting       = "spec_starting"
	StageTxSubmitted        = "tx_submitted"
	StageConfirmed          = "confirmed"
	StageWiringChecked      = "wiring_checked"
	StageSpecFailed         = "spec_failed"
	StageDeployCompleted    = "deploy_completed"
	StageVerifyStarting     = "verify_starting"
	StageVerifyCompleted    = "verify_completed"
	StageVerifyAllCompleted = "verify_all_completed"
)

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
