package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// VerificationStatus represents the explorer verification state of an artifact
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusVerified VerificationStatus = "VERIFIED"
	VerificationStatusFailed   VerificationStatus = "FAILED"
	VerificationStatusSkipped  VerificationStatus = "SKIPPED"
)

// VerificationInfo contains verification details for one artifact
type VerificationInfo struct {
	Status     VerificationStatus `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	URL        string             `json:"url,omitempty"`
	Attempts   int                `json:"attempts,omitempty"`
	VerifiedAt *time.Time         `json:"verifiedAt,omitempty"`
}

// Settled reports whether verification already reached a final state
func (v VerificationInfo) Settled() bool {
	return v.Status == VerificationStatusVerified || v.Status == VerificationStatusFailed
}

// DeployedArtifact is a confirmed contract instance at a ledger address
type DeployedArtifact struct {
	Name            string           `json:"-"`
	Contract        string           `json:"contract"`
	Address         common.Address   `json:"address"`
	TxHash          common.Hash      `json:"transactionHash"`
	BlockNumber     uint64           `json:"blockNumber"`
	Confirmations   uint64           `json:"confirmations"`
	ConstructorArgs string           `json:"constructorArgs,omitempty"` // hex encoded
	DeployedAt      time.Time        `json:"deployedAt"`
	Verification    VerificationInfo `json:"verification"`
}

// CompiledContract is a build artifact produced by the project's compiler
type CompiledContract struct {
	Name            string
	SourceName      string // e.g. "contracts/PayItForward.sol"
	ABI             abi.ABI
	Bytecode        []byte
	CompilerVersion string // e.g. "v0.8.19+commit.7dd6d404"
	// StandardJSONInput is the solc standard-json input from the build info,
	// empty when the build output does not keep it
	StandardJSONInput string
	Path              string
}

// FullyQualifiedName returns "source:Name" as expected by explorers
func (c *CompiledContract) FullyQualifiedName() string {
	if c.SourceName == "" {
		return c.Name
	}
	return c.SourceName + ":" + c.Name
}
