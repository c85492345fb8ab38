package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	ArtifactsDir string // empty means auto-detect artifacts/ then out/
	OutDir       string // where deployment results are written

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Signer key material, hex encoded. Never rendered.
	PrivateKey string

	// Confirmation settings, resolved against the selected network
	Confirmations       uint64
	ConfirmationTimeout time.Duration // zero means unbounded (local networks only)
	PollInterval        time.Duration

	Verification VerificationConfig
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
	// ExplorerAPIURL is the Etherscan-compatible API endpoint
	ExplorerAPIURL string `json:"explorerApiUrl,omitempty"`
	// Local marks dev networks where block production is caller controlled
	Local bool `json:"local"`
}

// VerificationConfig configures the explorer verification step
type VerificationConfig struct {
	Enabled bool
	APIKey  string
	APIURL  string // overrides Network.ExplorerAPIURL

	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration

	// Concurrency bounds parallel verification requests; 1 is sequential
	Concurrency int
}

// HasCredential reports whether an explorer API key is configured
func (v VerificationConfig) HasCredential() bool {
	return v.APIKey != ""
}
