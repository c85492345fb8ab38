package config

// ProjectFileName is the optional per-project configuration file
const ProjectFileName = "deployplan.toml"

// ProjectFile represents the raw deployplan.toml structure
type ProjectFile struct {
	ArtifactsDir string                 `toml:"artifacts_dir,omitempty"`
	OutDir       string                 `toml:"out_dir,omitempty"`
	Networks     map[string]NetworkFile `toml:"networks"`
	Verification VerificationFile       `toml:"verification"`
}

// NetworkFile is a [networks.<name>] section
type NetworkFile struct {
	RPCURL         string  `toml:"rpc_url"`
	ChainID        uint64  `toml:"chain_id,omitempty"`
	ExplorerURL    string  `toml:"explorer_url,omitempty"`
	ExplorerAPIURL string  `toml:"explorer_api_url,omitempty"`
	Local          *bool   `toml:"local,omitempty"`
	Confirmations  *uint64 `toml:"confirmations,omitempty"`
	Timeout        string  `toml:"timeout,omitempty"` // time.Duration syntax, "0" for unbounded
}

// VerificationFile is the [verification] section
type VerificationFile struct {
	APIKey      string `toml:"api_key,omitempty"`
	APIURL      string `toml:"api_url,omitempty"`
	Concurrency int    `toml:"concurrency,omitempty"`
	MaxAttempts uint   `toml:"max_attempts,omitempty"`
}
