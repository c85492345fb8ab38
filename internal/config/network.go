package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
)

// LocalChainID is the chain id used by hardhat and anvil dev nodes
const LocalChainID = 31337

// DefaultExplorerAPIURL is the Etherscan multichain API endpoint
const DefaultExplorerAPIURL = "https://api.etherscan.io/v2/api"

// builtinNetworks are available without any project configuration
var builtinNetworks = map[string]NetworkFile{
	"localhost": {RPCURL: "http://127.0.0.1:8545", ChainID: LocalChainID, Local: lo.ToPtr(true)},
	"hardhat":   {RPCURL: "http://127.0.0.1:8545", ChainID: LocalChainID, Local: lo.ToPtr(true)},
	"anvil":     {RPCURL: "http://127.0.0.1:8545", ChainID: LocalChainID, Local: lo.ToPtr(true)},
}

// ResolvedNetwork is a network plus its optional per-network run settings
type ResolvedNetwork struct {
	Network       *config.Network
	Confirmations *uint64
	Timeout       *time.Duration
}

// NetworkResolver resolves network names against built-ins and the project file
type NetworkResolver struct {
	project *ProjectFile
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(project *ProjectFile) *NetworkResolver {
	if project == nil {
		project = &ProjectFile{}
	}
	return &NetworkResolver{project: project}
}

// Names returns every known network name, sorted
func (r *NetworkResolver) Names() []string {
	names := lo.Uniq(append(lo.Keys(builtinNetworks), lo.Keys(r.project.Networks)...))
	sort.Strings(names)
	return names
}

// Resolve resolves a network name to its configuration
func (r *NetworkResolver) Resolve(networkName string) (*ResolvedNetwork, error) {
	nf, exists := r.project.Networks[networkName]
	if !exists {
		nf, exists = builtinNetworks[networkName]
	}
	if !exists {
		return nil, fmt.Errorf("network '%s' not found in %s [networks] (known: %v)", networkName, ProjectFileName, r.Names())
	}
	if nf.RPCURL == "" {
		return nil, fmt.Errorf("network '%s' has no rpc_url", networkName)
	}

	local := nf.ChainID == LocalChainID
	if nf.Local != nil {
		local = *nf.Local
	}

	network := &config.Network{
		Name:           networkName,
		ChainID:        nf.ChainID,
		RPCURL:         nf.RPCURL,
		ExplorerURL:    nf.ExplorerURL,
		ExplorerAPIURL: nf.ExplorerAPIURL,
		Local:          local,
	}
	if network.ExplorerURL == "" {
		network.ExplorerURL = explorerURL(nf.ChainID)
	}
	if network.ExplorerAPIURL == "" && !local {
		network.ExplorerAPIURL = DefaultExplorerAPIURL
	}

	resolved := &ResolvedNetwork{
		Network:       network,
		Confirmations: nf.Confirmations,
	}
	if nf.Timeout != "" {
		d, err := time.ParseDuration(nf.Timeout)
		if err != nil {
			return nil, fmt.Errorf("network '%s': invalid timeout %q: %w", networkName, nf.Timeout, err)
		}
		resolved.Timeout = &d
	}

	return resolved, nil
}

// explorerURL returns the block explorer URL for well-known chains
func explorerURL(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 17000:
		return "https://holesky.etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 137:
		return "https://polygonscan.com"
	case 8453:
		return "https://basescan.org"
	case 42161:
		return "https://arbiscan.io"
	case 43114:
		return "https://snowtrace.io"
	case 56:
		return "https://bscscan.com"
	case 2020:
		return "https://app.roninchain.com"
	case 2021:
		return "https://saigon-app.roninchain.com"
	default:
		return ""
	}
}
