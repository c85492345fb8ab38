package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// Backend is the subset of an RPC client the adapters use. Both
// *ethclient.Client and the simulated backend client implement it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client holds the connection to the configured network, shared by the
// factory, waiter, wiring reader and signer source
type Client struct {
	network *config.Network
	log     *slog.Logger

	mu      sync.Mutex
	backend Backend
	chainID *big.Int
	closer  func()
}

// NewClient creates a client for the configured network. It connects lazily.
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	return &Client{
		network: cfg.Network,
		log:     log.With("component", "blockchain"),
	}
}

// NewClientWithBackend wraps an already connected backend
func NewClientWithBackend(backend Backend, chainID *big.Int, log *slog.Logger) *Client {
	return &Client{
		log:     log.With("component", "blockchain"),
		backend: backend,
		chainID: chainID,
	}
}

// Connect dials the RPC endpoint and checks that it serves the expected chain
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.Backend(ctx)
	return err
}

// Backend returns the connected backend, dialing on first use
func (c *Client) Backend(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	if c.network == nil {
		return nil, fmt.Errorf("no network configured")
	}

	client, err := ethclient.DialContext(ctx, c.network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	// Verify chain ID matches
	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if c.network.ChainID != 0 && networkChainID.Uint64() != c.network.ChainID {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: %s expects %d, RPC reports %d", c.network.Name, c.network.ChainID, networkChainID.Uint64())
	}

	c.log.Debug("connected", "network", c.network.Name, "chainId", networkChainID.Uint64())
	c.backend = client
	c.chainID = networkChainID
	c.closer = client.Close
	return c.backend, nil
}

// ChainID returns the chain id reported by the node, nil before Connect
func (c *Client) ChainID() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID == nil {
		return nil
	}
	return new(big.Int).Set(c.chainID)
}

// Close releases the RPC connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer != nil {
		c.closer()
		c.closer = nil
	}
	c.backend = nil
}

var _ usecase.ChainConnector = (*Client)(nil)
