package blockchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// SignerSource builds the run's signer context from the configured key
type SignerSource struct {
	privateKey string
	client     *Client
}

// NewSignerSource creates a new signer source
func NewSignerSource(cfg *config.RuntimeConfig, client *Client) *SignerSource {
	return &SignerSource{privateKey: cfg.PrivateKey, client: client}
}

// Signer parses the key and reads the account's pending nonce
func (s *SignerSource) Signer(ctx context.Context) (*domain.SignerContext, error) {
	if s.privateKey == "" {
		return nil, fmt.Errorf("no private key configured (set DEPLOYPLAN_PRIVATE_KEY or PRIVATE_KEY)")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(s.privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	backend, err := s.client.Backend(ctx)
	if err != nil {
		return nil, err
	}
	chainID := s.client.ChainID()
	if chainID == nil {
		if chainID, err = backend.ChainID(ctx); err != nil {
			return nil, fmt.Errorf("failed to get chain ID: %w", err)
		}
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := backend.PendingNonceAt(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce for %s: %w", address.Hex(), err)
	}

	txSigner := types.LatestSignerForChainID(chainID)
	sign := func(tx *types.Transaction) (*types.Transaction, error) {
		return types.SignTx(tx, txSigner, key)
	}

	return domain.NewSignerContext(address, chainID, sign, nonce), nil
}

var _ usecase.SignerProvider = (*SignerSource)(nil)
