package domain

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrSignerInUse is returned when a signer context is claimed by two runs
var ErrSignerInUse = errors.New("signer is already owned by another run")

// SignFunc signs a transaction for the signer's account
type SignFunc func(tx *types.Transaction) (*types.Transaction, error)

// SignerContext owns one account's transaction sequence for the duration of
// a run. Only the holder of the claim may read or advance the nonce.
type SignerContext struct {
	Address common.Address
	ChainID *big.Int
	Sign    SignFunc

	mu      sync.Mutex
	nonce   uint64
	claimed bool
}

// NewSignerContext creates a signer context starting at nonce
func NewSignerContext(address common.Address, chainID *big.Int, sign SignFunc, nonce uint64) *SignerContext {
	return &SignerContext{
		Address: address,
		ChainID: chainID,
		Sign:    sign,
		nonce:   nonce,
	}
}

// Acquire claims the signer for a run
func (s *SignerContext) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		return ErrSignerInUse
	}
	s.claimed = true
	return nil
}

// Release gives up the claim taken by Acquire
func (s *SignerContext) Release() {
	s.mu.Lock()
	s.claimed = false
	s.mu.Unlock()
}

// Nonce returns the sequence number the next transaction must use
func (s *SignerContext) Nonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce
}

// Advance moves past a nonce that has been accepted by the network
func (s *SignerContext) Advance() {
	s.mu.Lock()
	s.nonce++
	s.mu.Unlock()
}
