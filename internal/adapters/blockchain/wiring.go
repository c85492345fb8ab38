package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// WiringReader calls zero-argument address getters on deployed contracts
type WiringReader struct {
	client *Client
}

// NewWiringReader creates a new wiring reader
func NewWiringReader(client *Client) *WiringReader {
	return &WiringReader{client: client}
}

// ReadAddress calls getter on contract at the latest block
func (r *WiringReader) ReadAddress(ctx context.Context, contract common.Address, contractABI abi.ABI, getter string) (common.Address, error) {
	backend, err := r.client.Backend(ctx)
	if err != nil {
		return common.Address{}, err
	}

	data, err := contractABI.Pack(getter)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode %s(): %w", getter, err)
	}

	out, err := backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("call to %s() failed: %w", getter, err)
	}

	values, err := contractABI.Unpack(getter, out)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode %s() result: %w", getter, err)
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("%s() returned %d values, expected 1", getter, len(values))
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s() returned %T, expected address", getter, values[0])
	}
	return addr, nil
}

var _ usecase.WiringReader = (*WiringReader)(nil)
