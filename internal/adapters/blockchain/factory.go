package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

var errWrongSigner = errors.New("transaction sender does not match the signer context")

// ContractFactory submits contract creation transactions
type ContractFactory struct {
	client *Client
	log    *slog.Logger
}

// NewContractFactory creates a new contract factory
func NewContractFactory(client *Client, log *slog.Logger) *ContractFactory {
	return &ContractFactory{client: client, log: log.With("component", "factory")}
}

// Create signs and broadcasts the creation of contract with the signer's
// current nonce. The nonce only advances once the node accepted the
// transaction.
func (f *ContractFactory) Create(ctx context.Context, signer *domain.SignerContext, contract *domain.CompiledContract, constructorArgs []byte) (*usecase.PendingArtifact, error) {
	backend, err := f.client.Backend(ctx)
	if err != nil {
		return nil, err
	}
	if signer.Sign == nil {
		return nil, fmt.Errorf("signer %s cannot sign", signer.Address.Hex())
	}

	nonce := signer.Nonce()
	opts := &bind.TransactOpts{
		From:    signer.Address,
		Nonce:   new(big.Int).SetUint64(nonce),
		Context: ctx,
		Signer: func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if from != signer.Address {
				return nil, errWrongSigner
			}
			return signer.Sign(tx)
		},
	}

	// Arguments are already packed, so the creation code is sent as is
	code := make([]byte, 0, len(contract.Bytecode)+len(constructorArgs))
	code = append(code, contract.Bytecode...)
	code = append(code, constructorArgs...)

	address, tx, _, err := bind.DeployContract(opts, abi.ABI{}, code, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to submit creation of %s: %w", contract.Name, err)
	}
	signer.Advance()

	f.log.Debug("creation submitted",
		"contract", contract.Name,
		"address", address.Hex(),
		"tx", tx.Hash().Hex(),
		"nonce", nonce,
		"gas", tx.Gas(),
	)

	return &usecase.PendingArtifact{
		Contract:        contract.Name,
		Address:         address,
		TxHash:          tx.Hash(),
		Nonce:           nonce,
		ConstructorArgs: constructorArgs,
		SubmittedAt:     time.Now(),
	}, nil
}

var _ usecase.ArtifactFactory = (*ContractFactory)(nil)
