package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// ReceiptWaiter polls the node until a creation transaction is buried under
// enough blocks
type ReceiptWaiter struct {
	client       *Client
	pollInterval time.Duration
	log          *slog.Logger
}

// NewReceiptWaiter creates a new receipt waiter
func NewReceiptWaiter(cfg *config.RuntimeConfig, client *Client, log *slog.Logger) *ReceiptWaiter {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &ReceiptWaiter{client: client, pollInterval: interval, log: log.With("component", "waiter")}
}

// Wait blocks until the receipt of pending has minConfirmations blocks on top
// of its inclusion block. A zero timeout waits until ctx is done.
func (w *ReceiptWaiter) Wait(ctx context.Context, pending *usecase.PendingArtifact, minConfirmations uint64, timeout time.Duration) (*usecase.Confirmation, error) {
	backend, err := w.client.Backend(ctx)
	if err != nil {
		return nil, err
	}

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		confirmation, done, err := w.poll(waitCtx, backend, pending, minConfirmations)
		if err != nil || done {
			return confirmation, err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s (tx %s) not confirmed within %s: %w",
				pending.Contract, pending.TxHash.Hex(), timeout, domain.ErrConfirmationTimeout)
		case <-ticker.C:
		}
	}
}

// poll does one receipt check. Transient RPC failures are logged and retried
// on the next tick.
func (w *ReceiptWaiter) poll(ctx context.Context, backend Backend, pending *usecase.PendingArtifact, minConfirmations uint64) (*usecase.Confirmation, bool, error) {
	receipt, err := backend.TransactionReceipt(ctx, pending.TxHash)
	if err != nil {
		if !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			w.log.Debug("receipt lookup failed", "tx", pending.TxHash.Hex(), "error", err)
		}
		return nil, false, nil
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return nil, false, fmt.Errorf("creation of %s reverted in block %d (tx %s): %w",
			pending.Contract, receipt.BlockNumber.Uint64(), pending.TxHash.Hex(), domain.ErrTransaction)
	}

	head, err := backend.BlockNumber(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Debug("block number lookup failed", "error", err)
		}
		return nil, false, nil
	}
	included := receipt.BlockNumber.Uint64()
	var depth uint64
	if head > included {
		depth = head - included
	}
	if depth < minConfirmations {
		w.log.Debug("waiting for confirmations", "contract", pending.Contract, "have", depth, "want", minConfirmations)
		return nil, false, nil
	}

	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address = pending.Address
	}
	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, false, nil
	}
	if len(code) == 0 {
		return nil, false, fmt.Errorf("creation of %s left no code at %s (tx %s): %w",
			pending.Contract, address.Hex(), pending.TxHash.Hex(), domain.ErrTransaction)
	}

	return &usecase.Confirmation{
		BlockNumber:     included,
		Confirmations:   depth,
		ContractAddress: address,
		GasUsed:         receipt.GasUsed,
	}, true, nil
}

var _ usecase.ConfirmationWaiter = (*ReceiptWaiter)(nil)
