package blockchain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

const getterABI = `[{"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}]`

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// returnsAddress assembles creation code for a contract whose runtime answers
// every call with addr
func returnsAddress(addr common.Address) []byte {
	runtime := "7f" + hex.EncodeToString(common.LeftPadBytes(addr.Bytes(), 32)) + "60005260206000f3"
	init := "6029600c60003960296000f3"
	code, _ := hex.DecodeString(init + runtime)
	return code
}

var (
	emptyRuntime = []byte{0x00}
	reverting    = common.FromHex("0x60006000fd")
)

type chain struct {
	sim    *simulated.Backend
	client *Client
	key    *ecdsa.PrivateKey
	signer *domain.SignerContext
}

func newChain(t *testing.T) *chain {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	balance := new(big.Int).Mul(big.NewInt(1e18), big.NewInt(100))
	sim := simulated.NewBackend(types.GenesisAlloc{from: {Balance: balance}})
	t.Cleanup(func() { _ = sim.Close() })

	backend := sim.Client()
	chainID, err := backend.ChainID(context.Background())
	require.NoError(t, err)

	txSigner := types.LatestSignerForChainID(chainID)
	signer := domain.NewSignerContext(from, chainID, func(tx *types.Transaction) (*types.Transaction, error) {
		return types.SignTx(tx, txSigner, key)
	}, 0)

	return &chain{
		sim:    sim,
		client: NewClientWithBackend(backend, chainID, discard),
		key:    key,
		signer: signer,
	}
}

// mine commits blocks in the background until the test ends
func (c *chain) mine(t *testing.T) {
	t.Helper()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.sim.Commit()
			}
		}
	}()
	t.Cleanup(func() {
		close(stop)
		wg.Wait()
	})
}

func (c *chain) waiter() *ReceiptWaiter {
	return NewReceiptWaiter(&config.RuntimeConfig{PollInterval: 5 * time.Millisecond}, c.client, discard)
}

func (c *chain) create(t *testing.T, name string, code []byte) *usecase.PendingArtifact {
	t.Helper()
	factory := NewContractFactory(c.client, discard)
	pending, err := factory.Create(context.Background(), c.signer, &domain.CompiledContract{Name: name, Bytecode: code}, nil)
	require.NoError(t, err)
	return pending
}

// sendRaw broadcasts a creation with a fixed gas limit, skipping estimation
// so code that reverts still lands in a block
func (c *chain) sendRaw(t *testing.T, name string, code []byte) *usecase.PendingArtifact {
	t.Helper()
	ctx := context.Background()
	backend := c.sim.Client()
	head, err := backend.HeaderByNumber(ctx, nil)
	require.NoError(t, err)

	// The simulated miner ignores tips below 1 gwei
	tip := big.NewInt(params.GWei)
	nonce := c.signer.Nonce()
	tx, err := c.signer.Sign(types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.signer.ChainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip),
		Gas:       100_000,
		Data:      code,
	}))
	require.NoError(t, err)
	require.NoError(t, backend.SendTransaction(ctx, tx))
	c.signer.Advance()

	return &usecase.PendingArtifact{
		Contract: name,
		Address:  crypto.CreateAddress(c.signer.Address, nonce),
		TxHash:   tx.Hash(),
		Nonce:    nonce,
	}
}

func TestContractFactory(t *testing.T) {
	c := newChain(t)

	first := c.create(t, "TokenA", returnsAddress(common.Address{}))
	assert.Equal(t, uint64(0), first.Nonce)
	assert.Equal(t, crypto.CreateAddress(c.signer.Address, 0), first.Address)
	assert.Equal(t, uint64(1), c.signer.Nonce())

	args := common.LeftPadBytes([]byte{0x2a}, 32)
	factory := NewContractFactory(c.client, discard)
	second, err := factory.Create(context.Background(), c.signer, &domain.CompiledContract{Name: "TokenB", Bytecode: returnsAddress(common.Address{})}, args)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), second.Nonce)
	assert.Equal(t, crypto.CreateAddress(c.signer.Address, 1), second.Address)
	assert.Equal(t, args, second.ConstructorArgs)

	c.sim.Commit()
	tx, pending, err := c.sim.Client().TransactionByHash(context.Background(), second.TxHash)
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Nil(t, tx.To())
	assert.True(t, strings.HasSuffix(hex.EncodeToString(tx.Data()), "2a"))
}

func TestContractFactoryKeepsNonceOnRejection(t *testing.T) {
	c := newChain(t)
	// Signed for another chain, so the node refuses it
	wrongChain := types.LatestSignerForChainID(big.NewInt(1))
	misconfigured := domain.NewSignerContext(c.signer.Address, c.signer.ChainID, func(tx *types.Transaction) (*types.Transaction, error) {
		return types.SignTx(tx, wrongChain, c.key)
	}, 0)

	factory := NewContractFactory(c.client, discard)
	_, err := factory.Create(context.Background(), misconfigured, &domain.CompiledContract{Name: "Token", Bytecode: returnsAddress(common.Address{})}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit creation of Token")
	assert.Equal(t, uint64(0), misconfigured.Nonce())
}

func TestReceiptWaiter(t *testing.T) {
	t.Run("confirms immediately with zero confirmations", func(t *testing.T) {
		c := newChain(t)
		pending := c.create(t, "Token", returnsAddress(common.Address{}))
		c.sim.Commit()

		conf, err := c.waiter().Wait(context.Background(), pending, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, pending.Address, conf.ContractAddress)
		assert.Equal(t, uint64(1), conf.BlockNumber)
		assert.Equal(t, uint64(0), conf.Confirmations)
		assert.NotZero(t, conf.GasUsed)
	})

	t.Run("waits for blocks on top", func(t *testing.T) {
		c := newChain(t)
		pending := c.create(t, "Token", returnsAddress(common.Address{}))
		c.mine(t)

		conf, err := c.waiter().Wait(context.Background(), pending, 3, 10*time.Second)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, conf.Confirmations, uint64(3))
	})

	t.Run("reverted creation", func(t *testing.T) {
		c := newChain(t)
		pending := c.sendRaw(t, "Broken", reverting)
		c.sim.Commit()

		_, err := c.waiter().Wait(context.Background(), pending, 0, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransaction)
		assert.Contains(t, err.Error(), "creation of Broken reverted")
	})

	t.Run("creation without runtime code", func(t *testing.T) {
		c := newChain(t)
		pending := c.create(t, "Empty", emptyRuntime)
		c.sim.Commit()

		_, err := c.waiter().Wait(context.Background(), pending, 0, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransaction)
		assert.Contains(t, err.Error(), "left no code")
	})

	t.Run("times out when never mined", func(t *testing.T) {
		c := newChain(t)
		pending := c.create(t, "Token", returnsAddress(common.Address{}))

		_, err := c.waiter().Wait(context.Background(), pending, 0, 50*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfirmationTimeout)
	})

	t.Run("cancellation is not a timeout", func(t *testing.T) {
		c := newChain(t)
		pending := c.create(t, "Token", returnsAddress(common.Address{}))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.waiter().Wait(ctx, pending, 0, time.Minute)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, domain.ErrConfirmationTimeout)
	})
}

func TestWiringReader(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(getterABI))
	require.NoError(t, err)
	want := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	c := newChain(t)
	pending := c.create(t, "Hub", returnsAddress(want))
	c.sim.Commit()

	reader := NewWiringReader(c.client)
	got, err := reader.ReadAddress(context.Background(), pending.Address, parsed, "token")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("no code at address", func(t *testing.T) {
		_, err := reader.ReadAddress(context.Background(), common.HexToAddress("0x000000000000000000000000000000000000dEaD"), parsed, "token")
		assert.Error(t, err)
	})

	t.Run("unknown getter", func(t *testing.T) {
		_, err := reader.ReadAddress(context.Background(), pending.Address, parsed, "owner")
		assert.ErrorContains(t, err, "failed to encode owner()")
	})
}

func TestSignerSource(t *testing.T) {
	c := newChain(t)
	c.create(t, "Token", returnsAddress(common.Address{}))
	c.sim.Commit()

	keyHex := "0x" + hex.EncodeToString(crypto.FromECDSA(c.key))
	source := NewSignerSource(&config.RuntimeConfig{PrivateKey: keyHex}, c.client)

	signer, err := source.Signer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.signer.Address, signer.Address)
	assert.Equal(t, uint64(1), signer.Nonce())
	assert.Equal(t, c.signer.ChainID, signer.ChainID)

	t.Run("missing key", func(t *testing.T) {
		_, err := NewSignerSource(&config.RuntimeConfig{}, c.client).Signer(context.Background())
		assert.ErrorContains(t, err, "no private key configured")
	})

	t.Run("malformed key", func(t *testing.T) {
		_, err := NewSignerSource(&config.RuntimeConfig{PrivateKey: "0xzz"}, c.client).Signer(context.Background())
		assert.ErrorContains(t, err, "invalid private key")
	})
}

func TestClientWithoutNetwork(t *testing.T) {
	client := NewClient(&config.RuntimeConfig{}, discard)
	assert.EqualError(t, client.Connect(context.Background()), "no network configured")
	assert.Nil(t, client.ChainID())
}
