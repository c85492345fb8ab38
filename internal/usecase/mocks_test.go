package usecase_test

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// MockArtifactRepository is a mock implementation of ArtifactRepository
type MockArtifactRepository struct {
	mock.Mock
}

func (m *MockArtifactRepository) GetContract(ctx context.Context, name string) (*domain.CompiledContract, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompiledContract), args.Error(1)
}

// MockArtifactFactory is a mock implementation of ArtifactFactory
type MockArtifactFactory struct {
	mock.Mock
}

func (m *MockArtifactFactory) Create(ctx context.Context, signer *domain.SignerContext, contract *domain.CompiledContract, constructorArgs []byte) (*usecase.PendingArtifact, error) {
	args := m.Called(ctx, signer, contract, constructorArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PendingArtifact), args.Error(1)
}

// MockConfirmationWaiter is a mock implementation of ConfirmationWaiter
type MockConfirmationWaiter struct {
	mock.Mock
}

func (m *MockConfirmationWaiter) Wait(ctx context.Context, pending *usecase.PendingArtifact, minConfirmations uint64, timeout time.Duration) (*usecase.Confirmation, error) {
	args := m.Called(ctx, pending, minConfirmations, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Confirmation), args.Error(1)
}

// MockWiringReader is a mock implementation of WiringReader
type MockWiringReader struct {
	mock.Mock
}

func (m *MockWiringReader) ReadAddress(ctx context.Context, contract common.Address, contractABI abi.ABI, getter string) (common.Address, error) {
	args := m.Called(ctx, contract, contractABI, getter)
	return args.Get(0).(common.Address), args.Error(1)
}

// MockContractVerifier is a mock implementation of ContractVerifier
type MockContractVerifier struct {
	mock.Mock
}

func (m *MockContractVerifier) Verify(ctx context.Context, req *usecase.VerificationRequest) domain.VerificationInfo {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.VerificationInfo)
}

// MockResultStore is a mock implementation of ResultStore
type MockResultStore struct {
	mock.Mock
}

func (m *MockResultStore) Save(ctx context.Context, result *domain.DeploymentResult) (string, error) {
	args := m.Called(ctx, result)
	return args.String(0), args.Error(1)
}

func (m *MockResultStore) Load(ctx context.Context, network string, chainID uint64) (*domain.DeploymentResult, error) {
	args := m.Called(ctx, network, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeploymentResult), args.Error(1)
}

// recordingEncoder remembers the last argument list per contract
type recordingEncoder struct {
	mu    sync.Mutex
	calls map[string][]any
	err   error
}

func newRecordingEncoder() *recordingEncoder {
	return &recordingEncoder{calls: make(map[string][]any)}
}

func (e *recordingEncoder) EncodeConstructorArgs(contract *domain.CompiledContract, args []any) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.calls[contract.Name] = args
	encoded := []byte{}
	for _, arg := range args {
		if addr, ok := arg.(common.Address); ok {
			encoded = append(encoded, common.LeftPadBytes(addr.Bytes(), 32)...)
		}
	}
	return encoded, nil
}

func (e *recordingEncoder) lastArgs(name string) []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[name]
}

type planLoaderFunc func(ctx context.Context, path string) (*domain.DeploymentPlan, error)

func (f planLoaderFunc) Load(ctx context.Context, path string) (*domain.DeploymentPlan, error) {
	return f(ctx, path)
}

type chainConnectorFunc func(ctx context.Context) error

func (f chainConnectorFunc) Connect(ctx context.Context) error {
	return f(ctx)
}

type staticSigner struct {
	signer *domain.SignerContext
}

func (s staticSigner) Signer(context.Context) (*domain.SignerContext, error) {
	return s.signer, nil
}

type answerConfirmer struct {
	answer  bool
	prompts []string
}

func (c *answerConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}

// MockProgressSink collects progress events
type MockProgressSink struct {
	mu     sync.Mutex
	events []usecase.ProgressEvent
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
}

func (m *MockProgressSink) Info(string)  {}
func (m *MockProgressSink) Error(string) {}

func (m *MockProgressSink) stages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	stages := make([]string, 0, len(m.events))
	for _, e := range m.events {
		stages = append(stages, e.Stage)
	}
	return stages
}

// Test fixtures

var (
	deployerAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	tokenAAddr   = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	tokenBAddr   = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	hubAddr      = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
)

const tokenABIJSON = `[
	{"type":"constructor","inputs":[]},
	{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

const hubABIJSON = `[
	{"type":"constructor","inputs":[{"name":"a","type":"address"},{"name":"b","type":"address"}]},
	{"type":"function","name":"tokenA","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
	{"type":"function","name":"tokenB","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
]`

func compiled(t *testing.T, name, abiJSON string) *domain.CompiledContract {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	require.NoError(t, err)
	return &domain.CompiledContract{
		Name:            name,
		SourceName:      "contracts/" + name + ".sol",
		ABI:             parsed,
		Bytecode:        []byte{0x60, 0x80, 0x60, 0x40},
		CompilerVersion: "v0.8.19+commit.7dd6d404",
	}
}

// scenarioPlan is TokenA and TokenB with no deps plus a Hub taking and
// exposing both addresses
func scenarioPlan() *domain.DeploymentPlan {
	return &domain.DeploymentPlan{
		Group: "Scenario",
		Specs: []*domain.ContractSpec{
			{Name: "TokenA"},
			{Name: "TokenB"},
			{
				Name:         "Hub",
				Args:         []domain.Arg{domain.AddressOf("TokenA"), domain.AddressOf("TokenB")},
				Dependencies: []string{"TokenA", "TokenB"},
				Wiring:       map[string]string{"tokenA": "TokenA", "tokenB": "TokenB"},
			},
		},
	}
}

func newSigner() *domain.SignerContext {
	return domain.NewSignerContext(deployerAddr, big.NewInt(31337), nil, 0)
}

func contractNamed(name string) interface{} {
	return mock.MatchedBy(func(c *domain.CompiledContract) bool { return c.Name == name })
}

func pendingNamed(name string) interface{} {
	return mock.MatchedBy(func(p *usecase.PendingArtifact) bool { return p.Name == name })
}
