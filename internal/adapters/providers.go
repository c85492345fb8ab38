package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/deployplan/internal/adapters/abi"
	"github.com/trebuchet-org/deployplan/internal/adapters/blockchain"
	"github.com/trebuchet-org/deployplan/internal/adapters/fs"
	"github.com/trebuchet-org/deployplan/internal/adapters/interactive"
	"github.com/trebuchet-org/deployplan/internal/adapters/verification"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewArtifactRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*fs.ArtifactRepository)),

	fs.NewPlanFileLoader,
	wire.Bind(new(usecase.PlanLoader), new(*fs.PlanFileLoader)),

	fs.NewResultStore,
	wire.Bind(new(usecase.ResultStore), new(*fs.ResultStore)),
)

// ABISet provides constructor argument encoding
var ABISet = wire.NewSet(
	abi.NewArgumentEncoder,
	wire.Bind(new(usecase.ArgumentEncoder), new(*abi.ArgumentEncoder)),
)

// BlockchainSet provides the RPC-backed implementations. They share one client.
var BlockchainSet = wire.NewSet(
	blockchain.NewClient,
	wire.Bind(new(usecase.ChainConnector), new(*blockchain.Client)),

	blockchain.NewSignerSource,
	wire.Bind(new(usecase.SignerProvider), new(*blockchain.SignerSource)),

	blockchain.NewContractFactory,
	wire.Bind(new(usecase.ArtifactFactory), new(*blockchain.ContractFactory)),

	blockchain.NewReceiptWaiter,
	wire.Bind(new(usecase.ConfirmationWaiter), new(*blockchain.ReceiptWaiter)),

	blockchain.NewWiringReader,
	wire.Bind(new(usecase.WiringReader), new(*blockchain.WiringReader)),
)

// VerificationSet provides the explorer verifier
var VerificationSet = wire.NewSet(
	verification.NewEtherscanVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.EtherscanVerifier)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmer,
	wire.Bind(new(usecase.Confirmer), new(*interactive.Confirmer)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ABISet,
	BlockchainSet,
	VerificationSet,
	InteractiveSet,
)
