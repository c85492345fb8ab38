package app

import (
	"github.com/trebuchet-org/deployplan/internal/adapters/blockchain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	RunDeployment    *usecase.RunDeployment
	ShowPlan         *usecase.ShowPlan
	VerifyDeployment *usecase.VerifyDeployment

	// Adapters (needed to release the RPC connection on exit)
	Chain *blockchain.Client
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	runDeployment *usecase.RunDeployment,
	showPlan *usecase.ShowPlan,
	verifyDeployment *usecase.VerifyDeployment,
	chain *blockchain.Client,
) (*App, error) {
	return &App{
		Config:           cfg,
		RunDeployment:    runDeployment,
		ShowPlan:         showPlan,
		VerifyDeployment: verifyDeployment,
		Chain:            chain,
	}, nil
}

// Close releases resources held by adapters
func (a *App) Close() {
	if a.Chain != nil {
		a.Chain.Close()
	}
}
