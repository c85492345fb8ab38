//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/deployplan/internal/adapters"
	"github.com/trebuchet-org/deployplan/internal/config"
	"github.com/trebuchet-org/deployplan/internal/logging"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployPlan,
		usecase.NewVerifyArtifacts,
		usecase.NewRunDeployment,
		usecase.NewShowPlan,
		usecase.NewVerifyDeployment,

		// App
		NewApp,
	)
	return nil, nil
}
