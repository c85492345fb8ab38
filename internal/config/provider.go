package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
)

// Defaults applied when neither flags, env nor the project file say otherwise
const (
	DefaultPublicConfirmations = 2
	DefaultPublicTimeout       = 10 * time.Minute
	DefaultPollInterval        = time.Second
	DefaultLocalPollInterval   = 100 * time.Millisecond
	DefaultVerifyAttempts      = 8
)

// localDevKey is account #0 of the hardhat and anvil dev mnemonics. It is
// only used on local networks when no key is configured.
const localDevKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			if projectRoot, err = os.Getwd(); err != nil {
				return nil, err
			}
		}
	}

	loadEnvFiles(projectRoot)

	project, err := loadProjectFile(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		ArtifactsDir:   firstNonEmpty(v.GetString("artifacts_dir"), project.ArtifactsDir),
		OutDir:         firstNonEmpty(v.GetString("out_dir"), project.OutDir, "deployments"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		PrivateKey:     strings.TrimPrefix(firstNonEmpty(v.GetString("private_key"), os.Getenv("PRIVATE_KEY")), "0x"),
		PollInterval:   v.GetDuration("poll_interval"),
	}
	if cfg.ArtifactsDir != "" && !filepath.IsAbs(cfg.ArtifactsDir) {
		cfg.ArtifactsDir = filepath.Join(projectRoot, cfg.ArtifactsDir)
	}
	if !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(projectRoot, cfg.OutDir)
	}

	// Resolve network if specified
	if networkName := v.GetString("network"); networkName != "" {
		resolved, err := NewNetworkResolver(project).Resolve(networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = resolved.Network
		if err := applyConfirmationSettings(v, cfg, resolved); err != nil {
			return nil, err
		}
	}

	cfg.Verification = config.VerificationConfig{
		Enabled:         !v.GetBool("no_verify"),
		APIKey:          firstNonEmpty(v.GetString("verification.api_key"), project.Verification.APIKey, os.Getenv("ETHERSCAN_API_KEY")),
		APIURL:          firstNonEmpty(v.GetString("verification.api_url"), project.Verification.APIURL),
		MaxAttempts:     firstNonZero(v.GetUint("verification.max_attempts"), project.Verification.MaxAttempts, DefaultVerifyAttempts),
		InitialInterval: v.GetDuration("verification.initial_interval"),
		MaxInterval:     v.GetDuration("verification.max_interval"),
		MaxElapsed:      v.GetDuration("verification.max_elapsed"),
		Concurrency:     firstNonZero(v.GetInt("verification.concurrency"), project.Verification.Concurrency, 1),
	}

	return cfg, nil
}

// applyConfirmationSettings picks confirmation depth, timeout and poll
// interval for the selected network. Precedence: flag/env, project file,
// network-kind default.
func applyConfirmationSettings(v *viper.Viper, cfg *config.RuntimeConfig, resolved *ResolvedNetwork) error {
	network := resolved.Network

	switch {
	case v.IsSet("confirmations"):
		cfg.Confirmations = v.GetUint64("confirmations")
	case resolved.Confirmations != nil:
		cfg.Confirmations = *resolved.Confirmations
	case network.Local:
		cfg.Confirmations = 0
	default:
		cfg.Confirmations = DefaultPublicConfirmations
	}

	switch {
	case v.IsSet("confirmation_timeout"):
		cfg.ConfirmationTimeout = v.GetDuration("confirmation_timeout")
	case resolved.Timeout != nil:
		cfg.ConfirmationTimeout = *resolved.Timeout
	case network.Local:
		cfg.ConfirmationTimeout = 0
	default:
		cfg.ConfirmationTimeout = DefaultPublicTimeout
	}

	if !network.Local && cfg.ConfirmationTimeout <= 0 {
		return fmt.Errorf("network %s: a finite confirmation timeout is required on non-local networks", network.Name)
	}
	if !network.Local && cfg.Confirmations == 0 {
		return fmt.Errorf("network %s: at least 1 confirmation is required on non-local networks", network.Name)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
		if network.Local {
			cfg.PollInterval = DefaultLocalPollInterval
		}
	}

	if cfg.PrivateKey == "" && network.Local {
		cfg.PrivateKey = localDevKey
	}

	return nil
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("DEPLOYPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("network", "localhost")
	v.SetDefault("timeout", "0")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	if flags != nil {
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
