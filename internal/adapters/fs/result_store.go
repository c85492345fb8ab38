package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// ResultStore keeps one JSON result file per network under the output dir
type ResultStore struct {
	outDir string
}

// NewResultStore creates a new ResultStore
func NewResultStore(cfg *config.RuntimeConfig) *ResultStore {
	return &ResultStore{outDir: cfg.OutDir}
}

// Path returns the file a result for network/chainID is stored in
func (s *ResultStore) Path(network string, chainID uint64) string {
	name := strings.ToLower(strings.ReplaceAll(network, string(filepath.Separator), "_"))
	if name == "" {
		name = "network"
	}
	return filepath.Join(s.outDir, fmt.Sprintf("%s-%d.json", name, chainID))
}

// Save writes the result, replacing any previous file for the same network
func (s *ResultStore) Save(_ context.Context, result *domain.DeploymentResult) (string, error) {
	path := s.Path(result.Network, result.ChainID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal deployment result: %w", err)
	}

	// Write through a temp file so an interrupted run never leaves a torn result
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write deployment result: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write deployment result: %w", err)
	}

	return path, nil
}

// Load reads a result previously written by Save
func (s *ResultStore) Load(_ context.Context, network string, chainID uint64) (*domain.DeploymentResult, error) {
	path := s.Path(network, chainID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no deployment result for %s (chain %d) at %s: %w", network, chainID, path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read deployment result: %w", err)
	}

	var result domain.DeploymentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse deployment result %s: %w", path, err)
	}
	return &result, nil
}

// Ensure ResultStore implements ResultStore
var _ usecase.ResultStore = (*ResultStore)(nil)
