package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env files so ${VAR} references in the project file
// and DEPLOYPLAN_* variables resolve. Already-set variables win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadProjectFile loads and env-expands deployplan.toml.
// Returns an empty ProjectFile if the file doesn't exist.
func loadProjectFile(projectRoot string) (*ProjectFile, error) {
	pf := &ProjectFile{
		Networks: make(map[string]NetworkFile),
	}

	path := filepath.Join(projectRoot, ProjectFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return pf, nil
	}

	if _, err := toml.DecodeFile(path, pf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}
	if pf.Networks == nil {
		pf.Networks = make(map[string]NetworkFile)
	}

	pf.ArtifactsDir = os.ExpandEnv(pf.ArtifactsDir)
	pf.OutDir = os.ExpandEnv(pf.OutDir)
	for name, n := range pf.Networks {
		n.RPCURL = os.ExpandEnv(n.RPCURL)
		n.ExplorerURL = os.ExpandEnv(n.ExplorerURL)
		n.ExplorerAPIURL = os.ExpandEnv(n.ExplorerAPIURL)
		pf.Networks[name] = n
	}
	pf.Verification.APIKey = os.ExpandEnv(pf.Verification.APIKey)
	pf.Verification.APIURL = os.ExpandEnv(pf.Verification.APIURL)

	return pf, nil
}

// FindProjectRoot walks up from the current directory to the first directory
// holding a deployplan.toml, hardhat config or foundry.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	markers := []string{ProjectFileName, "hardhat.config.js", "hardhat.config.ts", "foundry.toml"}
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a contracts project (no %s, hardhat config or foundry.toml found)", ProjectFileName)
		}
		dir = parent
	}
}
