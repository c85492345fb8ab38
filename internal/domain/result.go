package domain

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// DeploymentResult collects the artifacts of one run in deployment order.
// It survives partial failures and is the only thing handed back to callers.
type DeploymentResult struct {
	Group    string
	Network  string
	ChainID  uint64
	Deployer common.Address

	mu        sync.RWMutex
	order     []string
	artifacts map[string]*DeployedArtifact
}

// NewDeploymentResult creates an empty result for a run
func NewDeploymentResult(group, network string, chainID uint64, deployer common.Address) *DeploymentResult {
	return &DeploymentResult{
		Group:     group,
		Network:   network,
		ChainID:   chainID,
		Deployer:  deployer,
		artifacts: make(map[string]*DeployedArtifact),
	}
}

// Record adds a confirmed artifact. An artifact can only be recorded once.
func (r *DeploymentResult) Record(artifact *DeployedArtifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.artifacts[artifact.Name]; exists {
		return fmt.Errorf("artifact %s: %w", artifact.Name, ErrAlreadyExists)
	}
	r.order = append(r.order, artifact.Name)
	r.artifacts[artifact.Name] = artifact
	return nil
}

// Get returns the artifact recorded under name
func (r *DeploymentResult) Get(name string) (*DeployedArtifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.artifacts[name]
	return a, ok
}

// Address returns the recorded address of name
func (r *DeploymentResult) Address(name string) (common.Address, bool) {
	a, ok := r.Get(name)
	if !ok {
		return common.Address{}, false
	}
	return a.Address, true
}

// Len returns the number of recorded artifacts
func (r *DeploymentResult) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns the recorded artifact names in deployment order
func (r *DeploymentResult) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Artifacts returns the recorded artifacts in deployment order
func (r *DeploymentResult) Artifacts() []*DeployedArtifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*DeployedArtifact, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.artifacts[name])
	}
	return out
}

// SetVerification stores the verification outcome of name
func (r *DeploymentResult) SetVerification(name string, info VerificationInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artifacts[name]
	if !ok {
		return fmt.Errorf("artifact %s: %w", name, ErrNotFound)
	}
	a.Verification = info
	return nil
}

// CountByStatus counts artifacts per verification status
func (r *DeploymentResult) CountByStatus() map[VerificationStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[VerificationStatus]int)
	for _, a := range r.artifacts {
		counts[a.Verification.Status]++
	}
	return counts
}

type deploymentResultJSON struct {
	Group     string                       `json:"group,omitempty"`
	Network   string                       `json:"network"`
	ChainID   uint64                       `json:"chainId"`
	Deployer  common.Address               `json:"deployer"`
	Order     []string                     `json:"order"`
	Contracts map[string]*DeployedArtifact `json:"contracts"`
}

// MarshalJSON serializes the result as a mapping of contract name to artifact
func (r *DeploymentResult) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return json.Marshal(deploymentResultJSON{
		Group:     r.Group,
		Network:   r.Network,
		ChainID:   r.ChainID,
		Deployer:  r.Deployer,
		Order:     r.order,
		Contracts: r.artifacts,
	})
}

// UnmarshalJSON restores a result written by MarshalJSON
func (r *DeploymentResult) UnmarshalJSON(data []byte) error {
	var raw deploymentResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Group = raw.Group
	r.Network = raw.Network
	r.ChainID = raw.ChainID
	r.Deployer = raw.Deployer
	r.artifacts = make(map[string]*DeployedArtifact, len(raw.Contracts))
	r.order = nil

	for _, name := range raw.Order {
		a, ok := raw.Contracts[name]
		if !ok {
			return fmt.Errorf("result order references unknown contract %s", name)
		}
		a.Name = name
		r.order = append(r.order, name)
		r.artifacts[name] = a
	}
	if len(r.order) != len(raw.Contracts) {
		return fmt.Errorf("result lists %d contracts but orders %d", len(raw.Contracts), len(r.order))
	}
	return nil
}
