package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// artifactFile is the union of the Hardhat and Foundry artifact layouts
type artifactFile struct {
	ContractName string          `json:"contractName"` // hardhat
	SourceName   string          `json:"sourceName"`   // hardhat
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"` // hardhat: string, foundry: {"object": ...}
	Metadata     json.RawMessage `json:"metadata"` // foundry: object, hardhat: absent
}

type foundryMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

type hardhatDebugFile struct {
	BuildInfo string `json:"buildInfo"`
}

type buildInfoFile struct {
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// ArtifactRepository reads compiled contracts from a Hardhat artifacts/
// directory or a Foundry out/ directory
type ArtifactRepository struct {
	root string

	once     sync.Once
	index    map[string][]string // contract name -> artifact paths
	indexErr error
}

// NewArtifactRepository creates a repository over the configured artifacts
// dir, falling back to artifacts/ and then out/ under the project root
func NewArtifactRepository(cfg *config.RuntimeConfig) *ArtifactRepository {
	root := cfg.ArtifactsDir
	if root == "" {
		root = filepath.Join(cfg.ProjectRoot, "artifacts")
		if _, err := os.Stat(root); err != nil {
			root = filepath.Join(cfg.ProjectRoot, "out")
		}
	}
	return &ArtifactRepository{root: root}
}

// GetContract loads the artifact for name. name is either a bare contract
// name or "path/To.sol:Name" when the bare name is ambiguous.
func (r *ArtifactRepository) GetContract(_ context.Context, name string) (*domain.CompiledContract, error) {
	r.once.Do(r.buildIndex)
	if r.indexErr != nil {
		return nil, r.indexErr
	}

	source, contractName := "", name
	if i := strings.LastIndex(name, ":"); i >= 0 {
		source, contractName = name[:i], name[i+1:]
	}

	var matches []*domain.CompiledContract
	for _, path := range r.index[contractName] {
		contract, err := r.parse(path, contractName)
		if err != nil {
			return nil, err
		}
		if source != "" && contract.SourceName != source {
			continue
		}
		matches = append(matches, contract)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: no artifact under %s: %w", name, r.root, domain.ErrContractNotFound)
	case 1:
		return matches[0], nil
	default:
		sources := lo.Map(matches, func(c *domain.CompiledContract, _ int) string { return c.FullyQualifiedName() })
		return nil, fmt.Errorf("%s is ambiguous, use one of: %s", name, strings.Join(sources, ", "))
	}
}

// buildIndex walks the artifact tree once and maps file stems to paths
func (r *ArtifactRepository) buildIndex() {
	r.index = make(map[string][]string)
	if _, err := os.Stat(r.root); err != nil {
		r.indexErr = fmt.Errorf("artifacts directory %s not found (compile the project first)", r.root)
		return
	}

	r.indexErr = filepath.WalkDir(r.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		base := d.Name()
		if !strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".dbg.json") {
			return nil
		}
		stem := strings.TrimSuffix(base, ".json")
		// Foundry writes per-compiler-version variants as Name.0.8.19.json
		if i := strings.Index(stem, "."); i > 0 {
			stem = stem[:i]
		}
		r.index[stem] = append(r.index[stem], path)
		return nil
	})

	for name := range r.index {
		sort.Strings(r.index[name])
	}
}

func (r *ArtifactRepository) parse(path, name string) (*domain.CompiledContract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(file.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI in %s: %w", path, err)
	}

	bytecode, err := decodeBytecode(file.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	contract := &domain.CompiledContract{
		Name:       name,
		SourceName: file.SourceName,
		ABI:        parsedABI,
		Bytecode:   bytecode,
		Path:       path,
	}
	if file.ContractName != "" {
		contract.Name = file.ContractName
	}

	if len(file.Metadata) > 0 && file.Metadata[0] == '{' {
		var meta foundryMetadata
		if err := json.Unmarshal(file.Metadata, &meta); err == nil {
			contract.CompilerVersion = normalizeCompilerVersion(meta.Compiler.Version)
			for source, target := range meta.Settings.CompilationTarget {
				if target == contract.Name {
					contract.SourceName = source
				}
			}
		}
	}

	r.attachBuildInfo(path, contract)
	return contract, nil
}

// attachBuildInfo fills compiler version and standard-json input from the
// Hardhat build-info referenced by the sibling .dbg.json, when present
func (r *ArtifactRepository) attachBuildInfo(artifactPath string, contract *domain.CompiledContract) {
	dbgPath := strings.TrimSuffix(artifactPath, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return
	}
	var dbg hardhatDebugFile
	if err := json.Unmarshal(data, &dbg); err != nil || dbg.BuildInfo == "" {
		return
	}

	data, err = os.ReadFile(filepath.Join(filepath.Dir(dbgPath), dbg.BuildInfo))
	if err != nil {
		return
	}
	var info buildInfoFile
	if err := json.Unmarshal(data, &info); err != nil {
		return
	}
	if info.SolcLongVersion != "" {
		contract.CompilerVersion = normalizeCompilerVersion(info.SolcLongVersion)
	}
	if len(info.Input) > 0 {
		contract.StandardJSONInput = string(info.Input)
	}
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("unrecognised bytecode field")
		}
		hex = obj.Object
	}
	if hex == "" || hex == "0x" {
		return nil, nil
	}
	if strings.Contains(hex, "__") {
		return nil, fmt.Errorf("bytecode has unlinked library references")
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	return hexutil.Decode(hex)
}

// normalizeCompilerVersion returns the "v0.8.19+commit.7dd6d404" form explorers expect
func normalizeCompilerVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// Ensure ArtifactRepository implements ArtifactRepository
var _ usecase.ArtifactRepository = (*ArtifactRepository)(nil)
