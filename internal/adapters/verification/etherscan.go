package verification

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// DefaultAPIURL is the Etherscan multichain endpoint; the chain is selected
// with the chainid parameter
const DefaultAPIURL = "https://api.etherscan.io/v2/api"

var errAlreadyVerified = errors.New("already verified")

type etherscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// EtherscanVerifier submits source verification to an Etherscan-compatible
// explorer API and polls until the explorer settles
type EtherscanVerifier struct {
	client *http.Client
	apiKey string
	apiURL string // overrides the network's explorer API

	maxAttempts     uint
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsed      time.Duration

	log *slog.Logger
}

// NewEtherscanVerifier creates a verifier with the configured retry budget
func NewEtherscanVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *EtherscanVerifier {
	return NewEtherscanVerifierWithClient(cfg, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewEtherscanVerifierWithClient is NewEtherscanVerifier with a caller supplied HTTP client
func NewEtherscanVerifierWithClient(cfg *config.RuntimeConfig, client *http.Client, log *slog.Logger) *EtherscanVerifier {
	vc := cfg.Verification
	v := &EtherscanVerifier{
		client:          client,
		apiKey:          vc.APIKey,
		apiURL:          vc.APIURL,
		maxAttempts:     vc.MaxAttempts,
		initialInterval: vc.InitialInterval,
		maxInterval:     vc.MaxInterval,
		maxElapsed:      vc.MaxElapsed,
		log:             log.With("component", "etherscan"),
	}
	if v.maxAttempts == 0 {
		v.maxAttempts = 8
	}
	if v.initialInterval <= 0 {
		v.initialInterval = 2 * time.Second
	}
	if v.maxInterval <= 0 {
		v.maxInterval = 30 * time.Second
	}
	return v
}

// Verify submits the contract and waits for a verdict. Problems never
// escape as errors; they are reported as a FAILED status with a reason.
func (v *EtherscanVerifier) Verify(ctx context.Context, req *usecase.VerificationRequest) domain.VerificationInfo {
	info := domain.VerificationInfo{Status: domain.VerificationStatusFailed}
	if req.Network != nil {
		info.URL = explorerURL(req.Network, req.Address.Hex())
	}

	if v.apiKey == "" {
		info.Status = domain.VerificationStatusSkipped
		info.Reason = "no explorer API key configured"
		return info
	}
	if req.Contract == nil || req.Contract.StandardJSONInput == "" {
		info.Reason = "no standard-json compiler input available for " + req.Name
		return info
	}
	if req.Contract.CompilerVersion == "" {
		info.Reason = "compiler version unknown for " + req.Name
		return info
	}

	log := v.log.With("contract", req.Name, "address", req.Address.Hex())

	guid, err := retry(ctx, v, &info, func() (string, error) {
		return v.submit(ctx, req)
	})
	if errors.Is(err, errAlreadyVerified) {
		return verified(info)
	}
	if err != nil {
		info.Reason = fmt.Sprintf("submission failed: %v", err)
		log.Debug("verification submission failed", "error", err, "attempts", info.Attempts)
		return info
	}
	log.Debug("verification submitted", "guid", guid)

	_, err = retry(ctx, v, &info, func() (struct{}, error) {
		return struct{}{}, v.checkStatus(ctx, req, guid)
	})
	if err != nil && !errors.Is(err, errAlreadyVerified) {
		info.Reason = err.Error()
		log.Debug("verification failed", "error", err, "attempts", info.Attempts)
		return info
	}
	return verified(info)
}

func verified(info domain.VerificationInfo) domain.VerificationInfo {
	now := time.Now().UTC()
	info.Status = domain.VerificationStatusVerified
	info.Reason = ""
	info.VerifiedAt = &now
	return info
}

// retry runs op under the verifier's bounded exponential backoff, counting
// every attempt into info
func retry[T any](ctx context.Context, v *EtherscanVerifier, info *domain.VerificationInfo, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = v.initialInterval
	b.MaxInterval = v.maxInterval

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(v.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			v.log.Debug("explorer not ready, retrying", "error", err, "in", next)
		}),
	}
	if v.maxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(v.maxElapsed))
	}

	return backoff.Retry(ctx, func() (T, error) {
		info.Attempts++
		return op()
	}, opts...)
}

// submit posts verifysourcecode and returns the explorer's GUID
func (v *EtherscanVerifier) submit(ctx context.Context, req *usecase.VerificationRequest) (string, error) {
	data := url.Values{}
	data.Set("apikey", v.apiKey)
	data.Set("module", "contract")
	data.Set("action", "verifysourcecode")
	data.Set("contractaddress", req.Address.Hex())
	data.Set("sourceCode", req.Contract.StandardJSONInput)
	data.Set("codeformat", "solidity-standard-json-input")
	data.Set("contractname", req.Contract.FullyQualifiedName())
	data.Set("compilerversion", req.Contract.CompilerVersion)
	if len(req.ConstructorArgs) > 0 {
		data.Set("constructorArguements", hex.EncodeToString(req.ConstructorArgs)) // Note: Etherscan typo
	}

	endpoint, err := v.endpoint(req.Network, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result, err := v.do(httpReq)
	if err != nil {
		return "", err
	}

	if result.Status == "1" {
		return result.Result, nil
	}
	switch {
	case isAlreadyVerified(result.Result):
		return "", backoff.Permanent(errAlreadyVerified)
	case isTransient(result.Result):
		return "", errors.New(result.Result)
	default:
		return "", backoff.Permanent(errors.New(result.Result))
	}
}

// checkStatus returns nil once the explorer reports the source verified
func (v *EtherscanVerifier) checkStatus(ctx context.Context, req *usecase.VerificationRequest, guid string) error {
	params := url.Values{}
	params.Set("apikey", v.apiKey)
	params.Set("module", "contract")
	params.Set("action", "checkverifystatus")
	params.Set("guid", guid)

	endpoint, err := v.endpoint(req.Network, params)
	if err != nil {
		return backoff.Permanent(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return backoff.Permanent(err)
	}

	result, err := v.do(httpReq)
	if err != nil {
		return err
	}

	lower := strings.ToLower(result.Result)
	switch {
	case strings.Contains(lower, "pass - verified"):
		return nil
	case isAlreadyVerified(result.Result):
		return backoff.Permanent(errAlreadyVerified)
	case strings.Contains(lower, "pending"), isTransient(result.Result):
		return errors.New(result.Result)
	case result.Status == "1":
		return nil
	default:
		return backoff.Permanent(errors.New(result.Result))
	}
}

// do sends the request. Transport failures, throttling and server errors
// stay retryable.
func (v *EtherscanVerifier) do(req *http.Request) (*etherscanResponse, error) {
	resp, err := v.client.Do(req) //nolint:gosec // URL is constructed from configured explorer endpoint
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("explorer returned HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("explorer returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var result etherscanResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}
	return &result, nil
}

// endpoint builds the API URL for network, adding chainid and params
func (v *EtherscanVerifier) endpoint(network *config.Network, params url.Values) (string, error) {
	base := v.apiURL
	if base == "" && network != nil {
		base = network.ExplorerAPIURL
	}
	if base == "" {
		base = DefaultAPIURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid explorer API URL %q: %w", base, err)
	}
	query := u.Query()
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	if network != nil && network.ChainID != 0 {
		query.Set("chainid", strconv.FormatUint(network.ChainID, 10))
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}

// isTransient matches explorer answers that go away on their own: the
// explorer has not indexed the new contract yet, or throttling
func isTransient(result string) bool {
	lower := strings.ToLower(result)
	return strings.Contains(lower, "unable to locate contractcode") ||
		strings.Contains(lower, "unable to locate contract code") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "pending in queue")
}

// explorerURL builds the explorer page for a contract
func explorerURL(network *config.Network, address string) string {
	if network.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s#code", strings.TrimSuffix(network.ExplorerURL, "/"), address)
}

// Ensure EtherscanVerifier implements ContractVerifier
var _ usecase.ContractVerifier = (*EtherscanVerifier)(nil)
