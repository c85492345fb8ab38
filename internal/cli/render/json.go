package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

type jsonError struct {
	Kind    string `json:"kind,omitempty"`
	Spec    string `json:"spec,omitempty"`
	Message string `json:"message"`
}

type jsonSummary struct {
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

type jsonRun struct {
	Result       *domain.DeploymentResult `json:"result"`
	ResultPath   string                   `json:"resultPath,omitempty"`
	Verification *jsonSummary             `json:"verification,omitempty"`
	Error        *jsonError               `json:"error,omitempty"`
}

type jsonSpec struct {
	Name     string            `json:"name"`
	Contract string            `json:"contract"`
	Deps     []string          `json:"deps,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Wiring   map[string]string `json:"wiring,omitempty"`
}

type jsonPlan struct {
	Group     string            `json:"group,omitempty"`
	Order     []string          `json:"order"`
	Contracts []jsonSpec        `json:"contracts"`
	Missing   map[string]string `json:"missing,omitempty"`
}

// RenderRunJSON writes a deploy run as a single JSON document
func RenderRunJSON(out io.Writer, run *usecase.RunDeploymentResult, err error) error {
	doc := jsonRun{}
	if run != nil {
		doc.Result = run.Result
		doc.ResultPath = run.ResultPath
		doc.Verification = summary(run.Verify)
	}
	if err != nil {
		doc.Error = errorDoc(err)
	}
	return writeJSON(out, doc)
}

// RenderPlanJSON writes an ordered plan as JSON
func RenderPlanJSON(out io.Writer, view *usecase.PlanView) error {
	doc := jsonPlan{
		Group:   view.Plan.Group,
		Order:   view.Plan.Names(),
		Missing: view.Missing,
		Contracts: lo.Map(view.Plan.Specs, func(spec *domain.ContractSpec, _ int) jsonSpec {
			return jsonSpec{
				Name:     spec.Name,
				Contract: spec.ContractName(),
				Deps:     spec.Dependencies,
				Args:     lo.Map(spec.Args, func(a domain.Arg, _ int) string { return a.String() }),
				Wiring:   spec.Wiring,
			}
		}),
	}
	if len(doc.Missing) == 0 {
		doc.Missing = nil
	}
	return writeJSON(out, doc)
}

// RenderVerifyJSON writes a verification run as JSON
func RenderVerifyJSON(out io.Writer, result *usecase.VerifyResult) error {
	return writeJSON(out, jsonRun{
		Result:       result.Result,
		ResultPath:   result.ResultPath,
		Verification: summary(result.Summary),
	})
}

func summary(s *usecase.VerifySummary) *jsonSummary {
	if s == nil {
		return nil
	}
	return &jsonSummary{Verified: s.Verified, Failed: s.Failed, Skipped: s.Skipped}
}

func errorDoc(err error) *jsonError {
	doc := &jsonError{Message: err.Error()}
	var de *domain.DeploymentError
	if errors.As(err, &de) {
		doc.Kind = kindName(de.Kind)
		doc.Spec = de.Spec
	}
	return doc
}

// kindName maps a fatal error kind to a stable identifier
func kindName(kind error) string {
	switch {
	case errors.Is(kind, domain.ErrInvalidPlan):
		return "InvalidPlan"
	case errors.Is(kind, domain.ErrTransaction):
		return "TransactionError"
	case errors.Is(kind, domain.ErrConfirmationTimeout):
		return "ConfirmationTimeout"
	case errors.Is(kind, domain.ErrWiringMismatch):
		return "WiringMismatch"
	default:
		return fmt.Sprint(kind)
	}
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
