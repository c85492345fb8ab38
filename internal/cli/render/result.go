package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// ResultRenderer renders the outcome of a deploy run
type ResultRenderer struct {
	out io.Writer
}

// NewResultRenderer creates a new result renderer
func NewResultRenderer(out io.Writer) *ResultRenderer {
	return &ResultRenderer{out: out}
}

// Render prints the recorded artifacts followed by the run's fatal error, if
// any. A partially completed run still lists what was deployed.
func (r *ResultRenderer) Render(run *usecase.RunDeploymentResult) error {
	if run == nil {
		return nil
	}

	if run.Result != nil && run.Result.Len() > 0 {
		fmt.Fprintln(r.out)
		header := fmt.Sprintf("Deployed %d contracts", run.Result.Len())
		if run.Plan != nil {
			header = fmt.Sprintf("Deployed %d of %d contracts", run.Result.Len(), len(run.Plan.Specs))
		}
		color.New(color.FgCyan, color.Bold).Fprintf(r.out, "%s on %s (chain %d)\n", header, run.Result.Network, run.Result.ChainID)
		fmt.Fprintln(r.out, artifactTable(run.Result.Artifacts()))
		if run.ResultPath != "" {
			fmt.Fprintf(r.out, "\nResult written to %s\n", run.ResultPath)
		}
	}

	if run.Err != nil {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatError(describeError(run.Err)))
		if run.Plan != nil && run.Result != nil {
			if pending := notDeployed(run.Plan, run.Result); len(pending) > 0 {
				fmt.Fprintf(r.out, "   not deployed: %s\n", joinNames(pending))
			}
		}
		return nil
	}

	if run.Result != nil {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Deployment of %d contracts complete", run.Result.Len())))
	}
	return nil
}

// artifactTable lists artifacts in deployment order
func artifactTable(artifacts []*domain.DeployedArtifact) string {
	rows := make([]table.Row, 0, len(artifacts))
	for _, a := range artifacts {
		name := color.New(color.Bold).Sprint(a.Name)
		if a.Contract != "" && a.Contract != a.Name {
			name += color.New(color.Faint).Sprintf(" (%s)", a.Contract)
		}
		rows = append(rows, table.Row{
			name,
			a.Address.Hex(),
			a.BlockNumber,
			a.Confirmations,
			statusLabel(a.Verification.Status),
		})
	}
	return renderTable(table.Row{"Contract", "Address", "Block", "Confirmations", "Verification"}, rows)
}

// describeError prefixes fatal errors with their kind
func describeError(err error) string {
	var de *domain.DeploymentError
	if errors.As(err, &de) {
		return fmt.Sprintf("deployment stopped (%s): %s", de.Kind, err)
	}
	return err.Error()
}

// notDeployed lists plan specs missing from result, in plan order
func notDeployed(plan *domain.DeploymentPlan, result *domain.DeploymentResult) []string {
	var names []string
	for _, spec := range plan.Specs {
		if _, ok := result.Get(spec.Name); !ok {
			names = append(names, spec.Name)
		}
	}
	return names
}
