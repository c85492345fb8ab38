package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// PlanRenderer renders an ordered plan without deploying it
type PlanRenderer struct {
	out io.Writer
}

// NewPlanRenderer creates a new plan renderer
func NewPlanRenderer(out io.Writer) *PlanRenderer {
	return &PlanRenderer{out: out}
}

// Render prints the specs in deployment order
func (r *PlanRenderer) Render(view *usecase.PlanView) error {
	if view == nil || view.Plan == nil {
		return nil
	}

	title := fmt.Sprintf("Plan with %d contracts", len(view.Plan.Specs))
	if view.Plan.Group != "" {
		title = fmt.Sprintf("Plan %s with %d contracts", view.Plan.Group, len(view.Plan.Specs))
	}
	color.New(color.FgCyan, color.Bold).Fprintln(r.out, title)

	rows := make([]table.Row, 0, len(view.Plan.Specs))
	for i, spec := range view.Plan.Specs {
		contract := spec.ContractName()
		if _, missing := view.Missing[spec.Name]; missing {
			contract = color.New(color.FgRed).Sprint(contract)
		}
		rows = append(rows, table.Row{
			i + 1,
			color.New(color.Bold).Sprint(spec.Name),
			contract,
			dashIfEmpty(joinNames(spec.Dependencies)),
			dashIfEmpty(formatArgs(spec.Args)),
			dashIfEmpty(formatWiring(spec.Wiring)),
		})
	}
	fmt.Fprintln(r.out, renderTable(table.Row{"#", "Name", "Contract", "Depends on", "Args", "Wiring"}, rows))

	if len(view.Missing) > 0 {
		fmt.Fprintln(r.out)
		names := lo.Keys(view.Missing)
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%s: %s", name, view.Missing[name])))
		}
	}
	return nil
}

func formatArgs(args []domain.Arg) string {
	return strings.Join(lo.Map(args, func(a domain.Arg, _ int) string {
		return a.String()
	}), ", ")
}

func formatWiring(wiring map[string]string) string {
	getters := lo.Keys(wiring)
	sort.Strings(getters)
	return strings.Join(lo.Map(getters, func(getter string, _ int) string {
		return fmt.Sprintf("%s()→%s", getter, wiring[getter])
	}), ", ")
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
