package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/deployplan/internal/cli/render"
)

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <plan.yaml>",
		Short: "Show the deployment order of a plan file without deploying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			view, err := app.ShowPlan.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.RenderPlanJSON(cmd.OutOrStdout(), view)
			}
			return render.NewPlanRenderer(cmd.OutOrStdout()).Render(view)
		},
	}

	cmd.Flags().String("artifacts-dir", "", "Compiled artifacts directory (default artifacts/ or out/)")

	return cmd
}
