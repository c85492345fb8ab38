package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/deployplan/internal/cli/render"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "deploy <plan.yaml>",
		Short: "Deploy the contracts of a plan file",
		Long: `Deploy every contract of a plan file in dependency order. Each creation
is confirmed and its wiring checked before the next one is submitted, then
the deployed contracts are verified on the block explorer.

Examples:
  deployplan deploy plans/pay-it-forward.yaml
  deployplan deploy plans/pay-it-forward.yaml --network sepolia --yes
  deployplan deploy plans/pay-it-forward.yaml --network sepolia --no-verify --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			run, err := app.RunDeployment.Execute(cmd.Context(), usecase.RunDeploymentParams{
				PlanPath: args[0],
				Yes:      yes,
			})

			if app.Config.JSON {
				if renderErr := render.RenderRunJSON(cmd.OutOrStdout(), run, err); renderErr != nil {
					return renderErr
				}
				return reported(err)
			}

			// Without a result nothing was broadcast; the error alone says it all
			if run == nil || run.Result == nil {
				return err
			}
			if renderErr := render.NewResultRenderer(cmd.OutOrStdout()).Render(run); renderErr != nil {
				return renderErr
			}
			return reported(err)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt on non-local networks")
	cmd.Flags().Bool("no-verify", false, "Skip block explorer verification")
	cmd.Flags().Uint64("confirmations", 0, "Blocks required on top of each creation (default depends on the network)")
	cmd.Flags().Duration("confirmation-timeout", 0, "How long to wait for each confirmation (default depends on the network)")
	cmd.Flags().String("private-key", "", "Deployer private key (prefer DEPLOYPLAN_PRIVATE_KEY)")
	cmd.Flags().String("artifacts-dir", "", "Compiled artifacts directory (default artifacts/ or out/)")
	cmd.Flags().String("out-dir", "", "Directory deployment results are written to")

	return cmd
}

// reported marks err as printed by the command, keeping the exit code
func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}
