package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/deployplan/internal/cli/render"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the contracts of a saved deployment result",
		Long: `Verify the contracts recorded in the deployment result of a network on
its block explorer and update the result. Contracts already verified are left
alone unless --force is given, so running it again is harmless.

Examples:
  deployplan verify --network sepolia
  deployplan verify --network sepolia --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.VerifyDeployment.Execute(cmd.Context(), usecase.VerifyOptions{Force: force})
			if err != nil {
				return fmt.Errorf("failed to verify contracts: %w", err)
			}

			if app.Config.JSON {
				return render.RenderVerifyJSON(cmd.OutOrStdout(), result)
			}
			return render.NewVerifyRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-verify even if already verified")
	cmd.Flags().String("out-dir", "", "Directory deployment results are read from")
	cmd.Flags().String("artifacts-dir", "", "Compiled artifacts directory (default artifacts/ or out/)")

	return cmd
}
