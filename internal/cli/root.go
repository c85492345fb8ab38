package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/deployplan/internal/adapters/progress"
	"github.com/trebuchet-org/deployplan/internal/app"
	"github.com/trebuchet-org/deployplan/internal/cli/render"
	"github.com/trebuchet-org/deployplan/internal/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app session
	appKey contextKey = "app"
)

// session is what PersistentPreRunE leaves in the command context
type session struct {
	app    *app.App
	cancel context.CancelFunc
}

// reportedError wraps an error the command already printed with its result
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deployplan",
		Short: "Deploy a dependency-ordered set of contracts to an EVM network",
		Long: `deployplan deploys the contracts of a plan file in dependency order,
waits for each creation to be confirmed, checks the wiring between them and
submits the sources to the block explorer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				if projectRoot, err = os.Getwd(); err != nil {
					return err
				}
			}

			// Flags win over env, the project file and defaults
			v := config.SetupViper(projectRoot, cmd.Flags())

			appInstance, err := app.InitApp(v, newProgressSink(cmd, v))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			if appInstance.Config.Timeout > 0 {
				cancel()
				ctx, cancel = context.WithTimeout(cmd.Context(), appInstance.Config.Timeout)
			}
			cmd.SetContext(context.WithValue(ctx, appKey, &session{app: appInstance, cancel: cancel}))

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., localhost, sepolia)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort the command after this duration")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	planCmd := NewPlanCmd()
	planCmd.GroupID = "main"
	rootCmd.AddCommand(planCmd)

	verifyCmd := NewVerifyCmd()
	verifyCmd.GroupID = "main"
	rootCmd.AddCommand(verifyCmd)

	// Version command
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command and returns the process exit code. Errors
// not already printed by a command are printed here.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCmd()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil {
		closeSession(cmd)
	}
	if err == nil {
		return 0
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), render.FormatError(err.Error()))
	}
	return 1
}

// newProgressSink picks the progress output for the command. JSON output
// keeps stdout clean, so progress is dropped entirely.
func newProgressSink(cmd *cobra.Command, v *viper.Viper) usecase.ProgressSink {
	if v.GetBool("json") {
		return progress.NewNopSink()
	}
	return progress.NewDeployProgress(cmd.ErrOrStderr(), isInteractive(v))
}

// isInteractive reports whether prompts and spinners make sense
func isInteractive(v *viper.Viper) bool {
	return !v.GetBool("non_interactive") &&
		os.Getenv("CI") != "true" &&
		!color.NoColor
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	s, ok := cmd.Context().Value(appKey).(*session)
	if !ok || s == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return s.app, nil
}

// closeSession releases the app and cancels the command context
func closeSession(cmd *cobra.Command) {
	if cmd.Context() == nil {
		return
	}
	if s, ok := cmd.Context().Value(appKey).(*session); ok && s != nil {
		s.cancel()
		s.app.Close()
	}
}
