package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// VerifyRenderer handles rendering of verification results
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// Render prints the verification state of every artifact in the result
func (r *VerifyRenderer) Render(result *usecase.VerifyResult) error {
	if result == nil || result.Result == nil {
		return nil
	}

	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Verification on %s (chain %d)\n", result.Result.Network, result.Result.ChainID)
	for _, a := range result.Result.Artifacts() {
		fmt.Fprintf(r.out, "  %s %-24s %s\n", statusIcon(a.Verification.Status), a.Name, statusLabel(a.Verification.Status))
		switch {
		case a.Verification.Status == domain.VerificationStatusVerified && a.Verification.URL != "":
			fmt.Fprintf(r.out, "      %s\n", color.New(color.Faint).Sprint(a.Verification.URL))
		case a.Verification.Reason != "":
			fmt.Fprintf(r.out, "      %s\n", color.New(color.Faint).Sprint(a.Verification.Reason))
		}
	}

	if s := result.Summary; s != nil {
		fmt.Fprintln(r.out)
		if s.Attempted == 0 && s.Verified == 0 && s.Failed == 0 && s.Skipped == 0 {
			color.New(color.FgYellow).Fprintln(r.out, "Nothing to verify. Use --force to re-verify all contracts.")
		} else {
			fmt.Fprintf(r.out, "%d verified, %d failed, %d skipped\n", s.Verified, s.Failed, s.Skipped)
		}
	}
	if result.ResultPath != "" {
		fmt.Fprintf(r.out, "Result written to %s\n", result.ResultPath)
	}
	return nil
}

func statusIcon(status domain.VerificationStatus) string {
	switch status {
	case domain.VerificationStatusVerified:
		return color.New(color.FgGreen).Sprint("✓")
	case domain.VerificationStatusFailed:
		return color.New(color.FgRed).Sprint("✗")
	case domain.VerificationStatusSkipped:
		return color.New(color.Faint).Sprint("-")
	default:
		return color.New(color.FgYellow).Sprint("⏳")
	}
}
