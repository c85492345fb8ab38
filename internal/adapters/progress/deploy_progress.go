package progress

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// DeployProgress prints one line per deployment milestone and keeps a
// spinner running while transactions are in flight
type DeployProgress struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *lineSpinner
}

// NewDeployProgress creates a progress sink writing to out. The spinner is
// only used when interactive is set.
func NewDeployProgress(out io.Writer, interactive bool) *DeployProgress {
	p := &DeployProgress{out: out}
	if interactive {
		p.spinner = newLineSpinner(out)
	}
	return p
}

// OnProgress renders an orchestration or verification event
func (p *DeployProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Stage {
	case usecase.StagePlanCreated:
		plan, _ := event.Metadata.(*domain.DeploymentPlan)
		p.println(func() {
			fmt.Fprintf(p.out, "Deploying %d contracts", event.Total)
			if plan != nil && plan.Group != "" {
				fmt.Fprintf(p.out, " (%s)", cyan.Sprint(plan.Group))
			}
			fmt.Fprintln(p.out)
			if plan != nil {
				fmt.Fprintf(p.out, "  order: %s\n", strings.Join(plan.Names(), " → "))
			}
		})

	case usecase.StageSpecStarting:
		p.spinner.Show(fmt.Sprintf("[%d/%d] deploying %s", event.Current, event.Total, event.Message))

	case usecase.StageTxSubmitted:
		pending, _ := event.Metadata.(*usecase.PendingArtifact)
		if pending == nil {
			return
		}
		p.println(func() {
			fmt.Fprintf(p.out, "  %s %s tx %s (nonce %d)\n", yellow.Sprint("↗"), event.Message, faint.Sprint(pending.TxHash.Hex()), pending.Nonce)
		})
		p.spinner.Show(fmt.Sprintf("waiting for %s to confirm", event.Message))

	case usecase.StageConfirmed:
		p.spinner.Stop()
		artifact, _ := event.Metadata.(*domain.DeployedArtifact)
		if artifact == nil {
			return
		}
		fmt.Fprintf(p.out, "%s %s deployed at %s (block %d, %d confirmations)\n",
			green.Sprint("✓"), artifact.Name, artifact.Address.Hex(), artifact.BlockNumber, artifact.Confirmations)

	case usecase.StageWiringChecked:
		getters, _ := event.Metadata.([]string)
		p.println(func() {
			fmt.Fprintf(p.out, "  %s wiring ok: %s\n", green.Sprint("↳"), strings.Join(getters, ", "))
		})

	case usecase.StageSpecFailed:
		p.spinner.Stop()
		err, _ := event.Metadata.(error)
		fmt.Fprintf(p.out, "%s %s failed: %v\n", red.Sprint("✗"), event.Message, err)

	case usecase.StageDeployCompleted:
		p.spinner.Stop()
		fmt.Fprintf(p.out, "%s\n", green.Sprintf("Deployed %d contracts", event.Total))

	case usecase.StageVerifyStarting:
		if event.Spinner {
			p.spinner.Show(fmt.Sprintf("[%d/%d] verifying %s", event.Current, event.Total, event.Message))
		}

	case usecase.StageVerifyCompleted:
		info, _ := event.Metadata.(domain.VerificationInfo)
		p.println(func() { p.printVerification(event.Message, info) })

	case usecase.StageVerifyAllCompleted:
		p.spinner.Stop()
		summary, _ := event.Metadata.(*usecase.VerifySummary)
		if summary == nil || summary.Verified+summary.Failed+summary.Skipped == 0 {
			return
		}
		fmt.Fprintf(p.out, "Verification: %d verified, %d failed, %d skipped\n", summary.Verified, summary.Failed, summary.Skipped)
	}
}

func (p *DeployProgress) printVerification(name string, info domain.VerificationInfo) {
	switch info.Status {
	case domain.VerificationStatusVerified:
		fmt.Fprintf(p.out, "%s %s verified", green.Sprint("✓"), name)
		if info.URL != "" {
			fmt.Fprintf(p.out, " %s", faint.Sprint(info.URL))
		}
		fmt.Fprintln(p.out)
	case domain.VerificationStatusSkipped:
		fmt.Fprintf(p.out, "%s %s verification skipped: %s\n", faint.Sprint("-"), name, info.Reason)
	default:
		fmt.Fprintf(p.out, "%s %s verification failed: %s\n", yellow.Sprint("!"), name, info.Reason)
	}
}

// println prints around the spinner so lines are not interleaved with it
func (p *DeployProgress) println(print func()) {
	p.spinner.Around(print)
}

// Info prints an info message
func (p *DeployProgress) Info(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(func() { cyan.Fprintln(p.out, message) })
}

// Error prints an error message
func (p *DeployProgress) Error(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(func() { red.Fprintln(p.out, message) })
}

// Ensure DeployProgress implements ProgressSink
var _ usecase.ProgressSink = (*DeployProgress)(nil)
