package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/deployplan/internal/domain/config"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// Confirmer asks a y/N question on the terminal
type Confirmer struct {
	config *config.RuntimeConfig
	stdin  io.ReadCloser
	stdout io.WriteCloser
}

// NewConfirmer creates a confirmer bound to the process terminal
func NewConfirmer(cfg *config.RuntimeConfig) *Confirmer {
	return &Confirmer{config: cfg}
}

// NewConfirmerWithIO creates a confirmer reading answers from stdin
func NewConfirmerWithIO(cfg *config.RuntimeConfig, stdin io.ReadCloser, stdout io.WriteCloser) *Confirmer {
	return &Confirmer{config: cfg, stdin: stdin, stdout: stdout}
}

// Confirm returns true only on an explicit yes. Declining is not an error.
func (c *Confirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.config.NonInteractive {
		return false, fmt.Errorf("confirmation required but running non-interactively (pass --yes)")
	}

	p := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
		Stdin:     c.stdin,
		Stdout:    c.stdout,
	}

	_, err := p.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, nil
	default:
		return false, fmt.Errorf("prompt failed: %w", err)
	}
}

// Ensure Confirmer implements Confirmer
var _ usecase.Confirmer = (*Confirmer)(nil)
