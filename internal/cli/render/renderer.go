package render

import "github.com/trebuchet-org/deployplan/internal/usecase"

// Renderer writes a command result to its output
type Renderer[T any] interface {
	Render(result T) error
}

var (
	_ Renderer[*usecase.RunDeploymentResult] = (*ResultRenderer)(nil)
	_ Renderer[*usecase.PlanView]            = (*PlanRenderer)(nil)
	_ Renderer[*usecase.VerifyResult]        = (*VerifyRenderer)(nil)
)
