// Package provider talks to the vision model that identifies monuments.
package provider

import "context"

// Provider sends one image to a model and returns its raw text answer.
// Errors are *errors.AppError values of a provider kind.
type Provider interface {
	Analyze(ctx context.Context, imageDataURI string) (string, error)
	// Configured reports whether the provider has what it needs to make calls
	Configured() bool
	Name() string
}
