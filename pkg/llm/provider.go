// Package llm defines the provider abstraction used by the annotator.
package llm

import "context"

// Provider is the interface all completion backends must implement.
type Provider interface {
	ID() string
	Name() string

	// Complete sends a prompt and returns the model's full text response.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// CompletionRequest represents one non-streaming completion call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Registry holds all available providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

func (r *Registry) Register(p Provider) {
	r.providers[p.ID()] = p
}

func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

func (r *Registry) List() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}
