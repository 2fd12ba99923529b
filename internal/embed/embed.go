package embed

import (
	"context"
	"fmt"
	"strings"
)

type Info struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type Request struct {
	Inputs    []string `json:"inputs"`
	Dimension int      `json:"dimension"`
}

// Provider turns text into fixed-dimension vectors. The store treats the
// vectors as opaque.
type Provider interface {
	Embed(ctx context.Context, req Request) ([][]float32, Info, error)
}

// New selects a provider by name. "mock" is deterministic and needs no
// network; "openai" talks to the OpenAI embeddings API.
func New(name string, dim int) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(), nil
	default:
		return nil, fmt.Errorf("unknown embed provider %q", name)
	}
}
