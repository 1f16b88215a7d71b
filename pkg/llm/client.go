// Package llm provides the chat-completion collaborator used to turn
// test output into written insights. The interface is deliberately
// narrow: one prompt in, one completion out.
package llm

import (
	"context"
	"errors"
)

// ErrDisabled is returned by NopClient so callers can distinguish "no
// LLM configured" from a transport failure.
var ErrDisabled = errors.New("llm client disabled")

// Client produces a completion for a prompt.
type Client interface {
	ChatCompletion(ctx context.Context, prompt string) (string, error)
}

// NopClient satisfies Client without credentials. Every call returns
// ErrDisabled.
type NopClient struct{}

func (NopClient) ChatCompletion(context.Context, string) (string, error) {
	return "", ErrDisabled
}
