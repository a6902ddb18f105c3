package llm

import (
	"context"
)

//go:generate ../../bin/mockery --name Client --output ./mocks --outpkg mocks

type Client interface {
	Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error)
}

type GenerateRequest struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	Model  string `json:"model,omitempty" yaml:"model,omitempty"` // overrides the client's default model when set
}

type GenerateResponse struct {
	Response string `json:"response" yaml:"response"`
}
