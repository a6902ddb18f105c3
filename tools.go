//go:build tools

//go:generate go build -o ./bin/mockery github.com/vektra/mockery/v2
//go:generate go build -o ./bin/gofumpt mvdan.cc/gofumpt
//go:generate go build -o ./bin/golangci-lint github.com/golangci/golangci-lint/cmd/golangci-lint

// pins the build tools: mockery regenerates pkg/llm/mocks and pkg/relay/mocks (go generate ./pkg/...),
// gofumpt and golangci-lint format and lint the tree

package main

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint" // nolint
	_ "github.com/vektra/mockery/v2"
	_ "mvdan.cc/gofumpt"
)
