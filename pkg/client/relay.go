package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/integrail/pagegen/pkg/client/dto"
)

const (
	DefaultRelayURL = "http://localhost:8080"
	GenerateRoute   = "/generate-landing-page"
)

var (
	ErrRelayUnreachable = errors.New("failed to connect to the relay")
	ErrRelayStatus      = errors.New("relay returned an error")
	ErrInvalidResponse  = errors.New("relay response is not valid JSON")
)

type Config struct {
	Url     string `json:"url" yaml:"url"`         // base URL of the relay service
	Timeout string `json:"timeout" yaml:"timeout"` // max time to wait for a generation (duration, e.g. 5m)
	OutDir  string `json:"outDir" yaml:"outDir"`   // where generated pages are saved for browser preview (default: temp dir)
}

type Client interface {
	Generate(ctx context.Context, prompt string) (*dto.GenerationResult, error)
}

func NewClient(relayURL string, timeout time.Duration) Client {
	return &relayClient{
		relayURL: strings.TrimRight(relayURL, "/"),
		timeout:  timeout,
	}
}

type relayClient struct {
	relayURL string
	timeout  time.Duration
}

func (o *relayClient) runClient(ctx context.Context, endpoint string, body any) (int, []byte, error) {
	client := &http.Client{Timeout: o.timeout}

	reqBodyBytes, err := json.Marshal(body)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "failed to marshal relay request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.relayURL+endpoint, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrRelayUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrRelayUnreachable, err)
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", ErrRelayUnreachable, err)
	}
	return resp.StatusCode, respBytes, nil
}

func (o *relayClient) Generate(ctx context.Context, prompt string) (*dto.GenerationResult, error) {
	status, respBytes, err := o.runClient(ctx, GenerateRoute, dto.GenerationRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		var errResp dto.ErrorResponse
		detail := strings.TrimSpace(string(respBytes))
		if json.Unmarshal(respBytes, &errResp) == nil && errResp.Detail != "" {
			detail = errResp.Detail
		}
		return nil, fmt.Errorf("%w: status code %d: %s", ErrRelayStatus, status, detail)
	}
	var result dto.GenerationResult
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, ErrInvalidResponse
	}
	return &result, nil
}
