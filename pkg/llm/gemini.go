package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/integrail/pagegen/pkg/util"
)

const (
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel = "gemini-2.0-flash"

	maxErrorBodyLen = 512
)

type GeminiOption func(c *geminiClient)

func WithBaseURL(baseURL string) GeminiOption {
	return func(c *geminiClient) {
		c.baseURL = baseURL
	}
}

func WithModel(model string) GeminiOption {
	return func(c *geminiClient) {
		c.model = model
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(httpClient *http.Client) GeminiOption {
	return func(c *geminiClient) {
		c.httpClient = httpClient
	}
}

// NewGemini returns a client for the Gemini generateContent endpoint.
// The key travels as the "key" query parameter.
func NewGemini(log zerolog.Logger, apiKey string, opts ...GeminiOption) Client {
	c := &geminiClient{
		log:        log,
		apiKey:     apiKey,
		baseURL:    DefaultGeminiURL,
		model:      DefaultGeminiModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geminiClient struct {
	log        zerolog.Logger
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

func (g *geminiClient) Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	model := lo.If(request.Model != "", request.Model).Else(g.model)
	endpoint, err := g.endpoint(model)
	if err != nil {
		return nil, NewError(KindUnexpected, err, "unexpected error: invalid generative API url %q: %s", g.baseURL, err.Error())
	}

	reqBodyBytes, err := json.Marshal(generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: request.Prompt}}}},
	})
	if err != nil {
		return nil, NewError(KindUnexpected, err, "unexpected error: failed to marshal generative API request: %s", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return nil, NewError(KindUnexpected, err, "unexpected error: failed to init generative API request: %s", g.redact(err.Error()))
	}
	req.Header.Set("Content-Type", "application/json")

	g.log.Debug().Str("model", model).Int("promptChars", len(request.Prompt)).Msg("calling generative API")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.redactURLError(err)
		return nil, NewError(KindUpstreamTransport, err, "error calling generative API: %s", g.redact(err.Error()))
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindUpstreamTransport, err, "error reading generative API response: %s", g.redact(err.Error()))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := util.Truncate(g.redact(strings.TrimSpace(string(respBytes))), maxErrorBodyLen)
		cause := errors.Errorf("status code %d", resp.StatusCode)
		return nil, NewError(KindUpstreamTransport, cause, "error calling generative API: status code %d: %s", resp.StatusCode, detail)
	}

	text, err := extractText(respBytes)
	if err != nil {
		return nil, err
	}
	g.log.Debug().Str("model", model).Int("responseChars", len(text)).Msg("generative API responded")
	return &GenerateResponse{
		Response: text,
	}, nil
}

func (g *geminiClient) endpoint(model string) (string, error) {
	u, err := url.Parse(strings.TrimRight(g.baseURL, "/") + "/models/" + url.PathEscape(model) + ":generateContent")
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("missing scheme or host")
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *geminiClient) redact(text string) string {
	return util.RedactSecrets(text, g.apiKey, url.QueryEscape(g.apiKey))
}

// redactURLError masks the key inside the request URL that net/http embeds in its errors.
func (g *geminiClient) redactURLError(err error) {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = g.redact(urlErr.URL)
	}
}

// extractText unwraps candidates[0].content.parts[0].text.
func extractText(body []byte) (string, error) {
	if !json.Valid(body) {
		return "", NewError(KindDecode, nil, "generative API response is not valid JSON")
	}
	var envelope generateContentResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", NewError(KindUpstreamContract, err, "unexpected generative API response structure: %s", err.Error())
	}
	if len(envelope.Candidates) == 0 {
		if envelope.PromptFeedback != nil && envelope.PromptFeedback.BlockReason != "" {
			return "", NewError(KindUpstreamContract, nil, "unexpected generative API response structure: no candidates (prompt blocked: %s)", envelope.PromptFeedback.BlockReason)
		}
		return "", NewError(KindUpstreamContract, nil, "unexpected generative API response structure: missing candidates")
	}
	candidate := envelope.Candidates[0]
	if candidate.Content == nil {
		return "", NewError(KindUpstreamContract, nil, "unexpected generative API response structure: missing candidates[0].content")
	}
	if len(candidate.Content.Parts) == 0 {
		return "", NewError(KindUpstreamContract, nil, "unexpected generative API response structure: missing candidates[0].content.parts")
	}
	text := candidate.Content.Parts[0].Text
	if text == nil {
		return "", NewError(KindUpstreamContract, nil, "unexpected generative API response structure: missing candidates[0].content.parts[0].text")
	}
	return *text, nil
}
