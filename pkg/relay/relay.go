package relay

import (
	"context"
	_ "embed"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/integrail/pagegen/pkg/llm"
)

//go:generate ../../bin/mockery --name Service --output ./mocks --outpkg mocks

//go:embed prompt.tmpl
var DefaultInstructionTemplate string

// Service turns a page description into generated markup.
type Service interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Option func(s *service)

// WithInstructionTemplate replaces the instruction wrapped around the caller's prompt.
// The template receives the prompt as {{ .Prompt }}.
func WithInstructionTemplate(text string) Option {
	return func(s *service) {
		s.templateText = text
	}
}

// WithModel overrides the upstream client's default model.
func WithModel(model string) Option {
	return func(s *service) {
		s.model = model
	}
}

func NewService(log zerolog.Logger, client llm.Client, opts ...Option) (Service, error) {
	s := &service{
		log:          log,
		client:       client,
		templateText: DefaultInstructionTemplate,
	}
	for _, opt := range opts {
		opt(s)
	}
	tmpl, err := template.New("instruction").Option("missingkey=error").Parse(s.templateText)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse instruction template")
	}
	s.template = tmpl
	if _, err := s.instruction("sample"); err != nil {
		return nil, errors.Wrapf(err, "failed to render instruction template")
	}
	return s, nil
}

// LoadInstructionTemplate reads an instruction template from path.
func LoadInstructionTemplate(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read instruction template %q", path)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", errors.Errorf("instruction template %q is empty", path)
	}
	return string(content), nil
}

type service struct {
	log          zerolog.Logger
	client       llm.Client
	model        string
	templateText string
	template     *template.Template
}

type instructionData struct {
	Prompt string
}

func (s *service) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", llm.NewError(llm.KindInvalidRequest, nil, "prompt must not be empty")
	}

	instruction, err := s.instruction(prompt)
	if err != nil {
		return "", llm.NewError(llm.KindUnexpected, err, "unexpected error: failed to build instruction: %s", err.Error())
	}

	start := time.Now()
	res, err := s.client.Generate(ctx, llm.GenerateRequest{
		Prompt: instruction,
		Model:  s.model,
	})
	if err != nil {
		s.log.Debug().Str("kind", string(llm.KindOf(err))).Dur("took", time.Since(start)).Msg("generation failed")
		return "", llm.AsError(err)
	}
	if res == nil {
		return "", llm.NewError(llm.KindUnexpected, nil, "unexpected error: generative client returned no response")
	}
	s.log.Debug().Int("htmlChars", len(res.Response)).Dur("took", time.Since(start)).Msg("generation succeeded")
	return res.Response, nil
}

func (s *service) instruction(prompt string) (string, error) {
	var buf strings.Builder
	if err := s.template.Execute(&buf, instructionData{Prompt: prompt}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
