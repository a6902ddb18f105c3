package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/integrail/pagegen/pkg/client/dto"
)

type NoticeLevel int

const (
	NoticeNone NoticeLevel = iota
	NoticeWarning
	NoticeError
)

type Notice struct {
	Level NoticeLevel
	Text  string
}

const (
	EmptyPromptWarning = "Please enter a description to generate the landing page."
	EmptyResultWarning = "The relay responded but no HTML content was found."
	previewPlaceholder = "Your preview will appear here once generated."
	previewReady       = "Generated landing page preview:"
)

// Session is the front-end display state. It survives redraws and is replaced
// wholesale on every submission; the zero value is the state at session start.
type Session struct {
	LastResult  *string
	ShowPreview bool
	Notice      Notice
}

// Begin starts a new submission cycle.
func (s Session) Begin() Session {
	return Session{}
}

// Reject records a submission refused locally because the description is blank.
func (s Session) Reject() Session {
	return Session{Notice: Notice{Level: NoticeWarning, Text: EmptyPromptWarning}}
}

// Complete records the outcome of a relay call. Exactly one of markup, warning or
// error ends up displayed, and failures never keep a partial result.
func (s Session) Complete(res *dto.GenerationResult, err error, relayURL string) Session {
	if err != nil {
		return Session{Notice: Notice{Level: NoticeError, Text: describeError(err, relayURL)}}
	}
	html := lo.FromPtr(res).HTMLContent
	if html == "" {
		return Session{Notice: Notice{Level: NoticeWarning, Text: EmptyResultWarning}}
	}
	return Session{LastResult: lo.ToPtr(html), ShowPreview: true}
}

// Previewing reports whether the preview surface shows markup.
func (s Session) Previewing() bool {
	return s.ShowPreview && lo.FromPtr(s.LastResult) != ""
}

// Submit runs a full submission cycle synchronously.
func Submit(ctx context.Context, c Client, prompt, relayURL string) Session {
	s := Session{}.Begin()
	if strings.TrimSpace(prompt) == "" {
		return s.Reject()
	}
	res, err := c.Generate(ctx, prompt)
	return s.Complete(res, err, relayURL)
}

func describeError(err error, relayURL string) string {
	switch {
	case errors.Is(err, ErrRelayUnreachable):
		return fmt.Sprintf("Error while connecting to the relay: %s. Please check that the relay is reachable at %s.", err.Error(), relayURL)
	case errors.Is(err, ErrRelayStatus):
		return fmt.Sprintf("Error from the relay: %s", err.Error())
	case errors.Is(err, ErrInvalidResponse):
		return "Error: the relay response is not valid JSON."
	default:
		return fmt.Sprintf("An unexpected error occurred: %s", err.Error())
	}
}

type Styles struct {
	Header  lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Sender  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF88")).Background(lipgloss.Color("#444444")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")),
		Error:   lipgloss.NewStyle().Background(lipgloss.Color("#330000")).Foreground(lipgloss.Color("#FF3333")),
		Sender:  lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// RenderNotice renders the warning or error of s, if any.
func RenderNotice(s Session, styles Styles) string {
	switch s.Notice.Level {
	case NoticeWarning:
		return styles.Warning.Render("WARNING: " + s.Notice.Text)
	case NoticeError:
		return styles.Error.Render("ERROR: " + s.Notice.Text)
	default:
		return ""
	}
}

// RenderPreview renders the preview surface for s. surface is the scrollable
// view holding the markup and is only shown while s has a result to preview.
func RenderPreview(s Session, styles Styles, surface string) string {
	if !s.Previewing() {
		return styles.Info.Render(previewPlaceholder)
	}
	return styles.Success.Render(previewReady) + "\n" + surface
}
