package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/savioxavier/termlink"
)

const (
	defaultTimeout = 5 * time.Minute
	chromeHeight   = 14
)

type generatedMsg struct {
	session Session
}

type PageClient struct {
	viewport             viewport.Model
	textarea             textarea.Model
	loader               spinner.Model
	styles               Styles
	relay                Client
	ctx                  context.Context
	cfg                  Config
	session              Session
	inProgress           bool
	lastPrompt           string
	outDir               string
	previewFile          string
	previewFileErr       error
	promptHistory        []string
	promptHistoryPointer int
}

// BubbleClient builds the terminal front-end talking to the relay at cfg.Url.
func BubbleClient(ctx context.Context, cfg Config) (tea.Model, error) {
	cfg.Url = lo.If(cfg.Url != "", cfg.Url).Else(DefaultRelayURL)
	timeout := defaultTimeout
	if dur, err := time.ParseDuration(cfg.Timeout); err == nil {
		timeout = dur
	}
	fmt.Printf("Using relay at %s...\n", cfg.Url)
	return NewPageClient(ctx, cfg, NewClient(cfg.Url, timeout))
}

func NewPageClient(ctx context.Context, cfg Config, relay Client) (*PageClient, error) {
	ta := textarea.New()
	ta.Placeholder = "Describe your landing page (content, style, sections, calls to action) and press Enter... (Ctrl^C to exit, Up and Down for history, PgUp and PgDown to scroll)"
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 4000

	ta.SetWidth(128)
	ta.SetHeight(6)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(160, 30)
	vp.KeyMap = viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
	}

	outDir := cfg.OutDir
	if outDir == "" {
		dir, err := os.MkdirTemp(os.TempDir(), "pagegen-preview")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to init temp dir")
		}
		outDir = dir
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to init output dir %q", outDir)
	}

	loader := spinner.New(
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
		spinner.WithSpinner(spinner.Dot),
	)
	c := &PageClient{
		ctx:      ctx,
		relay:    relay,
		cfg:      cfg,
		textarea: ta,
		viewport: vp,
		loader:   loader,
		styles:   DefaultStyles(),
		outDir:   outDir,
	}
	c.syncPreview()
	return c, nil
}

func (m *PageClient) Init() tea.Cmd {
	return textarea.Blink
}

func (m *PageClient) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.inProgress {
			return m, nil
		}
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd
	case generatedMsg:
		m.inProgress = false
		m.session = msg.session
		m.savePreview()
		m.syncPreview()
		return m, nil
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 5)
		m.textarea.SetWidth(msg.Width)
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.promptHistoryPointer < len(m.promptHistory) {
				m.promptHistoryPointer++
				m.textarea.SetValue(m.promptHistory[len(m.promptHistory)-m.promptHistoryPointer])
			}
			return m, nil
		case tea.KeyDown:
			if m.promptHistoryPointer > 0 {
				m.promptHistoryPointer--
			}
			if m.promptHistoryPointer > 0 {
				m.textarea.SetValue(m.promptHistory[len(m.promptHistory)-m.promptHistoryPointer])
			} else {
				m.textarea.SetValue("")
			}
			return m, nil
		case tea.KeyEnter:
			return m, m.submit()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// submit starts a new cycle. Blank input is rejected without calling the relay.
func (m *PageClient) submit() tea.Cmd {
	if m.inProgress {
		return nil
	}
	prompt := m.textarea.Value()
	m.session = m.session.Begin()
	m.previewFile, m.previewFileErr = "", nil
	if strings.TrimSpace(prompt) == "" {
		m.session = m.session.Reject()
		m.syncPreview()
		return nil
	}

	m.inProgress = true
	m.lastPrompt = prompt
	m.promptHistory = append(m.promptHistory, prompt)
	m.promptHistoryPointer = 0
	m.textarea.Reset()
	m.syncPreview()

	ctx, relay, relayURL := m.ctx, m.relay, m.cfg.Url
	return tea.Batch(m.loader.Tick, func() tea.Msg {
		return generatedMsg{session: Submit(ctx, relay, prompt, relayURL)}
	})
}

func (m *PageClient) syncPreview() {
	if m.session.Previewing() {
		m.viewport.SetContent(lo.FromPtr(m.session.LastResult))
	} else {
		m.viewport.SetContent("")
	}
	m.viewport.GotoTop()
}

// savePreview writes the generated page next to the other previews so it can be opened in a browser.
func (m *PageClient) savePreview() {
	if !m.session.Previewing() {
		return
	}
	fileName := filepath.Join(m.outDir, fmt.Sprintf("landing-%s.html", uuid.NewString()))
	if err := os.WriteFile(fileName, []byte(lo.FromPtr(m.session.LastResult)), 0o644); err != nil {
		m.previewFileErr = errors.Wrapf(err, "failed to save preview to %s", fileName)
		return
	}
	m.previewFile = fileName
}

// Session returns the current display state.
func (m *PageClient) Session() Session {
	return m.session
}

func (m *PageClient) View() string {
	header := m.styles.Header.Render("Landing page generator; relay: " + m.cfg.Url)

	dialogView := m.textarea.View()
	if m.inProgress {
		dialogView = m.loader.View() + " Generating... this may take a little while."
	}

	var status []string
	if m.lastPrompt != "" {
		status = append(status, m.styles.Sender.Render("You: ")+m.lastPrompt)
	}
	if notice := RenderNotice(m.session, m.styles); notice != "" {
		status = append(status, notice)
	}
	if m.previewFile != "" {
		status = append(status, "Open in browser: "+termlink.ColorLink(filepath.Base(m.previewFile), "file://"+m.previewFile, "italic green"))
	}
	if m.previewFileErr != nil {
		status = append(status, m.styles.Warning.Render(m.previewFileErr.Error()))
	}

	return header + fmt.Sprintf(
		"\n\n%s\n\n%s\n\n%s",
		dialogView,
		strings.Join(status, "\n"),
		RenderPreview(m.session, m.styles, m.viewport.View()),
	) + "\n\n"
}
