package client

import (
	"context"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"

	"github.com/integrail/pagegen/pkg/client/dto"
)

func newTestPageClient(t *testing.T, relay Client) *PageClient {
	RegisterTestingT(t)
	c, err := NewPageClient(context.Background(), Config{Url: "http://relay:8080", OutDir: t.TempDir()}, relay)
	Expect(err).To(BeNil())
	return c
}

// runCmd executes cmd and every command it batches, returning the produced messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func pressEnter(c *PageClient) tea.Cmd {
	_, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func deliverGenerated(c *PageClient, cmd tea.Cmd) {
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(generatedMsg); ok {
			c.Update(msg)
		}
	}
}

func TestEnterWithBlankInputWarnsWithoutCallingRelay(t *testing.T) {
	relay := &fakeRelay{}
	c := newTestPageClient(t, relay)

	c.textarea.SetValue("   ")
	cmd := pressEnter(c)

	Expect(cmd).To(BeNil())
	Expect(relay.calls).To(BeEmpty())
	Expect(c.inProgress).To(BeFalse())
	Expect(c.Session().Notice).To(Equal(Notice{Level: NoticeWarning, Text: EmptyPromptWarning}))
	Expect(c.View()).To(ContainSubstring(EmptyPromptWarning))
}

func TestRoundTripRendersPreview(t *testing.T) {
	relay := &fakeRelay{results: []*dto.GenerationResult{{HTMLContent: "<!DOCTYPE html>...</html>"}}}
	c := newTestPageClient(t, relay)

	c.textarea.SetValue("coaching service landing page")
	cmd := pressEnter(c)
	Expect(cmd).NotTo(BeNil())
	Expect(c.inProgress).To(BeTrue())
	Expect(c.View()).To(ContainSubstring("Generating..."))

	deliverGenerated(c, cmd)

	Expect(relay.calls).To(Equal([]string{"coaching service landing page"}))
	Expect(c.inProgress).To(BeFalse())
	Expect(c.Session().Previewing()).To(BeTrue())
	view := c.View()
	Expect(view).NotTo(ContainSubstring("Generating..."))
	Expect(view).To(ContainSubstring(previewReady))
	Expect(view).To(ContainSubstring("<!DOCTYPE html>...</html>"))

	Expect(c.previewFile).NotTo(BeEmpty())
	saved, err := os.ReadFile(c.previewFile)
	Expect(err).To(BeNil())
	Expect(string(saved)).To(Equal("<!DOCTYPE html>...</html>"))
}

func TestFailureClearsPreviousPreview(t *testing.T) {
	relay := &fakeRelay{
		results: []*dto.GenerationResult{{HTMLContent: "<html>first</html>"}, nil},
		errs:    []error{nil, ErrInvalidResponse},
	}
	c := newTestPageClient(t, relay)

	c.textarea.SetValue("first page")
	deliverGenerated(c, pressEnter(c))
	Expect(lo.FromPtr(c.Session().LastResult)).To(Equal("<html>first</html>"))

	c.textarea.SetValue("second page")
	deliverGenerated(c, pressEnter(c))

	s := c.Session()
	Expect(s.LastResult).To(BeNil())
	Expect(s.ShowPreview).To(BeFalse())
	Expect(s.Notice.Level).To(Equal(NoticeError))
	Expect(c.inProgress).To(BeFalse())
	Expect(c.previewFile).To(BeEmpty())
	view := c.View()
	Expect(view).NotTo(ContainSubstring("<html>first</html>"))
	Expect(view).To(ContainSubstring(previewPlaceholder))
}

func TestEnterIgnoredWhileInProgress(t *testing.T) {
	relay := &fakeRelay{results: []*dto.GenerationResult{{HTMLContent: "<html/>"}}}
	c := newTestPageClient(t, relay)

	c.textarea.SetValue("page")
	first := pressEnter(c)
	c.textarea.SetValue("another page")
	Expect(pressEnter(c)).To(BeNil())

	deliverGenerated(c, first)
	Expect(relay.calls).To(Equal([]string{"page"}))
}

func TestPromptHistory(t *testing.T) {
	relay := &fakeRelay{results: []*dto.GenerationResult{{HTMLContent: "<html/>"}}}
	c := newTestPageClient(t, relay)

	for _, prompt := range []string{"bakery", "gym"} {
		c.textarea.SetValue(prompt)
		deliverGenerated(c, pressEnter(c))
	}

	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	Expect(c.textarea.Value()).To(Equal("gym"))
	c.Update(tea.KeyMsg{Type: tea.KeyUp})
	Expect(c.textarea.Value()).To(Equal("bakery"))
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	Expect(c.textarea.Value()).To(Equal("gym"))
	c.Update(tea.KeyMsg{Type: tea.KeyDown})
	Expect(c.textarea.Value()).To(BeEmpty())
}

func TestSpinnerStopsWhenIdle(t *testing.T) {
	c := newTestPageClient(t, &fakeRelay{})

	_, cmd := c.Update(c.loader.Tick())
	Expect(cmd).To(BeNil())
}

func TestQuitKeys(t *testing.T) {
	c := newTestPageClient(t, &fakeRelay{})

	_, cmd := c.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	Expect(cmd).NotTo(BeNil())
	Expect(cmd()).To(Equal(tea.Quit()))
}
