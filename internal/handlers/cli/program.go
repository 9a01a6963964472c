package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const welcome = "Type help for a list of commands."

// outputMsg carries text printed outside a key press, e.g. by autosave
type outputMsg string

// model shows the live turn order above a prompt. Enter runs the typed line
// through Handler.Execute and prints its output above the program.
type model struct {
	ctx    context.Context
	h      *Handler
	input  string
	status string
	board  string
	done   bool
}

func newModel(ctx context.Context, h *Handler) model {
	return model{
		ctx:    ctx,
		h:      h,
		status: welcome,
		board:  h.board(ctx),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case outputMsg:
		m.board = m.h.board(m.ctx)
		return m, tea.Println(string(msg))
	}
	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.done = true
		return m, tea.Quit
	case tea.KeyCtrlD:
		if m.input == "" {
			m.done = true
			return m, tea.Quit
		}
	case tea.KeyEnter, tea.KeyCtrlJ:
		return m.submit()
	case tea.KeyBackspace, tea.KeyCtrlH:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyCtrlU:
		m.input = ""
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m model) submit() (tea.Model, tea.Cmd) {
	line := m.input
	m.input = ""

	var (
		quit bool
		err  error
	)
	out := m.h.capture(func() {
		quit, err = m.h.Execute(m.ctx, line)
	})

	m.status = ""
	if err != nil {
		m.status = fmt.Sprintf("error: %v", err)
	}
	m.board = m.h.board(m.ctx)

	echo := tea.Println("> " + line)
	if out != "" {
		echo = tea.Sequence(echo, tea.Println(strings.TrimRight(out, "\n")))
	}
	if quit {
		m.done = true
		return m, tea.Sequence(echo, tea.Quit)
	}
	return m, echo
}

func (m model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.board)
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString("> ")
	b.WriteString(m.input)
	return b.String()
}

// Run drives the handler from a terminal program reading keys from in until
// quit, end of input or ctx is done
func (h *Handler) Run(ctx context.Context, in io.Reader) error {
	h.outMu.Lock()
	out := h.out
	h.outMu.Unlock()

	p := tea.NewProgram(newModel(ctx, h),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out))

	restore := h.redirect(programWriter{p: p})
	defer restore()

	_, err := p.Run()
	return err
}

// programWriter hands printed text to a running program. Send blocks while
// the program is busy in Update, so it runs on its own goroutine.
type programWriter struct {
	p *tea.Program
}

func (w programWriter) Write(b []byte) (int, error) {
	if text := strings.TrimRight(string(b), "\n"); text != "" {
		go w.p.Send(outputMsg(text))
	}
	return len(b), nil
}

// capture runs fn and returns everything the handler printed meanwhile
func (h *Handler) capture(fn func()) string {
	var buf bytes.Buffer
	restore := h.redirect(&buf)
	fn()
	restore()
	return buf.String()
}

// redirect sends handler output to w until the returned func is called
func (h *Handler) redirect(w io.Writer) func() {
	h.outMu.Lock()
	prev := h.out
	h.out = w
	h.outMu.Unlock()

	return func() {
		h.outMu.Lock()
		h.out = prev
		h.outMu.Unlock()
	}
}

// board renders the encounter the way the list command does
func (h *Handler) board(ctx context.Context) string {
	enc, err := h.service.GetEncounter(ctx, h.encounterID)
	if err != nil {
		return fmt.Sprintf("error: %v\n", err)
	}

	var b strings.Builder
	if err := renderEncounter(&b, h.renderer, enc, h.Preferences()); err != nil {
		return fmt.Sprintf("error: %v\n", err)
	}
	return b.String()
}
