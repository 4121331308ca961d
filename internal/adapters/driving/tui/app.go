package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/custodia-labs/reportchat-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// entry is one rendered line pair of the transcript.
type entry struct {
	role     string // "you" or "assistant"
	text     string
	grounded bool
}

// responseMsg carries a completed chat response into the update loop.
type responseMsg struct {
	resp *domain.ChatResponse
}

// errMsg carries a failed chat call into the update loop.
type errMsg struct {
	err error
}

// App is the interactive chat UI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// sessionID identifies the conversation; one session per TUI run.
	sessionID string

	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	transcript []entry

	// waiting is true while a response is being generated.
	waiting bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates the first WindowSizeMsg has arrived.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat UI with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	input := textinput.New()
	input.Placeholder = "Ask about your reports…"
	input.Prompt = "> "
	input.CharLimit = 2000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		sessionID: uuid.NewString(),
		input:     input,
		spinner:   spin,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// SessionID returns the conversation session used by this run.
func (a *App) SessionID() string {
	return a.sessionID
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 6

		// Header, input frame and help line take up fixed rows.
		vpHeight := msg.Height - 6
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !a.ready {
			a.viewport = viewport.New(msg.Width, vpHeight)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = vpHeight
		}
		a.viewport.SetContent(a.renderTranscript())
		a.viewport.GotoBottom()
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			return a, a.submit()
		}

	case responseMsg:
		a.waiting = false
		a.err = nil
		a.transcript = append(a.transcript, entry{
			role:     "assistant",
			text:     msg.resp.Message,
			grounded: msg.resp.Grounded,
		})
		a.refreshViewport()
		return a, nil

	case errMsg:
		a.waiting = false
		a.err = msg.err
		a.refreshViewport()
		return a, nil

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// submit sends the current input to the chat service.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.waiting {
		return nil
	}

	a.transcript = append(a.transcript, entry{role: "you", text: question, grounded: true})
	a.input.Reset()
	a.waiting = true
	a.err = nil
	a.refreshViewport()

	respond := func() tea.Msg {
		resp, err := a.ports.Chat.Respond(a.ctx, a.sessionID, question)
		if err != nil {
			return errMsg{err: err}
		}
		return responseMsg{resp: resp}
	}

	return tea.Batch(respond, a.spinner.Tick)
}

// refreshViewport re-renders the transcript and scrolls to the bottom.
func (a *App) refreshViewport() {
	if !a.ready {
		return
	}
	a.viewport.SetContent(a.renderTranscript())
	a.viewport.GotoBottom()
}

// renderTranscript formats the conversation so far.
func (a *App) renderTranscript() string {
	if len(a.transcript) == 0 && a.err == nil {
		return a.styles.Muted.Render("Ask a question about your ingested reports.")
	}

	var b strings.Builder
	for _, e := range a.transcript {
		if e.role == "you" {
			b.WriteString(a.styles.User.Render("you: "))
			b.WriteString(e.text)
		} else {
			b.WriteString(a.styles.Assistant.Render(e.text))
			if !e.grounded {
				b.WriteString("\n")
				b.WriteString(a.styles.Notice.Render("(no stored report content was relevant)"))
			}
		}
		b.WriteString("\n\n")
	}

	if a.err != nil {
		b.WriteString(a.styles.Error.Render(fmt.Sprintf("error: %v", a.err)))
		b.WriteString("\n")
	}

	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "loading…"
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("reportchat"))
	b.WriteString(a.styles.Muted.Render("  session " + a.sessionID[:8]))
	b.WriteString("\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")

	if a.waiting {
		b.WriteString(a.spinner.View())
		b.WriteString(a.styles.Muted.Render(" thinking…"))
		b.WriteString("\n")
	} else {
		b.WriteString(a.styles.InputBorder.Render(a.input.View()))
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Muted.Render("enter: send • esc: quit"))
	return b.String()
}
