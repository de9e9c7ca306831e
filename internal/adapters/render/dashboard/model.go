package dashboard

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

const defaultRefresh = 250 * time.Millisecond

type renderReadyMsg struct{}

type model struct {
	frames []Frame
	opts   RenderOptions
	styles styles
	output string
}

func newModel(frames []Frame, opts RenderOptions) model {
	return model{
		frames: frames,
		opts:   opts,
		styles: newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.frames, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render draws a single snapshot of the board.
func Render(frames []Frame, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(frames, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}

// FrameSource is anything that can hand out the current frames.
type FrameSource interface {
	Frames() []Frame
}

type LiveOptions struct {
	RenderOptions
	Refresh time.Duration
	Now     func() time.Time
}

type refreshMsg time.Time

type liveModel struct {
	source  FrameSource
	opts    LiveOptions
	styles  styles
	spinner spinner.Model
	frames  []Frame
	quit    bool
}

func newLiveModel(source FrameSource, opts LiveOptions) liveModel {
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Footer == "" {
		opts.Footer = "press q to stop"
	}

	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return liveModel{
		source:  source,
		opts:    opts,
		styles:  newStyles(),
		spinner: s,
		frames:  source.Frames(),
	}
}

func (m liveModel) refresh() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m liveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case refreshMsg:
		m.frames = m.source.Frames()
		return m, m.refresh()
	default:
		return m, nil
	}
}

func (m liveModel) View() string {
	if m.quit {
		return ""
	}
	opts := m.opts.RenderOptions
	opts.Now = m.opts.Now()
	opts.Spinner = m.spinner.View()
	return renderView(m.frames, opts, m.styles) + "\n"
}

// Run shows the board until the user quits or ctx is done.
func Run(ctx context.Context, source FrameSource, opts LiveOptions, input io.Reader, output io.Writer) error {
	p := tea.NewProgram(
		newLiveModel(source, opts),
		tea.WithInput(input),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
