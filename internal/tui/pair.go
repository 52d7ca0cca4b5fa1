package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/huectl/huectl/internal/bridge"
)

const (
	// DefaultPairWindow matches the bridge's own link-button window
	DefaultPairWindow = 30 * time.Second

	// retryInterval is the pause between registration attempts while the
	// link button has not been pressed yet
	retryInterval = 2 * time.Second
)

// pairState is the current phase of the pairing flow
type pairState int

const (
	statePairing pairState = iota
	stateSuccess
	stateFailure
)

// Messages for async operations
type pairAttemptMsg struct {
	username string
	err      error
}

type pairRetryMsg struct{}

// PairModel drives the interactive pairing flow: it re-attempts
// registration while the user walks over and presses the bridge's link
// button, then shows the assigned username or the device's error.
type PairModel struct {
	bridge     *bridge.Bridge
	devicetype string
	deadline   time.Time

	spinner  spinner.Model
	state    pairState
	attempts int

	// Username holds the assigned username once pairing succeeded
	Username string
	// Err holds the final failure once pairing gave up
	Err error
}

// NewPairModel creates a pairing model for b. window bounds the whole flow;
// zero or less uses DefaultPairWindow.
func NewPairModel(b *bridge.Bridge, devicetype string, window time.Duration) PairModel {
	if window <= 0 {
		window = DefaultPairWindow
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return PairModel{
		bridge:     b,
		devicetype: devicetype,
		deadline:   time.Now().Add(window),
		spinner:    s,
		state:      statePairing,
	}
}

// Init implements tea.Model
func (m PairModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.attemptCmd())
}

// attemptCmd runs one registration attempt off the UI loop
func (m PairModel) attemptCmd() tea.Cmd {
	b := m.bridge
	devicetype := m.devicetype
	return func() tea.Msg {
		username, err := b.RegisterUser(devicetype)
		return pairAttemptMsg{username: username, err: err}
	}
}

// Update implements tea.Model
func (m PairModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.state == statePairing && m.Err == nil {
				m.Err = errors.New("pairing cancelled")
			}
			return m, tea.Quit
		case "enter":
			if m.state != statePairing {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pairAttemptMsg:
		m.attempts++
		if msg.err == nil {
			m.state = stateSuccess
			m.Username = msg.username
			return m, tea.Quit
		}

		// Device-level refusals (link button not pressed) are worth
		// retrying while the window is open; anything else is final.
		var failure *bridge.APIFailure
		if errors.As(msg.err, &failure) && time.Now().Before(m.deadline) {
			return m, tea.Tick(retryInterval, func(time.Time) tea.Msg {
				return pairRetryMsg{}
			})
		}

		m.state = stateFailure
		m.Err = msg.err
		return m, tea.Quit

	case pairRetryMsg:
		if time.Now().After(m.deadline) {
			m.state = stateFailure
			m.Err = errors.New("pairing window elapsed without a link button press")
			return m, tea.Quit
		}
		return m, m.attemptCmd()
	}

	return m, nil
}

// View implements tea.Model
func (m PairModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("Pairing with %s", m.bridge.Name()))

	var body string
	switch m.state {
	case statePairing:
		remaining := time.Until(m.deadline).Round(time.Second)
		body = fmt.Sprintf("%s %s\n\n%s",
			m.spinner.View(),
			promptStyle.Render("Press the link button on the bridge"),
			hintStyle.Render(fmt.Sprintf("attempt %d · %s left · q to cancel", m.attempts+1, remaining)),
		)
	case stateSuccess:
		body = successStyle.Render("✓ Paired") +
			fmt.Sprintf("\n\nUsername: %s\n\n", m.Username) +
			hintStyle.Render("The username was saved; press enter to finish")
	case stateFailure:
		body = errorStyle.Render("✗ Pairing failed") +
			fmt.Sprintf("\n\n%v\n\n", m.Err) +
			hintStyle.Render("press enter to close")
	}

	return boxStyle.Render(title + "\n" + body) + "\n"
}
