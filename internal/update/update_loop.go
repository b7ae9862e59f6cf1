package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/voxdash/internal/flow"
	"github.com/sandeepkv93/voxdash/internal/session"
	"github.com/sandeepkv93/voxdash/internal/views"
)

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.deps.Session != nil {
		cmds = append(cmds, waitForSessionUpdateCmd(m.deps.Session.Updates()))
	}
	if m.deps.Alerts != nil {
		cmds = append(cmds, waitForAlertCmd(m.deps.Alerts.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.waiting() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case SessionUpdateMsg:
		prev := m.Voice.Session
		m.Voice.Session = typed.Snapshot
		if typed.Snapshot.Err != nil && typed.Snapshot.Err != prev.Err {
			m.LastError = typed.Snapshot.Err
			m.Status = StatusBar{Text: typed.Snapshot.Err.Error(), IsError: true}
			m.notify("Call", typed.Snapshot.Err.Error(), "error")
		} else if prev.State != typed.Snapshot.State {
			m.log.Debug().Str("from", prev.State.String()).Str("to", typed.Snapshot.State.String()).Msg("session state")
		}
		var cmds []tea.Cmd
		if m.deps.Session != nil {
			cmds = append(cmds, waitForSessionUpdateCmd(m.deps.Session.Updates()))
		}
		if typed.Snapshot.State == session.Summarizing && prev.State != session.Summarizing {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)
	case CallStartedMsg:
		m.Voice.Busy = false
		m.refreshSession()
		if typed.Err != nil {
			return m.fail(typed.Err), nil
		}
		m.Status = StatusBar{Text: "call started"}
		return m, nil
	case CallSummarizedMsg:
		m.Voice.Busy = false
		m.refreshSession()
		if typed.Err != nil {
			return m.fail(typed.Err), nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("call %s summarized", shortID(typed.Result.ID))}
		m.notify("Call", "summary ready", "info")
		return m, nil
	case AlertDueMsg:
		m.applyAlert(typed.Alert, time.Now())
		if m.deps.Alerts != nil {
			return m, waitForAlertCmd(m.deps.Alerts.C())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Palette.Active {
		if msg.String() == m.Keys.Help {
			m.HelpVisible = !m.HelpVisible
			return m, nil
		}
		return m.handlePaletteKey(msg), nil
	}

	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}

	// The intake form owns the keyboard so digits and letters reach the inputs.
	if m.CurrentView == ViewVoice && m.screen() == flow.IntakeForm {
		if keyStr == "esc" {
			m.CurrentView = ViewDashboard
			return m, nil
		}
		return m.handleVoiceKey(msg)
	}

	switch keyStr {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.Focus()
		m.commandInput.SetValue("")
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Dashboard:
		m.CurrentView = ViewDashboard
		return m, nil
	case m.Keys.Voice:
		m.CurrentView = ViewVoice
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
		return m, nil
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	if m.CurrentView == ViewVoice {
		return m.handleVoiceKey(msg)
	}
	return m.handleDashboardKey(msg), nil
}

func (m *Model) refreshSession() {
	if m.deps.Session != nil {
		m.Voice.Session = m.deps.Session.Snapshot()
	}
}

func (m Model) waiting() bool {
	return m.Voice.Busy || m.Voice.Session.State == session.Starting || m.Voice.Session.State == session.Summarizing
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	var leftPane string
	switch m.CurrentView {
	case ViewVoice:
		leftPane = m.renderVoiceView()
	default:
		leftPane = m.renderDashboardView()
	}
	rightPane := strings.TrimSpace(m.renderCommandPalette() + "\n" + m.renderHelpIfVisible())

	notificationView := strings.TrimSpace(strings.Join([]string{
		m.renderAlertLine(),
		strings.TrimSpace(m.renderNotificationsView()),
	}, "\n"))

	user := "signed out"
	if m.deps.Directory != nil {
		if u, ok := m.deps.Directory.Current(); ok {
			user = u.Email
		}
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("voxdash | view: %s | session: %s | %s", m.CurrentView, m.Voice.Session.State, user),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		IsError:      m.Status.IsError,
		Notification: notificationView,
		Footer:       fmt.Sprintf("keys: %s dashboard | %s voice | / cmd | %s help | %s quit", m.Keys.Dashboard, m.Keys.Voice, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewDashboard, ViewVoice:
		return true
	default:
		return false
	}
}
