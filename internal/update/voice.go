package update

import (
	"context"
	"errors"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/voxdash/internal/flow"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/session"
	"github.com/sandeepkv93/voxdash/internal/views"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

var errNoSession = errors.New("voice session is not configured")

// screen is what the voice view shows for the current controller state.
func (m Model) screen() flow.Screen {
	hasResult := false
	if m.deps.Directory != nil {
		_, hasResult = m.deps.Directory.CallResult()
	}
	return flow.Select(m.Voice.Session.State, hasResult)
}

func (m Model) handleVoiceKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.screen() {
	case flow.IntakeForm:
		return m.handleIntakeKey(msg)
	case flow.ActiveCall:
		if msg.String() == "e" && !m.Voice.Busy {
			m.Voice.Busy = true
			m.Status = StatusBar{Text: "ending call"}
			return m, tea.Batch(m.stopCallCmd(), m.spinner.Tick)
		}
	case flow.Summary:
		if msg.String() == "n" && m.Voice.Session.State == session.Idle {
			m.deps.Directory.ClearCallResult()
			m.Status = StatusBar{Text: "ready for a new call"}
		}
	}
	return m, nil
}

func (m Model) handleIntakeKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Voice.Busy || m.Voice.Session.State == session.Starting {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down":
		m.focusField((m.Voice.FocusField + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.focusField((m.Voice.FocusField + fieldCount - 1) % fieldCount)
		return m, nil
	case "enter":
		id, err := m.identity()
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		if m.deps.Session == nil {
			return m.fail(errNoSession), nil
		}
		m.deps.Directory.SetCurrent(model.User{FirstName: id.FirstName, LastName: id.LastName, Email: id.Email, Phone: id.Phone})
		m.Voice.Busy = true
		m.Status = StatusBar{Text: "starting call"}
		return m, tea.Batch(m.startCallCmd(id), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.intake[m.Voice.FocusField], cmd = m.intake[m.Voice.FocusField].Update(msg)
	return m, cmd
}

func (m *Model) focusField(idx int) {
	m.intake[m.Voice.FocusField].Blur()
	m.Voice.FocusField = idx
	m.intake[idx].Focus()
}

func (m Model) identity() (session.Identity, error) {
	id := session.Identity{
		FirstName: strings.TrimSpace(m.intake[fieldFirstName].Value()),
		LastName:  strings.TrimSpace(m.intake[fieldLastName].Value()),
		Email:     strings.TrimSpace(m.intake[fieldEmail].Value()),
		Phone:     strings.TrimSpace(m.intake[fieldPhone].Value()),
	}
	switch {
	case id.FirstName == "":
		return id, errors.New("first name is required")
	case id.LastName == "":
		return id, errors.New("last name is required")
	case id.Email == "":
		return id, errors.New("email is required")
	case !emailPattern.MatchString(id.Email):
		return id, errors.New("email is invalid")
	case id.Phone == "":
		return id, errors.New("phone number is required")
	}
	return id, nil
}

func (m Model) startCallCmd(id session.Identity) tea.Cmd {
	sess, timeout := m.deps.Session, m.deps.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return CallStartedMsg{Err: sess.Start(ctx, id)}
	}
}

func (m Model) stopCallCmd() tea.Cmd {
	sess, timeout := m.deps.Session, m.deps.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := sess.Stop(ctx)
		return CallSummarizedMsg{Result: res, Err: err}
	}
}

func waitForSessionUpdateCmd(ch <-chan session.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SessionUpdateMsg{Snapshot: snap}
	}
}

func (m Model) renderVoiceView() string {
	switch m.screen() {
	case flow.ActiveCall:
		snap := m.Voice.Session
		data := views.ActiveCallData{
			CallID:      snap.CallID,
			IsSpeaking:  snap.IsSpeaking,
			VolumeLevel: snap.VolumeLevel,
			VolumeView:  m.volumeBar.ViewAs(float64(snap.VolumeLevel) / 100),
		}
		if user, ok := m.deps.Directory.Current(); ok {
			data.CallerName = user.FullName()
			data.CallerEmail = user.Email
		}
		return views.RenderActiveCall(data)
	case flow.Summary:
		data := views.SummaryData{Spinner: m.spinner.View()}
		res, ok := m.deps.Directory.CallResult()
		if m.Voice.Session.State == session.Summarizing || !ok {
			data.Pending = true
			return views.RenderSummary(data)
		}
		data.CallID = res.ID
		data.Qualified = res.Analysis.IsQualified()
		data.SummaryView = views.RenderMarkdown(res.Summary, 56)
		return views.RenderSummary(data)
	default:
		fields := make([]string, len(m.intake))
		for i, in := range m.intake {
			fields[i] = in.View()
		}
		return views.RenderIntakeForm(views.IntakeFormData{
			Fields:   fields,
			Starting: m.Voice.Busy || m.Voice.Session.State == session.Starting,
			Spinner:  m.spinner.View(),
		})
	}
}
