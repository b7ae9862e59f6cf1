package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/voxdash/internal/commands"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/storage"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		m.commandInput, _ = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	if m.deps.Store == nil || m.deps.Directory == nil {
		m.Status = StatusBar{Text: "store is not configured", IsError: true}
		return m
	}

	ctx := context.Background()
	st, dir := m.deps.Store, m.deps.Directory
	res, err := commands.Execute(cmd, commands.Handlers{
		Todo: func(a commands.TodoArgs) (commands.Result, error) {
			t, err := st.AddTodo(ctx, model.TodoFields{Title: a.Title, CreatedBy: dir.Creator()})
			if err != nil {
				return commands.Result{}, err
			}
			m.focusPane(PaneTodos)
			return commands.Result{Message: fmt.Sprintf("added todo %s: %s", shortID(t.ID), t.Title)}, nil
		},
		Remind: func(a commands.RemindArgs) (commands.Result, error) {
			r, err := st.AddReminder(ctx, model.ReminderFields{Text: a.Text, Importance: a.Importance, CreatedBy: dir.Creator()})
			if err != nil {
				return commands.Result{}, err
			}
			m.focusPane(PaneReminders)
			return commands.Result{Message: fmt.Sprintf("added %s reminder %s", r.Importance, shortID(r.ID))}, nil
		},
		Event: func(a commands.EventArgs) (commands.Result, error) {
			ev, err := st.AddEvent(ctx, model.EventFields{Title: a.Title, EventFrom: a.From, EventTo: a.To, CreatedBy: dir.Creator()})
			if err != nil {
				return commands.Result{}, err
			}
			m.focusPane(PaneCalendar)
			return commands.Result{Message: fmt.Sprintf("added event %s at %s", shortID(ev.ID), ev.EventFrom.Local().Format("Jan 2 15:04"))}, nil
		},
		Done: func(a commands.TargetArgs) (commands.Result, error) {
			if a.Kind != commands.KindTodo {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "only todos can be completed"}
			}
			id, err := st.TargetID(storage.KeyTodos, a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			if err := st.CompleteTodo(ctx, id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("completed todo %s", shortID(id))}, nil
		},
		Remove: func(a commands.TargetArgs) (commands.Result, error) {
			id, err := st.TargetID(collectionKey(a.Kind), a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			switch a.Kind {
			case commands.KindTodo:
				err = st.RemoveTodo(ctx, id)
			case commands.KindReminder:
				err = st.RemoveReminder(ctx, id)
			case commands.KindEvent:
				err = st.RemoveEvent(ctx, id)
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("removed %s %s", a.Kind, shortID(id))}, nil
		},
		Share: func(a commands.ShareArgs) (commands.Result, error) {
			id, err := st.TargetID(collectionKey(a.Kind), a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			switch a.Kind {
			case commands.KindTodo:
				err = st.ShareTodo(ctx, id, a.Email)
			case commands.KindReminder:
				err = st.ShareReminder(ctx, id, a.Email)
			case commands.KindEvent:
				err = st.ShareEvent(ctx, id, a.Email)
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("shared %s %s with %s", a.Kind, shortID(id), a.Email)}, nil
		},
		SignIn: func(a commands.SignInArgs) (commands.Result, error) {
			user, err := dir.SignIn(a.Email)
			if err != nil {
				return commands.Result{}, err
			}
			m.prefillIntake()
			return commands.Result{Message: fmt.Sprintf("signed in as %s", user.FullName())}, nil
		},
		SignOut: func() (commands.Result, error) {
			dir.ClearCurrent()
			for i := range m.intake {
				m.intake[i].SetValue("")
			}
			return commands.Result{Message: "signed out"}, nil
		},
		Unregister: func(a commands.UnregisterArgs) (commands.Result, error) {
			cur, signedIn := dir.Current()
			if err := dir.Unregister(a.Email); err != nil {
				return commands.Result{}, err
			}
			if signedIn && cur.Email == a.Email {
				for i := range m.intake {
					m.intake[i].SetValue("")
				}
			}
			return commands.Result{Message: fmt.Sprintf("unregistered %s", a.Email)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		return m
	}
	m.Status = StatusBar{Text: res.Message}
	return m
}

func (m *Model) focusPane(p Pane) {
	m.CurrentView = ViewDashboard
	m.ActivePane = p
}

func collectionKey(k commands.Kind) string {
	switch k {
	case commands.KindReminder:
		return storage.KeyReminders
	case commands.KindEvent:
		return storage.KeyCalendarEvents
	default:
		return storage.KeyTodos
	}
}
