package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/directory"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/scheduler"
	"github.com/sandeepkv93/voxdash/internal/session"
	"github.com/sandeepkv93/voxdash/internal/store"
)

type View string

const (
	ViewDashboard View = "Dashboard"
	ViewVoice     View = "Voice"
)

type Pane string

const (
	PaneTodos     Pane = "todos"
	PaneReminders Pane = "reminders"
	PaneCalendar  Pane = "calendar"
)

var paneOrder = []Pane{PaneTodos, PaneReminders, PaneCalendar}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Dashboard string
	Voice     string
	Help      string
	Quit      string
}

// Session is the part of the voice session controller the TUI drives.
type Session interface {
	Start(ctx context.Context, id session.Identity) error
	Stop(ctx context.Context) (model.CallResult, error)
	Reset()
	Snapshot() session.Snapshot
	Updates() <-chan session.Snapshot
}

type Deps struct {
	Store     *store.Store
	Directory *directory.Directory
	Session   Session
	Alerts    *scheduler.Engine
	Log       zerolog.Logger
	// CallTimeout bounds provider start/stop and the summary fetch.
	CallTimeout time.Duration
}

type Model struct {
	CurrentView   View
	ActivePane    Pane
	Cursors       map[Pane]int
	Palette       CommandPaletteState
	HelpVisible   bool
	Notifications []Notification
	AlertLog      []scheduler.Alert
	Voice         VoiceState
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error

	deps Deps
	log  zerolog.Logger

	intake        []textinput.Model
	commandInput  textinput.Model
	calendarTable table.Model
	volumeBar     progress.Model
	spinner       spinner.Model
	helpModel     help.Model
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// VoiceState mirrors the controller snapshot plus what only the UI tracks.
type VoiceState struct {
	Session    session.Snapshot
	FocusField int
	Busy       bool
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type SessionUpdateMsg struct {
	Snapshot session.Snapshot
}

type CallStartedMsg struct {
	Err error
}

type CallSummarizedMsg struct {
	Result model.CallResult
	Err    error
}

type AlertDueMsg struct {
	Alert scheduler.Alert
}

const (
	fieldFirstName = iota
	fieldLastName
	fieldEmail
	fieldPhone
	fieldCount
)

func NewModel(deps Deps) Model {
	if deps.CallTimeout <= 0 {
		deps.CallTimeout = 30 * time.Second
	}
	m := Model{
		CurrentView: ViewDashboard,
		ActivePane:  PaneTodos,
		Cursors:     map[Pane]int{},
		Keys: GlobalKeyMap{
			Dashboard: "1",
			Voice:     "2",
			Help:      "?",
			Quit:      "q",
		},
		deps: deps,
		log:  deps.Log.With().Str("component", "tui").Logger(),
	}
	if deps.Session != nil {
		m.Voice.Session = deps.Session.Snapshot()
	}
	m.initBubbleComponents()
	m.prefillIntake()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	placeholders := [fieldCount]string{"First name", "Last name", "Email", "Phone"}
	prompts := [fieldCount]string{"first> ", "last>  ", "email> ", "phone> "}
	m.intake = make([]textinput.Model, fieldCount)
	for i := range m.intake {
		in := textinput.New()
		in.Prompt = prompts[i]
		in.Placeholder = placeholders[i]
		in.CharLimit = 128
		in.Width = 40
		m.intake[i] = in
	}
	m.intake[fieldFirstName].Focus()

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	cols := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "From", Width: 16},
		{Title: "To", Width: 5},
		{Title: "Title", Width: 16},
	}
	m.calendarTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithHeight(8))

	m.volumeBar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(32))

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

// prefillIntake seeds the form from the signed-in user, if any.
func (m *Model) prefillIntake() {
	if m.deps.Directory == nil {
		return
	}
	user, ok := m.deps.Directory.Current()
	if !ok {
		return
	}
	m.intake[fieldFirstName].SetValue(user.FirstName)
	m.intake[fieldLastName].SetValue(user.LastName)
	m.intake[fieldEmail].SetValue(user.Email)
	m.intake[fieldPhone].SetValue(user.Phone)
}

func (m *Model) syncBubbleData() {
	if m.deps.Store == nil {
		return
	}
	events := m.deps.Store.Events()
	rows := make([]table.Row, 0, len(events))
	for _, ev := range events {
		rows = append(rows, table.Row{
			shortID(ev.ID),
			ev.EventFrom.Local().Format("2006-01-02 15:04"),
			ev.EventTo.Local().Format("15:04"),
			ev.Title,
		})
	}
	m.calendarTable.SetRows(rows)
	if m.ActivePane == PaneCalendar {
		m.calendarTable.Focus()
	} else {
		m.calendarTable.Blur()
	}
	m.clampCursors()
	m.calendarTable.SetCursor(m.Cursors[PaneCalendar])
}
