package views

import (
	"fmt"
	"strings"
)

type TodoRow struct {
	ID         string
	Title      string
	Completed  bool
	CreatedBy  string
	SharedWith []string
}

type ReminderRow struct {
	ID         string
	Text       string
	Importance string
	CreatedBy  string
	SharedWith []string
}

type EventRow struct {
	ID         string
	Title      string
	From       string
	To         string
	SharedWith []string
}

type DashboardData struct {
	Pane      string
	Todos     []TodoRow
	Reminders []ReminderRow
	Events    []EventRow
	TableView string
	Cursor    int
}

type IntakeFormData struct {
	Fields   []string
	Starting bool
	Spinner  string
}

type ActiveCallData struct {
	CallID      string
	IsSpeaking  bool
	VolumeLevel uint8
	VolumeView  string
	CallerName  string
	CallerEmail string
}

type SummaryData struct {
	Pending     bool
	Spinner     string
	CallID      string
	Qualified   bool
	SummaryView string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shared(with []string) string {
	if len(with) == 0 {
		return ""
	}
	return mutedStyle.Render(" ↗ " + strings.Join(with, ","))
}

func cursorMark(active bool) string {
	if active {
		return ">"
	}
	return " "
}

func RenderTodoPanel(data DashboardData, active bool) string {
	var b strings.Builder
	b.WriteString(heading("todos", active))
	if len(data.Todos) == 0 {
		b.WriteString(mutedStyle.Render("  (no todos)"))
		return b.String()
	}
	for i, t := range data.Todos {
		box := "[ ]"
		title := t.Title
		if t.Completed {
			box = "[x]"
			title = mutedStyle.Render(title)
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s%s\n", cursorMark(active && i == data.Cursor), shortID(t.ID), box, title, shared(t.SharedWith)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func importanceBadge(imp string) string {
	switch imp {
	case "high":
		return highStyle.Render("[HIGH]")
	case "medium":
		return mediumStyle.Render("[MED]")
	default:
		return mutedStyle.Render("[LOW]")
	}
}

func RenderReminderPanel(data DashboardData, active bool) string {
	var b strings.Builder
	b.WriteString(heading("reminders", active))
	if len(data.Reminders) == 0 {
		b.WriteString(mutedStyle.Render("  (no reminders)"))
		return b.String()
	}
	for i, r := range data.Reminders {
		b.WriteString(fmt.Sprintf("%s %s %s %s%s\n", cursorMark(active && i == data.Cursor), shortID(r.ID), importanceBadge(r.Importance), r.Text, shared(r.SharedWith)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCalendarPanel(data DashboardData, active bool) string {
	var b strings.Builder
	b.WriteString(heading("calendar", active))
	if len(data.Events) == 0 {
		b.WriteString(mutedStyle.Render("  (agenda empty)"))
		return b.String()
	}
	if data.TableView != "" {
		b.WriteString(data.TableView)
		return b.String()
	}
	for i, e := range data.Events {
		b.WriteString(fmt.Sprintf("%s %s %s → %s %s%s\n", cursorMark(active && i == data.Cursor), shortID(e.ID), e.From, e.To, e.Title, shared(e.SharedWith)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func heading(name string, active bool) string {
	if active {
		return headerStyle.Render(name+":") + "\n"
	}
	return name + ":\n"
}

func RenderIntakeForm(data IntakeFormData) string {
	var b strings.Builder
	b.WriteString("voice assistant:\n")
	b.WriteString("tell the assistant who you are, then press enter to call\n\n")
	for _, f := range data.Fields {
		b.WriteString(f + "\n")
	}
	if data.Starting {
		b.WriteString(fmt.Sprintf("\n%s connecting...", data.Spinner))
	} else {
		b.WriteString("\nactions: [tab]next field [enter]start call")
	}
	return strings.TrimSpace(b.String())
}

func RenderActiveCall(data ActiveCallData) string {
	var b strings.Builder
	b.WriteString("call in progress:\n")
	if data.CallerName != "" {
		b.WriteString(fmt.Sprintf("caller: %s <%s>\n", data.CallerName, data.CallerEmail))
	}
	if data.CallID != "" {
		b.WriteString(mutedStyle.Render("call: "+data.CallID) + "\n")
	}
	if data.IsSpeaking {
		b.WriteString(goodStyle.Render("● assistant speaking") + "\n")
	} else {
		b.WriteString(mutedStyle.Render("○ listening") + "\n")
	}
	b.WriteString(fmt.Sprintf("volume: %s %3d\n", data.VolumeView, data.VolumeLevel))
	b.WriteString("\nactions: [e]end call")
	return b.String()
}

func RenderSummary(data SummaryData) string {
	var b strings.Builder
	b.WriteString("call summary:\n")
	if data.Pending {
		b.WriteString(fmt.Sprintf("%s fetching call details...", data.Spinner))
		return b.String()
	}
	if data.CallID != "" {
		b.WriteString(mutedStyle.Render("call: "+data.CallID) + "\n")
	}
	if data.Qualified {
		b.WriteString(goodStyle.Render("✔ qualified lead") + "\n")
	} else {
		b.WriteString(mutedStyle.Render("✘ not qualified") + "\n")
	}
	if data.SummaryView == "" {
		b.WriteString("\nNo summary available\n")
	} else {
		b.WriteString("\n" + data.SummaryView + "\n")
	}
	b.WriteString("\nactions: [n]new call")
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
