package update

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/views"
)

func (m Model) handleDashboardKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "tab", "right", "l":
		m.cyclePane(1)
	case "shift+tab", "left", "h":
		m.cyclePane(-1)
	case "up", "k":
		if m.Cursors[m.ActivePane] > 0 {
			m.Cursors[m.ActivePane]--
		}
	case "down", "j":
		if m.Cursors[m.ActivePane] < m.paneLen(m.ActivePane)-1 {
			m.Cursors[m.ActivePane]++
		}
	case "x", " ":
		m = m.completeSelected()
	case "d", "delete":
		m = m.removeSelected()
	}
	return m
}

func (m *Model) cyclePane(delta int) {
	idx := 0
	for i, p := range paneOrder {
		if p == m.ActivePane {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(paneOrder)) % len(paneOrder)
	m.ActivePane = paneOrder[idx]
}

func (m Model) paneLen(p Pane) int {
	if m.deps.Store == nil {
		return 0
	}
	switch p {
	case PaneTodos:
		return len(m.deps.Store.Todos())
	case PaneReminders:
		return len(m.deps.Store.Reminders())
	case PaneCalendar:
		return len(m.deps.Store.Events())
	default:
		return 0
	}
}

func (m *Model) clampCursors() {
	for _, p := range paneOrder {
		n := m.paneLen(p)
		switch {
		case n == 0:
			m.Cursors[p] = 0
		case m.Cursors[p] >= n:
			m.Cursors[p] = n - 1
		case m.Cursors[p] < 0:
			m.Cursors[p] = 0
		}
	}
}

// selectedID is the id under the cursor of the active pane.
func (m Model) selectedID() (string, bool) {
	if m.deps.Store == nil {
		return "", false
	}
	cur := m.Cursors[m.ActivePane]
	switch m.ActivePane {
	case PaneTodos:
		items := m.deps.Store.Todos()
		if cur < len(items) {
			return items[cur].ID, true
		}
	case PaneReminders:
		items := m.deps.Store.Reminders()
		if cur < len(items) {
			return items[cur].ID, true
		}
	case PaneCalendar:
		items := m.deps.Store.Events()
		if cur < len(items) {
			return items[cur].ID, true
		}
	}
	return "", false
}

func (m Model) completeSelected() Model {
	if m.ActivePane != PaneTodos {
		m.Status = StatusBar{Text: "only todos can be completed", IsError: true}
		return m
	}
	id, ok := m.selectedID()
	if !ok {
		return m
	}
	if err := m.deps.Store.CompleteTodo(context.Background(), id); err != nil {
		return m.fail(err)
	}
	m.Status = StatusBar{Text: fmt.Sprintf("completed todo %s", shortID(id))}
	return m
}

func (m Model) removeSelected() Model {
	id, ok := m.selectedID()
	if !ok {
		return m
	}
	ctx := context.Background()
	var err error
	switch m.ActivePane {
	case PaneTodos:
		err = m.deps.Store.RemoveTodo(ctx, id)
	case PaneReminders:
		err = m.deps.Store.RemoveReminder(ctx, id)
	case PaneCalendar:
		err = m.deps.Store.RemoveEvent(ctx, id)
	}
	if err != nil {
		return m.fail(err)
	}
	m.Status = StatusBar{Text: fmt.Sprintf("removed %s %s", m.ActivePane, shortID(id))}
	return m
}

func (m Model) renderDashboardView() string {
	if m.deps.Store == nil {
		return "dashboard:\n(no store configured)"
	}
	data := views.DashboardData{Pane: string(m.ActivePane)}
	for _, t := range m.deps.Store.Todos() {
		data.Todos = append(data.Todos, views.TodoRow{ID: t.ID, Title: t.Title, Completed: t.Completed, CreatedBy: t.CreatedBy, SharedWith: t.SharedWith})
	}
	for _, r := range m.deps.Store.Reminders() {
		data.Reminders = append(data.Reminders, views.ReminderRow{ID: r.ID, Text: r.Text, Importance: string(r.Importance), CreatedBy: r.CreatedBy, SharedWith: r.SharedWith})
	}
	for _, e := range m.deps.Store.Events() {
		data.Events = append(data.Events, eventRow(e))
	}
	data.TableView = m.calendarTable.View()

	todos := data
	todos.Cursor = m.Cursors[PaneTodos]
	reminders := data
	reminders.Cursor = m.Cursors[PaneReminders]
	calendar := data
	calendar.Cursor = m.Cursors[PaneCalendar]

	return views.RenderTodoPanel(todos, m.ActivePane == PaneTodos) + "\n\n" +
		views.RenderReminderPanel(reminders, m.ActivePane == PaneReminders) + "\n\n" +
		views.RenderCalendarPanel(calendar, m.ActivePane == PaneCalendar)
}

func eventRow(e model.CalendarEvent) views.EventRow {
	return views.EventRow{
		ID:         e.ID,
		Title:      e.Title,
		From:       e.EventFrom.Local().Format("2006-01-02 15:04"),
		To:         e.EventTo.Local().Format("15:04"),
		SharedWith: e.SharedWith,
	}
}
