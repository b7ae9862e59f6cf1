package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/voxdash/internal/scheduler"
)

const alertLogLimit = 20

func waitForAlertCmd(ch <-chan scheduler.Alert) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return nil
		}
		return AlertDueMsg{Alert: a}
	}
}

func (m *Model) applyAlert(a scheduler.Alert, now time.Time) {
	m.AlertLog = append(m.AlertLog, a)
	if len(m.AlertLog) > alertLogLimit {
		m.AlertLog = m.AlertLog[len(m.AlertLog)-alertLogLimit:]
	}
	in := a.StartsAt.Sub(now).Round(time.Minute)
	text := fmt.Sprintf("%s starts at %s", a.Title, a.StartsAt.Local().Format("15:04"))
	if in > 0 {
		text = fmt.Sprintf("%s starts in %s", a.Title, in)
	}
	m.Status = StatusBar{Text: text}
	m.notify("Upcoming event", text, "info")
}
