package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/voxdash/internal/views"
)

const notificationLimit = 40

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m Model) renderAlertLine() string {
	if len(m.AlertLog) == 0 {
		return ""
	}
	last := m.AlertLog[len(m.AlertLog)-1]
	return fmt.Sprintf("last-alert: %s @ %s", last.Title, last.FireAt.Local().Format("15:04:05"))
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now().UTC(),
	})
	if len(m.Notifications) > notificationLimit {
		m.Notifications = m.Notifications[len(m.Notifications)-notificationLimit:]
	}
}
