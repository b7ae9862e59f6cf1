package update

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m Model) fail(err error) Model {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.log.Warn().Err(err).Msg("action failed")
	return m
}
