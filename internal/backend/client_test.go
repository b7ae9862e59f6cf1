package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path string
	call toolCall
	args map[string]any
}

func toolServer(t *testing.T, reply func(c captured) (int, string)) (*httptest.Server, *[]captured) {
	t.Helper()
	var seen []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		require.Len(t, env.Message.ToolCalls, 1)
		c := captured{path: r.URL.Path, call: env.Message.ToolCalls[0]}
		require.NoError(t, json.Unmarshal([]byte(c.call.Function.Arguments), &c.args))
		seen = append(seen, c)

		status, body := reply(c)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(url string) *Client {
	c := New(url, time.Second, zerolog.Nop())
	c.newID = func() string { return "tc-1" }
	return c
}

func TestInvokeSendsToolCallEnvelope(t *testing.T) {
	srv, seen := toolServer(t, func(c captured) (int, string) {
		return http.StatusOK, `{"results":[{"toolCallId":"tc-1","result":"success"}]}`
	})

	raw, err := newTestClient(srv.URL).Invoke(context.Background(), ShareTodo, map[string]any{"todo_id": 3, "user_email": "jane@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `"success"`, string(raw))

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "/share_todo/", got.path)
	assert.Equal(t, "tc-1", got.call.ID)
	assert.Equal(t, "shareTodo", got.call.Function.Name)
	assert.Equal(t, "jane@example.com", got.args["user_email"])
	assert.EqualValues(t, 3, got.args["todo_id"])
}

func TestInvokeEveryOperationHitsItsPath(t *testing.T) {
	srv, seen := toolServer(t, func(c captured) (int, string) {
		return http.StatusOK, `{"results":[{"toolCallId":"tc-1","result":null}]}`
	})
	c := newTestClient(srv.URL)
	for _, op := range Operations() {
		_, err := c.Invoke(context.Background(), op, nil)
		require.NoError(t, err, op)
	}
	require.Len(t, *seen, len(Operations()))
	for i, op := range Operations() {
		assert.Equal(t, op.Path(), (*seen)[i].path)
		assert.Equal(t, string(op), (*seen)[i].call.Function.Name)
	}
}

func TestInvokeUnknownOperation(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Invoke(context.Background(), Operation("dropTables"), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestInvokeFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"detail":"Missing user_email"}`},
		{name: "not found", status: http.StatusNotFound, body: `{"detail":"Todo not found"}`},
		{name: "empty results", status: http.StatusOK, body: `{"results":[]}`, want: ErrEmptyResults},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := toolServer(t, func(captured) (int, string) { return tc.status, tc.body })
			_, err := newTestClient(srv.URL).Invoke(context.Background(), GetTodos, map[string]any{"user_email": "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrTransport)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestListTodosDecodesRows(t *testing.T) {
	srv, seen := toolServer(t, func(captured) (int, string) {
		return http.StatusOK, `{"results":[{"toolCallId":"tc-1","result":[
			{"id":1,"title":"Buy milk","description":null,"completed":false,"created_by":"john@example.com","created_at":"2024-03-01T10:00:00","shared_with":["jane@example.com"]}
		]}]}`
	})

	todos, err := newTestClient(srv.URL).ListTodos(context.Background(), "john@example.com")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "Buy milk", todos[0].Title)
	assert.Nil(t, todos[0].Description)
	assert.Equal(t, []string{"jane@example.com"}, todos[0].SharedWith)
	assert.Equal(t, "john@example.com", (*seen)[0].args["user_email"])
}

func TestListRemindersAndCalendar(t *testing.T) {
	srv, _ := toolServer(t, func(c captured) (int, string) {
		if c.call.Function.Name == string(GetReminders) {
			return http.StatusOK, `{"results":[{"toolCallId":"tc-1","result":[{"id":2,"reminder_text":"Call mom","importance":"high","created_by":"a","created_at":"x","shared_with":[]}]}]}`
		}
		return http.StatusOK, `{"results":[{"toolCallId":"tc-1","result":[{"id":5,"title":"Standup","event_from":"2024-03-01T09:00:00","event_to":"2024-03-01T09:15:00","created_by":"a","created_at":"x","shared_with":[]}]}]}`
	})
	c := newTestClient(srv.URL)

	reminders, err := c.ListReminders(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "Call mom", reminders[0].Text)
	assert.Equal(t, "high", reminders[0].Importance)

	entries, err := c.ListCalendarEntries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-03-01T09:15:00", entries[0].EventTo)
}

func TestFunctionDefsCoverOperations(t *testing.T) {
	defs := FunctionDefs()
	require.Len(t, defs, len(Operations()))
	byName := map[string]map[string]any{}
	for _, d := range defs {
		assert.NotEmpty(t, d.Description)
		byName[d.Name] = d.Parameters
	}
	share := byName["shareCalendarEntry"]
	require.NotNil(t, share)
	assert.Equal(t, []string{"event_id", "user_email"}, share["required"])
	_, hasRequired := byName["getReminders"]["required"]
	assert.False(t, hasRequired)
}

func TestLookup(t *testing.T) {
	op, ok := Lookup("addReminder")
	assert.True(t, ok)
	assert.Equal(t, "/add_reminder/", op.Path())
	_, ok = Lookup("nope")
	assert.False(t, ok)
}
