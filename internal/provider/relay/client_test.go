package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// relayServer runs script against each accepted connection.
func relayServer(t *testing.T, script func(t *testing.T, r *http.Request, conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		script(t, r, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func nextEvent(t *testing.T, c *Client) provider.Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestClientStartStreamsEventsAndStops(t *testing.T) {
	url := relayServer(t, func(t *testing.T, r *http.Request, conn *websocket.Conn) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		start := readFrame(t, conn)
		assert.Equal(t, "start", start["type"])
		assert.Equal(t, "asst-1", start["assistantId"])
		overrides := start["assistantOverrides"].(map[string]any)
		values := overrides["variableValues"].(map[string]any)
		assert.Equal(t, "Ada", values["firstName"])
		fns := start["functions"].([]any)
		assert.Len(t, fns, 1)

		send(t, conn, `{"type":"call-created","call":{"id":"call-42"}}`)
		send(t, conn, `{"type":"call-start","callId":"call-42"}`)
		send(t, conn, `{"type":"speech-start"}`)
		send(t, conn, `{"type":"volume-level","level":0.42}`)
		send(t, conn, `{"type":"speech-end"}`)

		stop := readFrame(t, conn)
		assert.Equal(t, "stop", stop["type"])
		send(t, conn, `{"type":"call-end"}`)
		_, _, _ = conn.ReadMessage()
	})

	c := New(Config{URL: url, APIKey: "secret"}, zerolog.Nop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	call, err := c.Start(ctx, "asst-1", provider.StartOptions{
		VariableValues: map[string]string{"firstName": "Ada"},
		Functions:      []provider.FunctionDef{{Name: "getTodos", Description: "list todos"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "call-42", call.ID)

	assert.Equal(t, provider.CallStarted{CallID: "call-42"}, nextEvent(t, c))
	assert.Equal(t, provider.SpeechStarted{}, nextEvent(t, c))
	assert.Equal(t, provider.VolumeLevel{Level: 42}, nextEvent(t, c))
	assert.Equal(t, provider.SpeechEnded{}, nextEvent(t, c))

	require.NoError(t, c.Stop(ctx))
	assert.Equal(t, provider.CallEnded{}, nextEvent(t, c))
}

func TestClientStartRejected(t *testing.T) {
	url := relayServer(t, func(t *testing.T, _ *http.Request, conn *websocket.Conn) {
		readFrame(t, conn)
		send(t, conn, `{"type":"error","error":"assistant not found"}`)
		_, _, _ = conn.ReadMessage()
	})

	c := New(Config{URL: url}, zerolog.Nop())
	defer c.Close()

	_, err := c.Start(context.Background(), "missing", provider.StartOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assistant not found")

	select {
	case ev := <-c.Events():
		t.Fatalf("start rejection should not be emitted as an event, got %#v", ev)
	default:
	}
}

func TestClientErrorFrameDuringCallIsEvent(t *testing.T) {
	url := relayServer(t, func(t *testing.T, _ *http.Request, conn *websocket.Conn) {
		readFrame(t, conn)
		send(t, conn, `{"type":"call-created","call":{"id":"c1"}}`)
		send(t, conn, `{"type":"error","error":"meeting ended"}`)
		_, _, _ = conn.ReadMessage()
	})

	c := New(Config{URL: url}, zerolog.Nop())
	defer c.Close()

	_, err := c.Start(context.Background(), "asst", provider.StartOptions{})
	require.NoError(t, err)
	assert.Equal(t, provider.Failed{Reason: "meeting ended"}, nextEvent(t, c))
}

func TestClientDialFailure(t *testing.T) {
	c := New(Config{URL: "ws://127.0.0.1:1/none", HandshakeTimeout: time.Second, DialAttempts: 2, DialBackoff: 5 * time.Millisecond}, zerolog.Nop())
	defer c.Close()

	_, err := c.Start(context.Background(), "asst", provider.StartOptions{})
	require.Error(t, err)
}

func TestClientDialRetriesUnavailableButNotUnauthorized(t *testing.T) {
	for _, tc := range []struct {
		status int
		hits   int32
	}{
		{status: http.StatusServiceUnavailable, hits: 3},
		{status: http.StatusUnauthorized, hits: 1},
	} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(tc.status)
		}))
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		c := New(Config{URL: url, DialAttempts: 3, DialBackoff: 5 * time.Millisecond}, zerolog.Nop())

		_, err := c.Start(context.Background(), "asst", provider.StartOptions{})
		require.Error(t, err, tc.status)
		assert.Equal(t, tc.hits, hits.Load(), tc.status)

		require.NoError(t, c.Close())
		srv.Close()
	}
}

func TestStopWithoutConnectionIsNoop(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	defer c.Close()
	assert.NoError(t, c.Stop(context.Background()))
}

func TestEmitDropsOnlySpeechAndVolumeWhenFull(t *testing.T) {
	c := New(Config{EventBuffer: 1}, zerolog.Nop())
	c.emit(provider.SpeechStarted{})
	c.emit(provider.SpeechEnded{})
	c.emit(provider.VolumeLevel{Level: 10})
	assert.Equal(t, uint64(2), c.Dropped())

	delivered := make(chan struct{})
	go func() {
		c.emit(provider.CallEnded{})
		close(delivered)
	}()
	assert.Equal(t, provider.SpeechStarted{}, nextEvent(t, c))
	assert.Equal(t, provider.CallEnded{}, nextEvent(t, c))
	<-delivered
	assert.Equal(t, uint64(2), c.Dropped())
	require.NoError(t, c.Close())
}

func TestCloseReleasesBlockedLifecycleEmit(t *testing.T) {
	c := New(Config{EventBuffer: 1}, zerolog.Nop())
	c.emit(provider.CallStarted{CallID: "c1"})

	c.readers.Add(1)
	go func() {
		defer c.readers.Done()
		c.emit(provider.Failed{Reason: "late"})
	}()
	require.NoError(t, c.Close())
	assert.Equal(t, provider.CallStarted{CallID: "c1"}, <-c.Events())
}

func TestClientDeliversLifecycleEventsBehindFullBuffer(t *testing.T) {
	url := relayServer(t, func(t *testing.T, _ *http.Request, conn *websocket.Conn) {
		readFrame(t, conn)
		send(t, conn, `{"type":"call-created","call":{"id":"c9"}}`)
		send(t, conn, `{"type":"volume-level","level":0.1}`)
		send(t, conn, `{"type":"volume-level","level":0.2}`)
		send(t, conn, `{"type":"call-start","callId":"c9"}`)
		send(t, conn, `{"type":"error","error":"line dropped"}`)
		_, _, _ = conn.ReadMessage()
	})

	c := New(Config{URL: url, EventBuffer: 2}, zerolog.Nop())
	defer c.Close()

	_, err := c.Start(context.Background(), "asst", provider.StartOptions{})
	require.NoError(t, err)
	// let the reader fill the buffer and block on call-start
	time.Sleep(100 * time.Millisecond)

	var names []string
	for range 4 {
		names = append(names, nextEvent(t, c).Name())
	}
	assert.Equal(t, []string{"volume-level", "volume-level", "call-start", "error"}, names)
	assert.Equal(t, uint64(0), c.Dropped())
}

func TestClientVolumeScale(t *testing.T) {
	url := relayServer(t, func(t *testing.T, _ *http.Request, conn *websocket.Conn) {
		readFrame(t, conn)
		send(t, conn, `{"type":"call-created","call":{"id":"c1"}}`)
		send(t, conn, `{"type":"volume-level","level":1}`)
		send(t, conn, `{"type":"volume-level","level":63}`)
		_, _, _ = conn.ReadMessage()
	})

	c := New(Config{URL: url, VolumeScale: 100}, zerolog.Nop())
	defer c.Close()

	_, err := c.Start(context.Background(), "asst", provider.StartOptions{})
	require.NoError(t, err)
	assert.Equal(t, provider.VolumeLevel{Level: 1}, nextEvent(t, c))
	assert.Equal(t, provider.VolumeLevel{Level: 63}, nextEvent(t, c))
}
