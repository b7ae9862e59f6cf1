// Package backend is a client for the tool-call style persistence backend
// the voice assistant writes through. Every request wraps a single function
// call in a message envelope and reads the matching result back.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/apperr"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrEmptyResults     = errors.New("response carried no results")
)

type Client struct {
	http  *resty.Client
	log   zerolog.Logger
	newID func() string
}

func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &Client{
		http:  c,
		log:   logger.With().Str("component", "backend").Logger(),
		newID: uuid.NewString,
	}
}

type toolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Function toolFunction `json:"function"`
}

type envelope struct {
	Message struct {
		ToolCalls []toolCall `json:"toolCalls"`
	} `json:"message"`
}

type toolResult struct {
	ToolCallID string          `json:"toolCallId"`
	Result     json.RawMessage `json:"result"`
}

type resultsBody struct {
	Results []toolResult `json:"results"`
}

// Invoke runs one operation and returns its raw result payload.
func (c *Client) Invoke(ctx context.Context, op Operation, args map[string]any) (json.RawMessage, error) {
	opName := "backend." + string(op)
	entry, ok := operations[op]
	if !ok {
		return nil, apperr.Validation("backend.invoke", fmt.Errorf("%w: %q", ErrUnknownOperation, op))
	}
	if args == nil {
		args = map[string]any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, apperr.Validation(opName, fmt.Errorf("encode arguments: %w", err))
	}

	var body envelope
	call := toolCall{ID: c.newID(), Function: toolFunction{Name: string(op), Arguments: string(encoded)}}
	body.Message.ToolCalls = []toolCall{call}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&body).
		Post(entry.path)
	if err != nil {
		return nil, apperr.Transport(opName, fmt.Errorf("request: %w", err))
	}
	if resp.IsError() {
		c.log.Warn().Str("operation", string(op)).Int("status", resp.StatusCode()).Msg("backend rejected tool call")
		return nil, apperr.Transport(opName, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	var out resultsBody
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, apperr.Transport(opName, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Results) == 0 {
		return nil, apperr.Transport(opName, ErrEmptyResults)
	}
	result := out.Results[0]
	for _, r := range out.Results {
		if r.ToolCallID == call.ID {
			result = r
			break
		}
	}
	c.log.Debug().Str("operation", string(op)).Str("tool_call_id", call.ID).Msg("tool call completed")
	return result.Result, nil
}

// RemoteTodo mirrors the backend's todo rows. Timestamps are kept as the
// backend formats them.
type RemoteTodo struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Completed   bool     `json:"completed"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   string   `json:"created_at"`
	SharedWith  []string `json:"shared_with"`
}

type RemoteReminder struct {
	ID         int      `json:"id"`
	Text       string   `json:"reminder_text"`
	Importance string   `json:"importance"`
	CreatedBy  string   `json:"created_by"`
	CreatedAt  string   `json:"created_at"`
	SharedWith []string `json:"shared_with"`
}

type RemoteCalendarEntry struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	EventFrom   string   `json:"event_from"`
	EventTo     string   `json:"event_to"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   string   `json:"created_at"`
	SharedWith  []string `json:"shared_with"`
}

func (c *Client) ListTodos(ctx context.Context, userEmail string) ([]RemoteTodo, error) {
	return list[RemoteTodo](ctx, c, GetTodos, userEmail)
}

func (c *Client) ListReminders(ctx context.Context, userEmail string) ([]RemoteReminder, error) {
	return list[RemoteReminder](ctx, c, GetReminders, userEmail)
}

func (c *Client) ListCalendarEntries(ctx context.Context, userEmail string) ([]RemoteCalendarEntry, error) {
	return list[RemoteCalendarEntry](ctx, c, GetCalendarEntries, userEmail)
}

func list[T any](ctx context.Context, c *Client, op Operation, userEmail string) ([]T, error) {
	args := map[string]any{}
	if userEmail != "" {
		args["user_email"] = userEmail
	}
	raw, err := c.Invoke(ctx, op, args)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Transport("backend."+string(op), fmt.Errorf("decode result: %w", err))
	}
	return items, nil
}
