// Package calls fetches the post-call summary for a finished voice call.
package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/model"
)

const op = "calls.details"

type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c, log: logger.With().Str("component", "calls").Logger()}
}

// CallDetails makes exactly one request; failures are reported, not retried.
func (c *Client) CallDetails(ctx context.Context, callID string) (model.CallResult, error) {
	if callID == "" {
		return model.CallResult{}, apperr.NotFound(op, fmt.Errorf("no call id"))
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("call_id", callID).
		Get("/call-details")
	if err != nil {
		return model.CallResult{}, apperr.Transport(op, fmt.Errorf("request: %w", err))
	}
	if resp.IsError() {
		c.log.Warn().Str("call_id", callID).Int("status", resp.StatusCode()).Msg("call details rejected")
		return model.CallResult{}, apperr.Transport(op, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	var result model.CallResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return model.CallResult{}, apperr.Transport(op, fmt.Errorf("decode response: %w", err))
	}
	if result.ID == "" {
		result.ID = callID
	}
	result.Raw = append(json.RawMessage(nil), resp.Body()...)
	c.log.Debug().Str("call_id", callID).Bool("qualified", result.Analysis.IsQualified()).Msg("call details fetched")
	return result, nil
}
