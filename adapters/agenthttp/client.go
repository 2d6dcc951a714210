// Package agenthttp implements the agent transport over HTTP+JSON. The
// agent under evaluation exposes two endpoints: POST /task collects a
// submission, POST /challenge collects a debate rebuttal.
package agenthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fabbench/domain/core"
	"fabbench/internal"
	"fabbench/internal/errors"
	"fabbench/ports"
)

// Client talks to one agent endpoint. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	logger     *internal.Logger
}

var _ ports.AgentTransport = (*Client)(nil)

// NewClient creates an HTTP transport for the given agent base URL. The
// http.Client carries no timeout of its own; deadlines come from the
// request context so the run service controls them per call.
func NewClient(baseURL string, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		retries:    retries,
		logger:     internal.DefaultLogger,
	}
}

type challengeResponse struct {
	Rebuttal string `json:"rebuttal"`
}

// SendTask delivers a task envelope and decodes the submission.
func (c *Client) SendTask(ctx context.Context, agent core.AgentID, env ports.TaskEnvelope) (ports.SubmissionEnvelope, error) {
	var sub ports.SubmissionEnvelope
	err := c.postJSON(ctx, agent, "/task", env, &sub)
	if err != nil {
		return ports.SubmissionEnvelope{}, err
	}
	if sub.TaskID == "" {
		sub.TaskID = env.TaskID
	}
	return sub, nil
}

// SendChallenge delivers a debate challenge and returns the rebuttal text.
func (c *Client) SendChallenge(ctx context.Context, agent core.AgentID, env ports.ChallengeEnvelope) (string, error) {
	var resp challengeResponse
	if err := c.postJSON(ctx, agent, "/challenge", env, &resp); err != nil {
		return "", err
	}
	return resp.Rebuttal, nil
}

func (c *Client) postJSON(ctx context.Context, agent core.AgentID, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.TransportError("failed to encode request", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("[AgentHTTP] retry %d for %s", attempt, path)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		lastErr = c.doOnce(ctx, agent, path, body, out)
		if lastErr == nil {
			return nil
		}
		// Context expiry is final; only transport-level failures retry.
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, agent core.AgentID, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.TransportError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-ID", agent.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Unwrap url.Error so context.DeadlineExceeded survives errors.Is.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.TransportError("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.TransportError(
			fmt.Sprintf("agent returned status %d: %s", resp.StatusCode, string(data)), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.TransportError("failed to decode response", err)
	}
	return nil
}
