// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package anime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/services/core"
	"github.com/autobrr/animebrr/internal/types"
)

// Client talks to one anime backend
type Client struct {
	core.ServiceCore
	baseURL string
	tasks   TaskAPI
}

// NewClient creates a client for the backend at baseURL speaking the given task API
func NewClient(baseURL, taskAPI string, timeout time.Duration) (*Client, error) {
	tasks, err := NewTaskAPI(taskAPI)
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL: baseURL,
		tasks:   tasks,
	}
	client.Type = "anime"
	client.DisplayName = "Anime backend"
	client.Description = "Subscription, seed and qBittorrent task management"
	client.DefaultURL = "http://localhost:5173"
	client.SetTimeout(timeout)

	return client, nil
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tasks returns the task API this backend speaks
func (c *Client) Tasks() TaskAPI {
	return c.tasks
}

// Do issues the call and returns the parsed JSON response
func (c *Client) Do(ctx context.Context, call Call) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, core.ErrServiceNotConfigured
	}

	var (
		body    io.Reader
		headers map[string]string
	)
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s body: %w", call.Action, err)
		}
		body = bytes.NewReader(data)
		headers = map[string]string{"Content-Type": "application/json"}
	}

	resp, err := c.MakeRequestWithContext(ctx, call.Method, call.URL(c.baseURL), body, headers)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	raw, err := c.ReadJSON(resp)
	if err != nil {
		return nil, err
	}

	log.Trace().Str("action", call.Action).RawJSON("response", raw).Msg("Backend response")

	return raw, nil
}

// DownloadProgress returns the current torrent rows. A JSON value that is not
// an array (an error object, say) yields no rows; null is an error.
func (c *Client) DownloadProgress(ctx context.Context) ([]types.TorrentStatus, error) {
	raw, err := c.Do(ctx, DownloadProgress())
	if err != nil {
		return nil, err
	}

	if string(raw) == "null" {
		return nil, fmt.Errorf("download progress: backend returned null")
	}

	if len(raw) == 0 || raw[0] != '[' {
		log.Debug().RawJSON("response", raw).Msg("Download progress is not a list, rendering no rows")
		return []types.TorrentStatus{}, nil
	}

	var rows []types.TorrentStatus
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode download progress: %w", err)
	}

	return rows, nil
}

func (c *Client) getData(ctx context.Context, call Call) (types.DataResponse, error) {
	raw, err := c.Do(ctx, call)
	if err != nil {
		return types.DataResponse{}, err
	}

	var data types.DataResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		// a bare scalar has no data field; treat it as absent
		return types.DataResponse{}, nil
	}

	return data, nil
}

// DaemonPID returns the scheduler pid wrapped as {"data": pid|null}
func (c *Client) DaemonPID(ctx context.Context) (types.DataResponse, error) {
	return c.getData(ctx, DaemonPID())
}

// MaxActiveDownloads returns the concurrency cap wrapped as {"data": n|null}
func (c *Client) MaxActiveDownloads(ctx context.Context) (types.DataResponse, error) {
	return c.getData(ctx, MaxActiveDownloads())
}

// TaskStatus returns the scheduler status as reported by the backend
func (c *Client) TaskStatus(ctx context.Context) (json.RawMessage, error) {
	return c.Do(ctx, TaskStatus())
}
