// Package admin is a client for the relay's administrative HTTP API and the
// table rendering used by the chatctl command.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/Tyrowin/lanchat/internal/history"
	"github.com/Tyrowin/lanchat/internal/server"
)

// ErrUnexpectedStatus is returned when the relay answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client calls the relay's administrative HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets the relay at baseURL, e.g. http://localhost:8080.
// A nil httpClient gets a client with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Clear empties the relay history and returns its confirmation message.
func (c *Client) Clear(ctx context.Context) (string, error) {
	var body server.ClearResponse
	if err := c.do(ctx, http.MethodPost, "/api/clear", &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// History returns the relay's current history, oldest first.
func (c *Client) History(ctx context.Context) ([]history.Record, error) {
	var body server.MessagesResponse
	if err := c.do(ctx, http.MethodGet, "/api/messages", &body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

// Health returns the relay status with its connection and message counts.
func (c *Client) Health(ctx context.Context) (server.HealthResponse, error) {
	var body server.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", &body)
	return body, err
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %w: %s %s", method, path, ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// RenderHistory writes records as a borderless table.
func RenderHistory(w io.Writer, records []history.Record) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Time", "Origin", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for i, record := range records {
		table.Append([]string{
			fmt.Sprint(i + 1),
			record.Time,
			record.Origin,
			record.Text,
		})
	}
	table.Render()
}
