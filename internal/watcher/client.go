package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardapio/internal/models"
)

// Client reads the public menu endpoints of a cardapio API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type menuResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Items   []models.MenuItem `json:"cardapio"`
	Source  string            `json:"source"`
}

type syncResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"`
	ItemCount int    `json:"itemCount"`
}

// Menu fetches the publicly visible items.
func (c *Client) Menu(ctx context.Context) ([]models.MenuItem, error) {
	var resp menuResponse
	if err := c.doGet(ctx, c.baseURL+"/api/cardapio", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("menu request failed: %s", resp.Message)
	}
	return resp.Items, nil
}

// Fingerprint fetches the change-detection hash.
func (c *Client) Fingerprint(ctx context.Context) (models.Fingerprint, error) {
	var resp syncResponse
	if err := c.doGet(ctx, c.baseURL+"/api/cardapio/sync", &resp); err != nil {
		return models.Fingerprint{}, err
	}
	if !resp.Success {
		return models.Fingerprint{}, fmt.Errorf("sync request failed: %s", resp.Message)
	}
	return models.Fingerprint{
		Hash:      resp.Hash,
		Timestamp: time.UnixMilli(resp.Timestamp),
		ItemCount: resp.ItemCount,
	}, nil
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
