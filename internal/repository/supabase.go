package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cardapio/internal/config"
	"cardapio/internal/domain"
	"cardapio/internal/models"
)

const supabaseListLimit = 100

// SupabaseMenuBackend talks to a PostgREST endpoint (Supabase "rest/v1").
type SupabaseMenuBackend struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

func NewSupabaseMenuBackend(cfg config.SupabaseConfig, httpClient *http.Client) *SupabaseMenuBackend {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseMenuBackend{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/rest/v1/" + cfg.Table,
		key:        cfg.Key,
		httpClient: httpClient,
	}
}

func (c *SupabaseMenuBackend) Name() string { return "supabase" }

// insertRow omits id so the table's serial key assigns it.
type insertRow struct {
	Name        string    `json:"nome"`
	Description string    `json:"descricao"`
	Price       float64   `json:"preco"`
	Category    string    `json:"categoria"`
	Image       string    `json:"imagem"`
	Order       int       `json:"ordem"`
	Featured    bool      `json:"destaque"`
	Available   bool      `json:"disponivel"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type updateRow struct {
	models.MenuItemPatch
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *SupabaseMenuBackend) List(ctx context.Context) ([]models.MenuItem, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "id.asc")
	q.Set("limit", fmt.Sprint(supabaseListLimit))

	var items []models.MenuItem
	if err := c.do(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *SupabaseMenuBackend) Insert(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	now := time.Now().UTC()
	row := insertRow{
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Category:    item.Category,
		Image:       item.Image,
		Order:       item.Order,
		Featured:    item.Featured,
		Available:   item.Available,
		Active:      item.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var out []models.MenuItem
	if err := c.do(ctx, http.MethodPost, c.baseURL, row, &out); err != nil {
		return models.MenuItem{}, err
	}
	if len(out) == 0 {
		return models.MenuItem{}, fmt.Errorf("supabase insert returned no rows")
	}
	return out[0], nil
}

func (c *SupabaseMenuBackend) Update(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	var out []models.MenuItem
	body := updateRow{MenuItemPatch: patch, UpdatedAt: time.Now().UTC()}
	if err := c.do(ctx, http.MethodPatch, c.byID(id), body, &out); err != nil {
		return models.MenuItem{}, err
	}
	if len(out) == 0 {
		return models.MenuItem{}, domain.ErrNotFound
	}
	return out[0], nil
}

func (c *SupabaseMenuBackend) Delete(ctx context.Context, id int64) error {
	var out []struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodDelete, c.byID(id)+"&select=id", nil, &out); err != nil {
		return err
	}
	if len(out) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (c *SupabaseMenuBackend) byID(id int64) string {
	return fmt.Sprintf("%s?id=eq.%d", c.baseURL, id)
}

func (c *SupabaseMenuBackend) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("supabase %s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
