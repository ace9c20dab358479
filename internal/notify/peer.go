package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardapio/internal/models"
)

// InvalidatePath is the endpoint peers expose for cache invalidation.
const InvalidatePath = "/api/cardapio/invalidate"

// PeerChannel asks other API instances to drop their menu cache.
type PeerChannel struct {
	peers  []string
	token  string
	client *http.Client
}

func NewPeerChannel(peers []string, token string) *PeerChannel {
	return &PeerChannel{
		peers:  peers,
		token:  token,
		client: &http.Client{Timeout: 3 * time.Second},
	}
}

func (p *PeerChannel) Name() string { return "peer" }

func (p *PeerChannel) Publish(ctx context.Context, n models.UpdateNotification) error {
	if len(p.peers) == 0 {
		return nil
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	var errs []error
	for _, peer := range p.peers {
		if err := p.post(ctx, peer, body); err != nil {
			errs = append(errs, fmt.Errorf("peer %s: %w", peer, err))
		}
	}
	return errors.Join(errs...)
}

func (p *PeerChannel) post(ctx context.Context, peer string, body []byte) error {
	url := strings.TrimRight(peer, "/") + InvalidatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
