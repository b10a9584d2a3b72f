package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/kudosly/internal/adapters/http/api"
	"github.com/okian/kudosly/internal/domain/model"
)

// outcome of one submission.
type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeRejected
	outcomeFailed
)

// deliveryHeader is the header each source uses for its delivery id.
func deliveryHeader(src model.Source) string {
	switch src {
	case model.SourceGitHub:
		return "X-GitHub-Delivery"
	case model.SourceJira:
		return "X-Atlassian-Webhook-Identifier"
	case model.SourceBitbucket:
		return "X-Request-UUID"
	}
	return "X-Webhook-Delivery"
}

// client wraps http.Client with the simulation's base URL and secrets.
type client struct {
	http    *http.Client
	baseURL string
	secrets map[model.Source]string
}

func newClient(baseURL string, timeout time.Duration, secrets map[model.Source]string) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL, secrets: secrets}
}

func (c *client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// submit posts one delivery to its source route.
func (c *client) submit(ctx context.Context, d Delivery) (outcome, error) {
	headers := map[string]string{deliveryHeader(d.Source): d.ID}
	if secret := c.secrets[d.Source]; secret != "" {
		sig := api.Sign(secret, d.Payload)
		if d.Source == model.SourceGitHub {
			sig = api.SignHex(secret, d.Payload)
		}
		headers[api.SignatureHeader(d.Source)] = sig
	}
	status, _, err := c.do(ctx, http.MethodPost, "/api/v1/webhooks/"+string(d.Source), d.Payload, headers)
	switch {
	case err != nil:
		return outcomeFailed, err
	case status == http.StatusAccepted:
		return outcomeAccepted, nil
	case status == http.StatusOK:
		return outcomeDuplicate, nil
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return outcomeRejected, fmt.Errorf("delivery %s rejected with %d", d.ID, status)
	}
	return outcomeFailed, fmt.Errorf("delivery %s failed with %d", d.ID, status)
}

// register creates m in the directory. A conflict means it already exists.
func (c *client) register(ctx context.Context, m Member) (bool, error) {
	body, err := json.Marshal(map[string]string{"id": m.ID, "name": m.Name, "email": m.Email})
	if err != nil {
		return false, err
	}
	status, _, err := c.do(ctx, http.MethodPost, "/api/v1/employees", body, nil)
	switch {
	case err != nil:
		return false, err
	case status == http.StatusCreated:
		return true, nil
	case status == http.StatusConflict:
		return false, nil
	}
	return false, fmt.Errorf("register %s: status %d", m.ID, status)
}

func (c *client) health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("healthz returned %d", status)
	}
	return nil
}

func (c *client) stats(ctx context.Context) (map[string]any, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/stats", nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("stats returned %d", status)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return out, nil
}
