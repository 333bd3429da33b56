// internal/discovery/client.go
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bookreview/internal/envelope"
)

// Client talks to the registry service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) instancesURL(service string) string {
	return fmt.Sprintf("%s/api/v1/registry/%s/instances", c.baseURL, url.PathEscape(service))
}

// Register creates or renews the lease for inst.
func (c *Client) Register(ctx context.Context, inst Instance) (Instance, error) {
	body, err := json.Marshal(registerRequest{URL: inst.URL})
	if err != nil {
		return Instance{}, err
	}

	u := c.instancesURL(inst.Service) + "/" + url.PathEscape(inst.ID)
	out, err := call[Instance](ctx, c.httpClient, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return Instance{}, err
	}
	if out == nil {
		return Instance{}, fmt.Errorf("registry returned no instance")
	}
	return *out, nil
}

// Deregister removes the lease for a service instance.
func (c *Client) Deregister(ctx context.Context, service, id string) error {
	u := c.instancesURL(service) + "/" + url.PathEscape(id)
	_, err := call[string](ctx, c.httpClient, http.MethodDelete, u, nil)
	return err
}

// Instances lists live instances of a service.
func (c *Client) Instances(ctx context.Context, service string) ([]Instance, error) {
	out, err := call[[]Instance](ctx, c.httpClient, http.MethodGet, c.instancesURL(service), nil)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return []Instance{}, nil
	}
	return *out, nil
}

func call[T any](ctx context.Context, hc *http.Client, method, u string, body io.Reader) (*T, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env, err := envelope.Decode[T](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("registry returned status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return nil, fmt.Errorf("registry returned status %d: %s", resp.StatusCode, env.Error)
	}
	return env.Data, nil
}
