package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient talks to the payment provider's REST API with bearer auth.
type HTTPClient struct {
	HTTP      *http.Client
	BaseURL   string
	SecretKey string
}

func NewHTTPClient(baseURL, secretKey string) *HTTPClient {
	return &HTTPClient{
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		BaseURL:   baseURL,
		SecretKey: secretKey,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("gateway %s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("gateway %s %s: %s", method, path, res.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *HTTPClient) CreateSession(ctx context.Context, p CreateSessionParams) (*CheckoutSession, error) {
	var sess CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", p, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) RetrieveSession(ctx context.Context, id string) (*CheckoutSession, error) {
	var sess CheckoutSession
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+id, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	var out struct {
		Data []LineItem `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID+"/line_items", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
