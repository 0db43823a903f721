// Package payments wraps the PayMongo links API used to collect
// document fees.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brgy-santafe/registry/internal/shared/config"
)

// Client talks to the PayMongo REST API.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(cfg config.PayMongoConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type linkRequest struct {
	Data struct {
		Attributes struct {
			Amount      int    `json:"amount"`
			Description string `json:"description"`
			Remarks     string `json:"remarks"`
		} `json:"attributes"`
	} `json:"data"`
}

type linkResponse struct {
	Data struct {
		Attributes struct {
			CheckoutURL string `json:"checkout_url"`
		} `json:"attributes"`
	} `json:"data"`
}

// CreateLink creates a hosted payment link and returns its checkout
// URL. The amount is in centavos.
func (c *Client) CreateLink(ctx context.Context, amountCentavos int, description, remarks string) (string, error) {
	var payload linkRequest
	payload.Data.Attributes.Amount = amountCentavos
	payload.Data.Attributes.Description = description
	payload.Data.Attributes.Remarks = remarks

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/links", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// PayMongo authenticates with the secret key as basic auth user.
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call paymongo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paymongo returned status %d", resp.StatusCode)
	}

	var decoded linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode paymongo response: %w", err)
	}
	if decoded.Data.Attributes.CheckoutURL == "" {
		return "", fmt.Errorf("paymongo response missing checkout URL")
	}
	return decoded.Data.Attributes.CheckoutURL, nil
}
