package notary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mines_arena/internal/domain"
)

// Client talks to the notarization service that anchors game events on
// chain. One POST per event; the response carries the transaction hash.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Event is one game fact to anchor.
type Event struct {
	GameID     string                      `json:"game_id"`
	UpdateType domain.BlockchainUpdateType `json:"update_type"`
	Detail     map[string]any              `json:"detail,omitempty"`
}

// Receipt is the service's acknowledgement.
type Receipt struct {
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
}

// Submit sends one event and returns the on-chain receipt.
func (c *Client) Submit(ctx context.Context, ev Event) (*Receipt, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/records", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("notary error: %s - %s", resp.Status, string(data))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

// GetRecord looks up a previously submitted record by transaction hash.
// A 404 maps to (nil, nil).
func (c *Client) GetRecord(ctx context.Context, txHash string) (*Receipt, error) {
	url := fmt.Sprintf("%s/v1/records/%s", c.baseURL, txHash)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("notary error: %s - %s", resp.Status, string(data))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}
