// Package contracts is a thin Go client for the contracts service API.
package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"
)

type Error struct {
	StatusCode int
	ErrorCode  string
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("contracts sdk error: status=%d code=%s message=%s", e.StatusCode, e.ErrorCode, e.Message)
}

type Client struct {
	BaseURL    string
	UserID     string
	HTTPClient *http.Client
}

// New builds a client acting as the given user. The user id travels in the
// X-User-ID header; real authentication belongs to the gateway in front.
func New(baseURL, userID string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserID:     userID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type DeliverableSpec struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type CreateContractParams struct {
	MissionID    string            `json:"mission_id"`
	BidID        string            `json:"bid_id"`
	ProviderID   string            `json:"provider_id"`
	Terms        json.RawMessage   `json:"terms,omitempty"`
	Deliverables []DeliverableSpec `json:"deliverables,omitempty"`
}

type SubmitDeliverableParams struct {
	FileURLs    []string `json:"file_urls"`
	Description string   `json:"description,omitempty"`
}

type ReviewDeliverableParams struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

func (c *Client) CreateContract(ctx context.Context, params CreateContractParams) (*domain.Contract, error) {
	var out domain.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	var out struct {
		Contracts []domain.Contract `json:"contracts"`
	}
	if err := c.do(ctx, http.MethodGet, "/contracts", nil, &out); err != nil {
		return nil, err
	}
	return out.Contracts, nil
}

func (c *Client) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	var out domain.Contract
	if err := c.do(ctx, http.MethodGet, "/contracts/"+contractID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	var out domain.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts/"+contractID+"/sign", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TransitionContract(ctx context.Context, contractID, status string) (*domain.Contract, error) {
	var out domain.Contract
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/contracts/"+contractID+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitDeliverable(ctx context.Context, deliverableID string, params SubmitDeliverableParams) (*domain.Deliverable, error) {
	var out domain.Deliverable
	if err := c.do(ctx, http.MethodPost, "/deliverables/"+deliverableID+"/submit", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReviewDeliverable(ctx context.Context, deliverableID string, params ReviewDeliverableParams) (*domain.Deliverable, error) {
	var out domain.Deliverable
	if err := c.do(ctx, http.MethodPost, "/deliverables/"+deliverableID+"/review", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
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
	req.Header.Set("content-type", "application/json")
	req.Header.Set("X-User-ID", c.UserID)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			RequestID string `json:"request_id"`
			Err       struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return &Error{
			StatusCode: resp.StatusCode,
			ErrorCode:  envelope.Err.Code,
			Message:    envelope.Err.Message,
			RequestID:  envelope.RequestID,
		}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
