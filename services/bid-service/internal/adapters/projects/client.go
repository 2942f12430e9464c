package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

const defaultTimeout = 3 * time.Second

// Client implements bids.ProjectGateway against the project service's REST
// API. The service is a separate deployment; any transport failure surfaces
// as ErrProjectUnavailable so callers can degrade instead of guessing.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway for the project service at baseURL, e.g.
// "http://project-service:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type projectResponse struct {
	ID       uuid.UUID `json:"id"`
	ClientID uuid.UUID `json:"client_id"`
	Status   string    `json:"status"`
	Title    string    `json:"title"`
}

// GetProject fetches a project by ID.
func (c *Client) GetProject(ctx context.Context, projectID uuid.UUID) (*bids.Project, error) {
	url := fmt.Sprintf("%s/api/projects/%s", c.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build project request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bids.ErrProjectUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, bids.ErrProjectNotFound
	default:
		return nil, fmt.Errorf("%w: project service returned %d", bids.ErrProjectUnavailable, resp.StatusCode)
	}

	var body projectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed project response: %v", bids.ErrProjectUnavailable, err)
	}

	return &bids.Project{
		ID:      body.ID,
		OwnerID: body.ClientID,
		Status:  bids.ProjectStatus(body.Status),
		Title:   body.Title,
	}, nil
}

// MarkAwarded moves the project to in-progress and records the winning
// freelancer.
func (c *Client) MarkAwarded(ctx context.Context, projectID, freelancerID uuid.UUID) error {
	payload := map[string]any{
		"status":     "in-progress",
		"awarded_to": freelancerID,
	}
	return c.patch(ctx, projectID, payload)
}

// IncrementBidCount bumps the project's displayed bid counter.
func (c *Client) IncrementBidCount(ctx context.Context, projectID uuid.UUID) error {
	url := fmt.Sprintf("%s/api/projects/%s/bid-count", c.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build bid-count request: %w", err)
	}
	return c.do(req)
}

func (c *Client) patch(ctx context.Context, projectID uuid.UUID, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal project patch: %w", err)
	}

	url := fmt.Sprintf("%s/api/projects/%s", c.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build project patch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", bids.ErrProjectUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return bids.ErrProjectNotFound
	default:
		return fmt.Errorf("%w: project service returned %d", bids.ErrProjectUnavailable, resp.StatusCode)
	}
}
