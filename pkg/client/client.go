package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/propdesk/listing-engine/internal/models"
)

// Client is a Go SDK for the listing-engine API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new listing-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListProjects retrieves project records
func (c *Client) ListProjects(ctx context.Context, limit, offset int) ([]*models.ProjectRecord, error) {
	path := "/api/v1/projects?"
	if limit > 0 {
		path += fmt.Sprintf("limit=%d&", limit)
	}
	if offset > 0 {
		path += fmt.Sprintf("offset=%d&", offset)
	}

	resp, err := c.doRequest(ctx, "GET", path, nil, "")
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Projects []*models.ProjectRecord `json:"projects"`
			Total    int                     `json:"total"`
		} `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Projects, nil
}

// CreateProject creates a project record
func (c *Client) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.ProjectRecord, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v1/projects", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                  `json:"success"`
		Data    *models.ProjectRecord `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// GetProject retrieves a project record by id
func (c *Client) GetProject(ctx context.Context, id string) (*models.ProjectRecord, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/projects/%s", id), nil, "")
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                  `json:"success"`
		Data    *models.ProjectRecord `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// OpenSession opens an edit session for a project
func (c *Client) OpenSession(ctx context.Context, projectID string) (*models.SessionSnapshot, error) {
	body, err := json.Marshal(models.OpenSessionRequest{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v1/sessions", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// GetSession retrieves the current session snapshot
func (c *Client) GetSession(ctx context.Context, id string) (*models.SessionSnapshot, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/sessions/%s", id), nil, "")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// ToggleAmenity flips one amenity in the session draft
func (c *Client) ToggleAmenity(ctx context.Context, sessionID, amenityID string) (*models.SessionSnapshot, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s/amenities/%s/toggle", sessionID, amenityID)
	resp, err := c.doRequest(ctx, "POST", path, nil, "")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// ToggleAllAmenities flips the whole amenity catalog at once
func (c *Client) ToggleAllAmenities(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s/amenities/toggle-all", sessionID)
	resp, err := c.doRequest(ctx, "POST", path, nil, "")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// UploadMedia uploads image files into the session's media collection
func (c *Client) UploadMedia(ctx context.Context, sessionID string, files []models.FilePayload) (*models.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	path := fmt.Sprintf("/api/v1/sessions/%s/media", sessionID)
	resp, err := c.doRequest(ctx, "POST", path, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Result *models.UploadResult `json:"result"`
			Media  []models.MediaAsset  `json:"media"`
		} `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Result, nil
}

// RemoveMedia deletes one media asset from the session draft
func (c *Client) RemoveMedia(ctx context.Context, sessionID, assetID string) (*models.SessionSnapshot, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s/media/%s", sessionID, assetID)
	resp, err := c.doRequest(ctx, "DELETE", path, nil, "")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// SetLocation applies the manual coordinate and landmark entry
func (c *Client) SetLocation(ctx context.Context, sessionID string, req models.SetLocationRequest) (*models.SessionSnapshot, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("/api/v1/sessions/%s/location", sessionID)
	resp, err := c.doRequest(ctx, "PUT", path, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// SaveSession persists the session draft
func (c *Client) SaveSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s/save", sessionID)
	resp, err := c.doRequest(ctx, "POST", path, nil, "")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// CancelSession abandons the session draft
func (c *Client) CancelSession(ctx context.Context, sessionID string) (*models.SessionSnapshot, error) {
	path := fmt.Sprintf("/api/v1/sessions/%s/cancel", sessionID)
	resp, err := c.doRequest(ctx, "POST", path, nil, "")
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(resp)
}

// CloseSession tears down an edit session
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	resp, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/sessions/%s", sessionID), nil, "")
	if err != nil {
		return err
	}

	var result struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return nil
}

// ListAmenities retrieves the amenity catalog
func (c *Client) ListAmenities(ctx context.Context) ([]models.AmenityOption, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/v1/catalog/amenities", nil, "")
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Amenities []models.AmenityOption `json:"amenities"`
			Total     int                    `json:"total"`
		} `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Amenities, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil, "")
	return err
}

// decodeSnapshot unwraps the session snapshot envelope
func decodeSnapshot(resp []byte) (*models.SessionSnapshot, error) {
	var result struct {
		Success bool                    `json:"success"`
		Data    *models.SessionSnapshot `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
