package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// Client issues authenticated requests against one Vena tenant. It is
// immutable after construction and safe for concurrent use; independent
// calls may run from separate goroutines as long as each tracks its own job.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	apiUser string
	apiKey  string

	baseURL    string
	templateID string
	modelID    string

	startWithDataURL string
	startWithFileURL string
	intersectionsURL string
	jobsURL          string
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// ConfigError reports a missing required configuration field, either at
// client construction or when a model-scoped operation runs without a
// configured model.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vena: %s is required", e.Field)
}

// DefaultBaseURL returns the public API endpoint for a hub.
func DefaultBaseURL(hub string) string {
	return fmt.Sprintf("https://%s.vena.io/api/public/v1", hub)
}

// NewClient validates cfg and derives the endpoint URLs: submit-with-data,
// submit-with-file, the job resource root, and (when a model is configured)
// model intersections. It performs no network I/O.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL(cfg.Hub)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No timeout: callers own timeout policy via context, and ETL
		// submissions can legitimately run long.
		httpClient = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		httpClient:       httpClient,
		logger:           logger,
		apiUser:          cfg.APIUser,
		apiKey:           cfg.APIKey,
		baseURL:          baseURL,
		templateID:       cfg.TemplateID,
		modelID:          cfg.ModelID,
		startWithDataURL: fmt.Sprintf("%s/etl/templates/%s/startWithData", baseURL, cfg.TemplateID),
		startWithFileURL: fmt.Sprintf("%s/etl/templates/%s/startWithFile", baseURL, cfg.TemplateID),
		jobsURL:          baseURL + "/etl/jobs",
	}

	if cfg.ModelID != "" {
		c.intersectionsURL = fmt.Sprintf("%s/models/%s/intersections", baseURL, cfg.ModelID)
	}

	return c, nil
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ModelID returns the configured model ID, empty when none was set.
func (c *Client) ModelID() string {
	return c.modelID
}

// StartWithDataURL returns the inline-submission endpoint for the
// configured template.
func (c *Client) StartWithDataURL() string {
	return c.startWithDataURL
}

// StartWithFileURL returns the file-submission endpoint for the configured
// template.
func (c *Client) StartWithFileURL() string {
	return c.startWithFileURL
}

// JobStatusURL returns the status endpoint for a job.
func (c *Client) JobStatusURL(jobID string) string {
	return c.jobsURL + "/" + jobID + "/status"
}

// JobDetailURL returns the job resource itself, consulted for error detail
// after a failed job.
func (c *Client) JobDetailURL(jobID string) string {
	return c.jobsURL + "/" + jobID
}

// IntersectionsURL returns the model intersections endpoint, empty when no
// model is configured.
func (c *Client) IntersectionsURL() string {
	return c.intersectionsURL
}

// HierarchyURL returns the model dimension-hierarchy endpoint, empty when
// no model is configured.
func (c *Client) HierarchyURL() string {
	if c.modelID == "" {
		return ""
	}

	return fmt.Sprintf("%s/models/%s/hierarchy", c.baseURL, c.modelID)
}

// Request makes an authenticated API request against an absolute URL.
//
// Credentials are attached to every request with SetBasicAuth, never via
// session or cookie state, so server-provided URLs (paginated nextPage
// links) can be followed verbatim without losing authentication.
func (c *Client) Request(ctx context.Context, method, rawURL string, body, result any) error {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.apiUser, c.apiKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	respBody, err := c.do(req)
	if err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Get makes an authenticated GET request, decoding the JSON response into
// result when result is non-nil.
func (c *Client) Get(ctx context.Context, rawURL string, result any) error {
	return c.Request(ctx, http.MethodGet, rawURL, nil, result)
}

// GetBody makes an authenticated GET request and returns the raw response
// body. Non-2xx responses still produce an *APIError.
func (c *Client) GetBody(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.apiUser, c.apiKey)
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// Post makes an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, rawURL string, body, result any) error {
	return c.Request(ctx, http.MethodPost, rawURL, body, result)
}

// Upload makes an authenticated multipart POST, sending content as a file
// part named "file" with a text/csv content type, the shape the ETL
// startWithFile endpoint expects. Only the Accept header is set beyond the
// multipart content type owned by the writer.
func (c *Client) Upload(ctx context.Context, rawURL, filename string, content []byte, result any) error {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	partHeader.Set("Content-Type", "text/csv; charset=utf-8")

	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}

	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.apiUser, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	respBody, err := c.do(req)
	if err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// do executes the request and reads the full response body. Non-2xx
// statuses become an *APIError with any error or message field extracted
// from a JSON error body.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logger.Debug("vena api request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}

		// Try to extract error message from JSON response.
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}

		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				apiErr.Message = errResp.Error
			} else if errResp.Message != "" {
				apiErr.Message = errResp.Message
			}
		}

		c.logger.Debug("vena api error response",
			"method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)

		return nil, apiErr
	}

	return respBody, nil
}

// IsConfigError checks if an error is a missing-configuration error.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsAPIError checks if an error is a non-2xx API response, and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsNotFoundError checks if an error is a 404 Not Found error.
func IsNotFoundError(err error) bool {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusNotFound
	}

	return false
}

// IsForbiddenError checks if an error is a 403 Forbidden error.
func IsForbiddenError(err error) bool {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusForbidden
	}

	return false
}

// IsConflictError checks if an error is a 409 Conflict error, reported
// when the template already has a job in progress.
func IsConflictError(err error) bool {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusConflict
	}

	return false
}

// IsUnauthorizedError checks if an error is a 401 Unauthorized error,
// typically a bad API user/key pair.
func IsUnauthorizedError(err error) bool {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusUnauthorized
	}

	return false
}

// IsBadRequestError checks if an error is a 400 Bad Request error.
func IsBadRequestError(err error) bool {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.StatusCode == http.StatusBadRequest
	}

	return false
}
