package museum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "museumscraper/pkg/errors"
	"museumscraper/pkg/logger"
	"museumscraper/pkg/models"
)

// Client talks to the collection API of one museum
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	baseURL     string
	imageWidth  int
	imageHeight int
	logger      logger.Logger
}

// NewClient creates a new collection API client
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":          "application/json",
			"Accept-Language": "ru,en;q=0.9",
		},
		baseURL:     baseURL,
		imageWidth:  3000,
		imageHeight: 3000,
		logger:      log,
	}
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetImageSize sets the w/h hints appended to image requests
func (c *Client) SetImageSize(width, height int) {
	c.imageWidth = width
	c.imageHeight = height
}

// BaseURL returns the collection root the client was built for
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Network(err, 0, "%s %s: %v", req.Method, req.URL.Path, err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration.Milliseconds())
	return resp, nil
}

// checkResponseStatus turns anything but 200 into a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return &errs.Error{
		Type:    errs.FromStatusCode(resp.StatusCode),
		Message: fmt.Sprintf("%s %s returned status %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode),
		Code:    resp.StatusCode,
	}
}

// decodeJSON reads a 200 response body into target
func (c *Client) decodeJSON(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Network(err, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.String(),
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}

// SearchObjects sends one catalogue query and returns the identifiers it lists.
// It never follows further pages.
func (c *Client) SearchObjects(ctx context.Context, query CatalogueQuery) ([]models.ObjectID, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalogue query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, GetSearchURL(c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	var result SearchResponse
	if err := c.decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	ids := make([]models.ObjectID, 0, len(result.Data))
	for _, hit := range result.Data {
		if hit.ID == "" {
			continue
		}
		ids = append(ids, hit.ID)
	}

	c.logger.DebugWithFields("catalogue page fetched", map[string]interface{}{
		"start": query.Start,
		"count": query.Count,
		"ids":   len(ids),
	})
	return ids, nil
}

// FetchObject retrieves the detail payload of one object
func (c *Client) FetchObject(ctx context.Context, id models.ObjectID) (*Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GetEntityURL(c.baseURL, id.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity request: %w", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	var entity Entity
	if err := c.decodeJSON(resp, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// DownloadImage requests an image and returns its body unread. The caller
// must close it.
func (c *Client) DownloadImage(ctx context.Context, image string) (io.ReadCloser, error) {
	imageURL, err := GetImageURL(c.baseURL, image, c.imageWidth, c.imageHeight)
	if err != nil {
		return nil, errs.Parsing("%v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}
