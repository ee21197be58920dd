package devrev

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/pkg/config"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
	"github.com/saramaebee/devrev-mcp/pkg/retry"
)

const maxErrorBodyBytes = 4096

// Client wraps authenticated calls to the DevRev REST API. Every
// endpoint is a POST of a JSON body; transient failures and rate limits
// retry with bounded exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retryCfg   *retry.Config
}

// NewClient creates a client from application configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.DevRev.Timeout},
		baseURL:    strings.TrimRight(cfg.DevRev.BaseURL, "/"),
		apiKey:     cfg.DevRev.APIKey,
		retryCfg: &retry.Config{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
		},
	}
}

// do posts the payload to an endpoint and decodes the response into
// out. The request is rebuilt on every retry attempt so the body can be
// re-sent.
func (c *Client) do(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.NewError(
			fmt.Errorf("failed to encode request for %s: %w", endpoint, err),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}

	requestID := core.NewRequestID()
	started := time.Now()

	err = retry.Do(ctx, endpoint, c.retryCfg, func() error {
		return c.doOnce(ctx, endpoint, body, out)
	})

	logger.Debug("devrev api call",
		"endpoint", endpoint,
		"request_id", requestID,
		"duration", time.Since(started),
		"error", err,
	)
	return err
}

func (c *Client) doOnce(ctx context.Context, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return core.NewError(err, core.ErrorCodeValidationFailed, map[string]any{"endpoint": endpoint})
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.NewError(
			fmt.Errorf("request to %s failed: %w", endpoint, err),
			core.ErrorCodeTransientNetwork,
			map[string]any{"endpoint": endpoint},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(endpoint, resp)
	}

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewError(
			fmt.Errorf("failed to decode %s response: %w", endpoint, err),
			core.ErrorCodeAPIFailure,
			map[string]any{"endpoint": endpoint},
		)
	}
	return nil
}

// statusError maps an upstream HTTP status to the error taxonomy
func statusError(endpoint string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	metadata := map[string]any{
		"endpoint":    endpoint,
		"http_status": resp.StatusCode,
		"response":    string(snippet),
	}
	err := fmt.Errorf("%s returned HTTP %d", endpoint, resp.StatusCode)

	var code core.ErrorCode
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		code = core.ErrorCodeValidationFailed
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		code = core.ErrorCodePermissionDenied
	case resp.StatusCode == http.StatusNotFound:
		code = core.ErrorCodeNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		code = core.ErrorCodeRateLimited
	case resp.StatusCode >= 500:
		code = core.ErrorCodeTransientNetwork
	default:
		code = core.ErrorCodeAPIFailure
	}
	return core.NewError(err, code, metadata)
}

// GetWork fetches a work item by display or don ID
func (c *Client) GetWork(ctx context.Context, id string) (*Work, error) {
	var resp WorkResponse
	if err := c.do(ctx, EndpointWorksGet, WorksGetRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	if resp.Work == nil {
		return nil, core.NewError(
			fmt.Errorf("work item %s not found", id),
			core.ErrorCodeNotFound,
			map[string]any{"id": id},
		)
	}
	return resp.Work, nil
}

// CreateWork creates a new ticket or issue
func (c *Client) CreateWork(ctx context.Context, req WorksCreateRequest) (*Work, error) {
	var resp WorkResponse
	if err := c.do(ctx, EndpointWorksCreate, req, &resp); err != nil {
		return nil, err
	}
	return resp.Work, nil
}

// UpdateWork updates the title and/or body of a work item
func (c *Client) UpdateWork(ctx context.Context, req WorksUpdateRequest) (*Work, error) {
	var resp WorkResponse
	if err := c.do(ctx, EndpointWorksUpdate, req, &resp); err != nil {
		return nil, err
	}
	return resp.Work, nil
}

// ListTimelineEntries fetches one page of timeline entries
func (c *Client) ListTimelineEntries(
	ctx context.Context,
	req TimelineEntriesListRequest,
) (*TimelineEntriesListResponse, error) {
	var resp TimelineEntriesListResponse
	if err := c.do(ctx, EndpointTimelineEntriesList, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTimelineEntry fetches one timeline entry by don ID
func (c *Client) GetTimelineEntry(ctx context.Context, id string) (*TimelineEntry, error) {
	var resp TimelineEntryResponse
	if err := c.do(ctx, EndpointTimelineEntriesGet, TimelineEntriesGetRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	if resp.TimelineEntry == nil {
		return nil, core.NewError(
			fmt.Errorf("timeline entry %s not found", id),
			core.ErrorCodeNotFound,
			map[string]any{"id": id},
		)
	}
	return resp.TimelineEntry, nil
}

// CreateTimelineEntry creates a timeline comment on a work item
func (c *Client) CreateTimelineEntry(
	ctx context.Context,
	req TimelineEntryCreateRequest,
) (*TimelineEntry, error) {
	var resp TimelineEntryResponse
	if err := c.do(ctx, EndpointTimelineEntriesCreate, req, &resp); err != nil {
		return nil, err
	}
	return resp.TimelineEntry, nil
}

// GetArtifact fetches artifact metadata
func (c *Client) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	var resp ArtifactResponse
	if err := c.do(ctx, EndpointArtifactsGet, ArtifactsGetRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	if resp.Artifact == nil {
		return nil, core.NewError(
			fmt.Errorf("artifact %s not found", id),
			core.ErrorCodeNotFound,
			map[string]any{"id": id},
		)
	}
	return resp.Artifact, nil
}

// LocateArtifact resolves a temporary download URL for an artifact
func (c *Client) LocateArtifact(ctx context.Context, id string) (*ArtifactLocateResponse, error) {
	var resp ArtifactLocateResponse
	if err := c.do(ctx, EndpointArtifactsLocate, ArtifactsLocateRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchHybrid runs a natural-language search within a namespace
func (c *Client) SearchHybrid(ctx context.Context, req SearchHybridRequest) ([]SearchResult, error) {
	var resp SearchResponse
	if err := c.do(ctx, EndpointSearchHybrid, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchCore runs a structured search
func (c *Client) SearchCore(ctx context.Context, req SearchCoreRequest) ([]SearchResult, error) {
	var resp SearchResponse
	if err := c.do(ctx, EndpointSearchCore, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ListLinks lists the links touching an object
func (c *Client) ListLinks(ctx context.Context, objectID string) ([]Link, error) {
	var resp LinksListResponse
	if err := c.do(ctx, EndpointLinksList, LinksListRequest{Object: objectID}, &resp); err != nil {
		return nil, err
	}
	return resp.Links, nil
}

// ListLinkTypes lists the link type catalog
func (c *Client) ListLinkTypes(ctx context.Context) ([]LinkType, error) {
	var resp LinkTypesListResponse
	if err := c.do(ctx, EndpointLinkTypesList, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.LinkTypes, nil
}

// FetchURL streams the content behind a presigned download URL. No
// Authorization header is sent: the URL already carries its own
// credentials and expiry.
func (c *Client) FetchURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.NewError(err, core.ErrorCodeValidationFailed, map[string]any{"url": url})
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewError(
			fmt.Errorf("download request failed: %w", err),
			core.ErrorCodeTransientNetwork,
			nil,
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError("artifact download", resp)
	}
	return resp.Body, nil
}
