package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"custody/internal/services"
)

// DefaultBaseURL is the Drive v3 REST endpoint.
const DefaultBaseURL = "https://www.googleapis.com/drive/v3"

// File models the subset of Drive file metadata the capture workflow records.
// Extra keys returned by the API are preserved verbatim so evidence captures
// do not silently drop fields.
type File map[string]any

// ID returns the file identifier or "".
func (f File) ID() string { return stringValue(f["id"]) }

// Name returns the file name or "".
func (f File) Name() string { return stringValue(f["name"]) }

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// ListResponse models the files.list payload.
type ListResponse struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken"`
}

// About models the subset of the about resource used for account reports.
type About struct {
	User struct {
		DisplayName  string `json:"displayName"`
		EmailAddress string `json:"emailAddress"`
		PermissionID string `json:"permissionId"`
	} `json:"user"`
	StorageQuota struct {
		Limit             string `json:"limit"`
		Usage             string `json:"usage"`
		UsageInDrive      string `json:"usageInDrive"`
		UsageInDriveTrash string `json:"usageInDriveTrash"`
	} `json:"storageQuota"`
}

// Comprehensive bundles everything the API exposes for one file: metadata,
// revision history, and comments. Counts are precomputed for reports.
type Comprehensive struct {
	File          File             `json:"file"`
	Revisions     []map[string]any `json:"revisions"`
	Comments      []map[string]any `json:"comments"`
	RevisionCount int              `json:"revision_count"`
	CommentCount  int              `json:"comment_count"`
	CapturedAt    time.Time        `json:"captured_at"`
}

// listFields keeps files.list responses aligned across baseline and post
// captures; changing this set invalidates cross-session comparisons.
const listFields = "nextPageToken, files(id, name, mimeType, createdTime, modifiedTime, viewedByMeTime, owners, size)"

const getFields = "id, name, mimeType, createdTime, modifiedTime, viewedByMeTime, lastModifyingUser, owners, size, webViewLink, parents, shared, capabilities"

// Searcher defines the Drive operations the capture workflow depends on.
type Searcher interface {
	About(ctx context.Context) (*About, error)
	ListFiles(ctx context.Context, query string, maxResults int) ([]File, error)
	GetFile(ctx context.Context, fileID string) (File, error)
	Revisions(ctx context.Context, fileID string) ([]map[string]any, error)
	Comments(ctx context.Context, fileID string) ([]map[string]any, error)
	ComprehensiveData(ctx context.Context, fileID string) (*Comprehensive, error)
	ProbeReadOnly(ctx context.Context) ([]ProbeResult, error)
}

// Client provides read-only access to the Drive v3 API.
type Client struct {
	token      string
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPageSize overrides the default files.list page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// New creates a Drive client authenticated with an OAuth bearer token.
func New(token, baseURL string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("drive access token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   100,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// About fetches account and quota details for the authenticated user.
func (c *Client) About(ctx context.Context) (*About, error) {
	params := url.Values{}
	params.Set("fields", "user, storageQuota")
	var payload About
	if err := c.getJSON(ctx, "/about", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListFiles lists files matching the optional Drive query string. Pagination
// is followed until maxResults entries are collected; maxResults <= 0 uses
// the configured page size as the cap.
func (c *Client) ListFiles(ctx context.Context, query string, maxResults int) ([]File, error) {
	if maxResults <= 0 {
		maxResults = c.pageSize
	}
	var files []File
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("fields", listFields)
		params.Set("pageSize", strconv.Itoa(min(c.pageSize, maxResults-len(files))))
		if query = strings.TrimSpace(query); query != "" {
			params.Set("q", query)
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var payload ListResponse
		if err := c.getJSON(ctx, "/files", params, &payload); err != nil {
			return nil, err
		}
		files = append(files, payload.Files...)
		if payload.NextPageToken == "" || len(files) >= maxResults {
			break
		}
		pageToken = payload.NextPageToken
	}
	if len(files) > maxResults {
		files = files[:maxResults]
	}
	return files, nil
}

// GetFile fetches detailed metadata for a single file.
func (c *Client) GetFile(ctx context.Context, fileID string) (File, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, errors.New("file id required")
	}
	params := url.Values{}
	params.Set("fields", getFields)
	var payload File
	if err := c.getJSON(ctx, "/files/"+url.PathEscape(fileID), params, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Revisions fetches the revision history for a file. Files that do not
// support revisions return an empty slice rather than an error.
func (c *Client) Revisions(ctx context.Context, fileID string) ([]map[string]any, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, errors.New("file id required")
	}
	params := url.Values{}
	params.Set("fields", "revisions(id, modifiedTime, lastModifyingUser, size, keepForever)")
	var payload struct {
		Revisions []map[string]any `json:"revisions"`
	}
	err := c.getJSON(ctx, "/files/"+url.PathEscape(fileID)+"/revisions", params, &payload)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return payload.Revisions, nil
}

// Comments fetches all comments on a file, including deleted ones.
func (c *Client) Comments(ctx context.Context, fileID string) ([]map[string]any, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, errors.New("file id required")
	}
	params := url.Values{}
	params.Set("fields", "comments(id, createdTime, modifiedTime, author, content, resolved, deleted)")
	params.Set("includeDeleted", "true")
	var payload struct {
		Comments []map[string]any `json:"comments"`
	}
	err := c.getJSON(ctx, "/files/"+url.PathEscape(fileID)+"/comments", params, &payload)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return payload.Comments, nil
}

// ComprehensiveData fetches metadata, revisions, and comments for one file in
// a single call so captures record a consistent snapshot.
func (c *Client) ComprehensiveData(ctx context.Context, fileID string) (*Comprehensive, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	revisions, err := c.Revisions(ctx, fileID)
	if err != nil {
		return nil, err
	}
	comments, err := c.Comments(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return &Comprehensive{
		File:          file,
		Revisions:     revisions,
		Comments:      comments,
		RevisionCount: len(revisions),
		CommentCount:  len(comments),
		CapturedAt:    time.Now().UTC(),
	}, nil
}

// probeTargetID is a fabricated file id for the mutation probes so an
// over-scoped token cannot change anything real. A read-only scope rejects
// the request outright with 401/403; a write scope reaches the handler and
// reports 404 for the missing target, which the probe records as allowed.
const probeTargetID = "custody-scope-probe-missing"

// ProbeResult reports one attempted write operation and whether the token
// was permitted to perform it.
type ProbeResult struct {
	Operation string `json:"operation"`
	Allowed   bool   `json:"allowed"`
	Detail    string `json:"detail"`
}

// ProbeAllBlocked reports whether every probed write operation was rejected,
// which is what a correctly scoped read-only token must produce.
func ProbeAllBlocked(results []ProbeResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, result := range results {
		if result.Allowed {
			return false
		}
	}
	return true
}

// ProbeReadOnly attempts the write operations a mis-scoped token could
// perform: create, update, delete, copy, and permission change. All of them
// must be rejected for the token to count as read-only. Only the create probe
// can actually mutate state; when it succeeds the probe file is removed again
// where possible.
func (c *Client) ProbeReadOnly(ctx context.Context) ([]ProbeResult, error) {
	probes := []struct {
		operation string
		method    string
		path      string
		body      string
	}{
		{"create", http.MethodPost, "/files", `{"name":"custody_scope_probe.txt","mimeType":"text/plain"}`},
		{"update", http.MethodPatch, "/files/" + probeTargetID, `{}`},
		{"delete", http.MethodDelete, "/files/" + probeTargetID, ""},
		{"copy", http.MethodPost, "/files/" + probeTargetID + "/copy", `{}`},
		{"permission change", http.MethodPost, "/files/" + probeTargetID + "/permissions", `{"role":"reader","type":"anyone"}`},
	}

	results := make([]ProbeResult, 0, len(probes))
	for _, probe := range probes {
		result, err := c.probe(ctx, probe.operation, probe.method, probe.path, probe.body)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (c *Client) probe(ctx context.Context, operation, method, path, body string) (ProbeResult, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProbeResult{}, services.Wrap(services.ErrTransient, "probe", operation, "execute request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return ProbeResult{
			Operation: operation,
			Detail:    fmt.Sprintf("rejected with status %d", resp.StatusCode),
		}, nil
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return ProbeResult{
			Operation: operation,
			Allowed:   true,
			Detail:    "authorized past the scope check, target absent",
		}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		detail := "write accepted"
		if operation == "create" {
			detail = c.cleanupProbeFile(ctx, resp.Body)
		} else {
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
		}
		return ProbeResult{Operation: operation, Allowed: true, Detail: detail}, nil
	default:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "probe", operation,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}

// cleanupProbeFile removes the file an over-permissive create probe just
// made. The scope violation is already established at this point; cleanup is
// best effort.
func (c *Client) cleanupProbeFile(ctx context.Context, body io.Reader) string {
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(body).Decode(&created); err != nil || created.ID == "" {
		return "write accepted, probe file id unknown"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/files/"+url.PathEscape(created.ID), nil)
	if err != nil {
		return "write accepted, probe file " + created.ID + " left behind"
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "write accepted, probe file " + created.ID + " left behind"
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return "write accepted, probe file removed"
	}
	return "write accepted, probe file " + created.ID + " left behind"
}

// Query composes a files.list query expression from the supported filters.
// Single quotes in the name term are escaped per Drive query syntax; time
// bounds are RFC 3339 strings.
func Query(nameContains, modifiedAfter, modifiedBefore string) string {
	var terms []string
	if nameContains = strings.TrimSpace(nameContains); nameContains != "" {
		terms = append(terms, fmt.Sprintf("name contains '%s'", strings.ReplaceAll(nameContains, `'`, `\'`)))
	}
	if modifiedAfter = strings.TrimSpace(modifiedAfter); modifiedAfter != "" {
		terms = append(terms, fmt.Sprintf("modifiedTime > '%s'", modifiedAfter))
	}
	if modifiedBefore = strings.TrimSpace(modifiedBefore); modifiedBefore != "" {
		terms = append(terms, fmt.Sprintf("modifiedTime < '%s'", modifiedBefore))
	}
	return strings.Join(terms, " and ")
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse drive url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "", "", fmt.Sprintf("drive %s returned 404", path), nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "", "",
			fmt.Sprintf("drive %s returned %d, check access token", path, resp.StatusCode), nil)
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return services.Wrap(services.ErrTransient, "", "",
			fmt.Sprintf("drive %s returned %d (latency=%v)", path, resp.StatusCode, latency), nil)
	default:
		return fmt.Errorf("drive %s returned %d (latency=%v)", path, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode drive response: %w", err)
	}
	return nil
}
