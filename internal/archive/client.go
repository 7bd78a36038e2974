package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/archiver/internal/version"
)

// API defines the backend calls the launcher makes. It is implemented by *Client and can be
// faked in tests.
type API interface {
	Status(ctx context.Context) (json.RawMessage, error)
	OnboardingStatus(ctx context.Context) (json.RawMessage, error)
	RecentChats(ctx context.Context, search string) (json.RawMessage, error)
	Messages(ctx context.Context, chatGUID string) (json.RawMessage, error)
	ArchiveChat(ctx context.Context, chatGUID, format string) (json.RawMessage, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the Python backend over loopback HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// ArchiveRequest is the body of POST /chats/{guid}/archive.
type ArchiveRequest struct {
	ChatGUID    string `json:"chat_guid"`
	Format      string `json:"format"`
	Incremental bool   `json:"incremental"`
}

const (
	defaultBackendAddr = "127.0.0.1:8000"
	requestTimeout     = 30 * time.Second
	requestIDHeader    = "X-Request-ID"
)

// NewClient builds a Client for the backend at addr (host:port or URL).
func NewClient(addr string) (*Client, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: version.UserAgent(),
	}, nil
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Status retrieves GET /system/status.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, &url.URL{Path: "/system/status"})
}

// OnboardingStatus retrieves GET /onboarding/status.
func (c *Client) OnboardingStatus(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, &url.URL{Path: "/onboarding/status"})
}

// RecentChats retrieves GET /chats/recent, filtered by search when non-empty.
func (c *Client) RecentChats(ctx context.Context, search string) (json.RawMessage, error) {
	rel := &url.URL{Path: "/chats/recent"}
	if search != "" {
		rel.RawQuery = url.Values{"search": []string{search}}.Encode()
	}
	return c.get(ctx, rel)
}

// Messages retrieves GET /chats/{guid}/messages.
func (c *Client) Messages(ctx context.Context, chatGUID string) (json.RawMessage, error) {
	rel, err := chatPath(chatGUID, "messages")
	if err != nil {
		return nil, err
	}
	return c.get(ctx, rel)
}

// ArchiveChat requests an incremental archive of one chat in the given format.
func (c *Client) ArchiveChat(ctx context.Context, chatGUID, format string) (json.RawMessage, error) {
	rel, err := chatPath(chatGUID, "archive")
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(ArchiveRequest{ChatGUID: chatGUID, Format: format, Incremental: true})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.doURL(ctx, http.MethodPost, rel, body)
}

func (c *Client) get(ctx context.Context, rel *url.URL) (json.RawMessage, error) {
	return c.doURL(ctx, http.MethodGet, rel, nil)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body []byte) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Path: rel.Path, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("decode response: invalid JSON from %s", rel.Path)
	}
	return json.RawMessage(data), nil
}

// StatusError reports a backend response with status >= 400.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

func chatPath(chatGUID, leaf string) (*url.URL, error) {
	guid := strings.TrimSpace(chatGUID)
	if guid == "" {
		return nil, fmt.Errorf("chat guid required")
	}
	// Dot segments survive escaping and would be collapsed into a different route.
	if guid == "." || guid == ".." {
		return nil, fmt.Errorf("invalid chat guid %q", guid)
	}
	// GUIDs such as "iMessage;-;+15551234567" need escaping to stay one path segment.
	escaped := url.PathEscape(guid)
	return &url.URL{
		Path:    "/chats/" + guid + "/" + leaf,
		RawPath: "/chats/" + escaped + "/" + leaf,
	}, nil
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = defaultBackendAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend addr %q: %w", addr, err)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
