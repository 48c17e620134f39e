package webdriver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"custody/internal/services"
)

// W3C key codepoints used when typing into Drive's UI.
const (
	KeyEnter  = ""
	KeyEscape = ""
)

// Locator strategies accepted by FindElement.
const (
	ByCSSSelector = "css selector"
	ByXPath       = "xpath"
)

// webElementKey is the W3C element identifier field in responses.
const webElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Element is an opaque element reference scoped to one session.
type Element struct {
	client *Client
	id     string
}

// Client speaks the W3C WebDriver protocol to a running driver such as
// chromedriver. One Client manages at most one session.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

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

// New creates a client for the driver listening at baseURL. No session is
// started until NewSession is called.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("webdriver url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SessionOptions describes browser session parameters.
type SessionOptions struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int
}

// NewSession starts a browser session with Chrome capabilities matching the
// capture defaults.
func (c *Client) NewSession(ctx context.Context, opts SessionOptions) error {
	if c.sessionID != "" {
		return errors.New("session already active")
	}
	width, height := opts.WindowWidth, opts.WindowHeight
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}
	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		fmt.Sprintf("--window-size=%d,%d", width, height),
		"--disable-blink-features=AutomationControlled",
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	payload := map[string]any{
		"capabilities": map[string]any{
			"alwaysMatch": map[string]any{
				"browserName": "chrome",
				"goog:chromeOptions": map[string]any{
					"args":            args,
					"excludeSwitches": []string{"enable-automation"},
				},
			},
		},
	}

	var result struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/session", payload, &result); err != nil {
		return err
	}
	if result.SessionID == "" {
		return errors.New("driver returned empty session id")
	}
	c.sessionID = result.SessionID
	return nil
}

// DeleteSession closes the browser session if one is active.
func (c *Client) DeleteSession(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	err := c.do(ctx, http.MethodDelete, "/session/"+c.sessionID, nil, nil)
	c.sessionID = ""
	return err
}

// SessionID exposes the active session identifier for logging.
func (c *Client) SessionID() string { return c.sessionID }

// Navigate loads the given URL in the active session.
func (c *Client) Navigate(ctx context.Context, target string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/session/"+c.sessionID+"/url", map[string]string{"url": target}, nil)
}

// FindElement locates the first element matching the selector.
func (c *Client) FindElement(ctx context.Context, using, value string) (*Element, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result map[string]string
	err := c.do(ctx, http.MethodPost, "/session/"+c.sessionID+"/element",
		map[string]string{"using": using, "value": value}, &result)
	if err != nil {
		return nil, err
	}
	id := result[webElementKey]
	if id == "" {
		return nil, services.Wrap(services.ErrNotFound, "", "find element", value, nil)
	}
	return &Element{client: c, id: id}, nil
}

// FindElements locates every element matching the selector. An empty result
// is not an error.
func (c *Client) FindElements(ctx context.Context, using, value string) ([]*Element, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var result []map[string]string
	err := c.do(ctx, http.MethodPost, "/session/"+c.sessionID+"/elements",
		map[string]string{"using": using, "value": value}, &result)
	if err != nil {
		return nil, err
	}
	elements := make([]*Element, 0, len(result))
	for _, entry := range result {
		if id := entry[webElementKey]; id != "" {
			elements = append(elements, &Element{client: c, id: id})
		}
	}
	return elements, nil
}

// ExecuteScript runs JavaScript synchronously in the page and decodes the
// return value into out when out is non-nil.
func (c *Client) ExecuteScript(ctx context.Context, script string, args []any, out any) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if args == nil {
		args = []any{}
	}
	return c.do(ctx, http.MethodPost, "/session/"+c.sessionID+"/execute/sync",
		map[string]any{"script": script, "args": args}, out)
}

// Screenshot captures the viewport as PNG bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var encoded string
	if err := c.do(ctx, http.MethodGet, "/session/"+c.sessionID+"/screenshot", nil, &encoded); err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return decoded, nil
}

// SendKeysActive types into the currently focused element via the actions
// API. Used for dismissing panels with escape.
func (c *Client) SendKeysActive(ctx context.Context, text string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	actions := make([]map[string]any, 0, len(text)*2)
	for _, r := range text {
		key := string(r)
		actions = append(actions,
			map[string]any{"type": "keyDown", "value": key},
			map[string]any{"type": "keyUp", "value": key},
		)
	}
	payload := map[string]any{
		"actions": []map[string]any{{
			"type":    "key",
			"id":      "keyboard",
			"actions": actions,
		}},
	}
	return c.do(ctx, http.MethodPost, "/session/"+c.sessionID+"/actions", payload, nil)
}

// ContextClick right-clicks the element via the actions API.
func (c *Client) ContextClick(ctx context.Context, el *Element) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if el == nil {
		return errors.New("element required")
	}
	payload := map[string]any{
		"actions": []map[string]any{{
			"type": "pointer",
			"id":   "mouse",
			"parameters": map[string]string{
				"pointerType": "mouse",
			},
			"actions": []map[string]any{
				{"type": "pointerMove", "duration": 0, "origin": map[string]string{webElementKey: el.id}, "x": 0, "y": 0},
				{"type": "pointerDown", "button": 2},
				{"type": "pointerUp", "button": 2},
			},
		}},
	}
	return c.do(ctx, http.MethodPost, "/session/"+c.sessionID+"/actions", payload, nil)
}

// Text returns the rendered text of the element.
func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.client.do(ctx, http.MethodGet, e.path("/text"), nil, &text)
	return text, err
}

// Attribute returns the named attribute value, or "" when absent.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	var value *string
	if err := e.client.do(ctx, http.MethodGet, e.path("/attribute/"+name), nil, &value); err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// Click clicks the element.
func (e *Element) Click(ctx context.Context) error {
	return e.client.do(ctx, http.MethodPost, e.path("/click"), map[string]any{}, nil)
}

// Clear empties an editable element.
func (e *Element) Clear(ctx context.Context) error {
	return e.client.do(ctx, http.MethodPost, e.path("/clear"), map[string]any{}, nil)
}

// SendKeys types text into the element.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.client.do(ctx, http.MethodPost, e.path("/value"), map[string]string{"text": text}, nil)
}

func (e *Element) path(suffix string) string {
	return "/session/" + e.client.sessionID + "/element/" + e.id + suffix
}

func (c *Client) requireSession() error {
	if c.sessionID == "" {
		return errors.New("no active webdriver session")
	}
	return nil
}

// errorPayload models the W3C error response body.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "", "webdriver request", path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode webdriver response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var details errorPayload
		_ = json.Unmarshal(envelope.Value, &details)
		marker := services.ErrExternalTool
		switch details.Error {
		case "no such element":
			marker = services.ErrNotFound
		case "timeout", "script timeout":
			marker = services.ErrTimeout
		}
		message := details.Message
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return services.Wrap(marker, "", "webdriver "+method+" "+path, message, nil)
	}

	if out != nil && len(envelope.Value) > 0 && string(envelope.Value) != "null" {
		if err := json.Unmarshal(envelope.Value, out); err != nil {
			return fmt.Errorf("decode webdriver value: %w", err)
		}
	}
	return nil
}
