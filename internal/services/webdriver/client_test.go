package webdriver_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"custody/internal/services"
	"custody/internal/services/webdriver"
)

const elementKey = "element-6066-11e4-a52e-4f735466cecf"

func newFakeDriver(t *testing.T, handler http.HandlerFunc) *webdriver.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := webdriver.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func writeValue(w http.ResponseWriter, value any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := webdriver.New("  "); err == nil {
		t.Fatal("expected error when url missing")
	}
}

func TestSessionLifecycle(t *testing.T) {
	var deleted bool
	client := newFakeDriver(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/session":
			var payload struct {
				Capabilities struct {
					AlwaysMatch map[string]any `json:"alwaysMatch"`
				} `json:"capabilities"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode session request: %v", err)
			}
			if payload.Capabilities.AlwaysMatch["browserName"] != "chrome" {
				t.Fatalf("expected chrome capabilities, got %#v", payload.Capabilities.AlwaysMatch)
			}
			writeValue(w, map[string]any{"sessionId": "s-1"})
		case r.Method == http.MethodDelete && r.URL.Path == "/session/s-1":
			deleted = true
			writeValue(w, nil)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	ctx := context.Background()
	if err := client.NewSession(ctx, webdriver.SessionOptions{}); err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	if client.SessionID() != "s-1" {
		t.Fatalf("unexpected session id %q", client.SessionID())
	}
	if err := client.DeleteSession(ctx); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}
	if !deleted {
		t.Fatal("expected DELETE request")
	}
	if client.SessionID() != "" {
		t.Fatal("expected session id cleared")
	}
}

func TestNavigateRequiresSession(t *testing.T) {
	client := newFakeDriver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	if err := client.Navigate(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error without session")
	}
}

func TestFindElementsAndAttributes(t *testing.T) {
	client := newFakeDriver(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session":
			writeValue(w, map[string]any{"sessionId": "s-1"})
		case "/session/s-1/elements":
			writeValue(w, []map[string]string{{elementKey: "e-1"}, {elementKey: "e-2"}})
		case "/session/s-1/element/e-1/attribute/aria-label":
			writeValue(w, "Budget 2024.xlsx")
		case "/session/s-1/element/e-2/attribute/aria-label":
			writeValue(w, nil)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	ctx := context.Background()
	if err := client.NewSession(ctx, webdriver.SessionOptions{}); err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	elements, err := client.FindElements(ctx, webdriver.ByCSSSelector, "[aria-label]")
	if err != nil {
		t.Fatalf("FindElements returned error: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elements))
	}
	label, err := elements[0].Attribute(ctx, "aria-label")
	if err != nil {
		t.Fatalf("Attribute returned error: %v", err)
	}
	if label != "Budget 2024.xlsx" {
		t.Fatalf("unexpected label %q", label)
	}
	missing, err := elements[1].Attribute(ctx, "aria-label")
	if err != nil {
		t.Fatalf("Attribute returned error: %v", err)
	}
	if missing != "" {
		t.Fatalf("expected empty attribute, got %q", missing)
	}
}

func TestNoSuchElementMapsToNotFound(t *testing.T) {
	client := newFakeDriver(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session" {
			writeValue(w, map[string]any{"sessionId": "s-1"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		writeValue(w, map[string]string{"error": "no such element", "message": "unable to locate"})
	})

	ctx := context.Background()
	if err := client.NewSession(ctx, webdriver.SessionOptions{}); err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	_, err := client.FindElement(ctx, webdriver.ByCSSSelector, "#missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
}

func TestScreenshotDecodesPNG(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	client := newFakeDriver(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session":
			writeValue(w, map[string]any{"sessionId": "s-1"})
		case "/session/s-1/screenshot":
			writeValue(w, base64.StdEncoding.EncodeToString(raw))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	ctx := context.Background()
	if err := client.NewSession(ctx, webdriver.SessionOptions{}); err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	decoded, err := client.Screenshot(ctx)
	if err != nil {
		t.Fatalf("Screenshot returned error: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Fatalf("unexpected screenshot bytes %v", decoded)
	}
}

func TestExecuteScriptDecodesValue(t *testing.T) {
	client := newFakeDriver(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session":
			writeValue(w, map[string]any{"sessionId": "s-1"})
		case "/session/s-1/execute/sync":
			var payload struct {
				Script string `json:"script"`
				Args   []any  `json:"args"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode script request: %v", err)
			}
			if payload.Script == "" || payload.Args == nil {
				t.Fatalf("expected script and args, got %+v", payload)
			}
			writeValue(w, "Mar 3, 2024")
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	ctx := context.Background()
	if err := client.NewSession(ctx, webdriver.SessionOptions{}); err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	var out string
	if err := client.ExecuteScript(ctx, "return document.title", nil, &out); err != nil {
		t.Fatalf("ExecuteScript returned error: %v", err)
	}
	if out != "Mar 3, 2024" {
		t.Fatalf("unexpected script result %q", out)
	}
}
