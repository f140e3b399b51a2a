package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q, want test-key", q.Get("api_key"))
		}
		if q.Get("url") != "https://target.test/page" {
			t.Errorf("url = %q", q.Get("url"))
		}
		if q.Get("render") != "true" {
			t.Error("render flag not set")
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	c := NewClient("test-key", server.URL, zap.NewNop())

	html, err := c.Fetch(context.Background(), "https://target.test/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if html != "<html>ok</html>" {
		t.Errorf("html = %q", html)
	}
}

func TestFetchNoKey(t *testing.T) {
	c := NewClient("", "http://unused", zap.NewNop())

	if _, err := c.Fetch(context.Background(), "https://target.test"); err == nil {
		t.Error("expected error without api key")
	}
}

func TestFetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient("test-key", server.URL, zap.NewNop())

	if _, err := c.Fetch(context.Background(), "https://target.test"); err == nil {
		t.Error("expected error on upstream 403")
	}
}

func TestFetchMultipleAbsorbsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "https://target.test/bad" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("page"))
	}))
	defer server.Close()

	c := NewClient("test-key", server.URL, zap.NewNop())

	results := c.FetchMultiple(context.Background(), []string{"https://target.test/good", "https://target.test/bad"})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results["https://target.test/good"] != "page" {
		t.Errorf("good page = %q", results["https://target.test/good"])
	}
	if results["https://target.test/bad"] != "" {
		t.Errorf("failed page = %q, want empty string", results["https://target.test/bad"])
	}
}
