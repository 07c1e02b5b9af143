package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func modelsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckOpenAICompat(t *testing.T) {
	srv := modelsServer(t, 200, `{"data":[{"id":"llama-4-maverick"},{"id":"qwen3"}]}`)

	s := Check(context.Background(), "openai", srv.URL, "key")
	if !s.Reachable {
		t.Fatalf("not reachable: %s", s.Error)
	}
	if len(s.Models) != 2 || s.Models[0] != "llama-4-maverick" {
		t.Errorf("models = %v", s.Models)
	}
}

func TestCheckAuthFailure(t *testing.T) {
	srv := modelsServer(t, 401, `{}`)

	s := Check(context.Background(), "openai", srv.URL, "bad")
	if s.Reachable {
		t.Errorf("401 endpoint reported reachable")
	}
	if s.Error == "" {
		t.Errorf("missing error message")
	}
}

func TestCheckUnknownProvider(t *testing.T) {
	s := Check(context.Background(), "smoke-signals", "", "")
	if s.Error == "" {
		t.Errorf("unknown provider type must error")
	}
}

func TestCheckModel(t *testing.T) {
	srv := modelsServer(t, 200, `{"data":[{"id":"present"}]}`)

	if err := CheckModel(context.Background(), "openai", srv.URL, "", "present"); err != nil {
		t.Errorf("present model rejected: %v", err)
	}
	if err := CheckModel(context.Background(), "openai", srv.URL, "", "absent"); err == nil {
		t.Errorf("absent model accepted")
	}
	if err := CheckModel(context.Background(), "anthropic", "", "", "any"); err != nil {
		t.Errorf("anthropic model check must be a no-op: %v", err)
	}
}
