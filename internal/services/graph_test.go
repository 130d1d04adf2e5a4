package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/reelx/internal/shared"
)

func newGraphTestServer(t *testing.T, handler http.HandlerFunc) *GraphService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewGraphService(shared.GraphConfig{BaseURL: server.URL + "/", APIKey: "hm_key", DeploymentID: "dep"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return srv
}

func TestGraphService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Missing API Key", func(t *testing.T) {
			_, err := NewGraphService(shared.GraphConfig{BaseURL: "http://x"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Base URL", func(t *testing.T) {
			_, err := NewGraphService(shared.GraphConfig{APIKey: "k"}, nil)
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})

	t.Run("Run", func(t *testing.T) {
		t.Run("Sends Graph Request", func(t *testing.T) {
			srv := newGraphTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/graphs/run" {
					t.Errorf("expected path /graphs/run, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "ApiKey hm_key" {
					t.Errorf("unexpected Authorization header %q", got)
				}

				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}
				if body["id"] != "graph-1" || body["deploymentId"] != "dep" || body["prompt"] != "coffee shop" {
					t.Errorf("unexpected body %v", body)
				}
				if history, ok := body["chatHistory"].([]any); !ok || len(history) != 0 {
					t.Errorf("expected empty chatHistory, got %v", body["chatHistory"])
				}
				if v, ok := body["projectId"]; !ok || v != nil {
					t.Errorf("expected null projectId, got %v", v)
				}

				w.Write([]byte(`{"message":"Graph executed successfully","result":{"node_outputs":{"post":"Fresh brew!","obj":{"a":1}}}}`))
			})

			result, err := srv.Run(context.Background(), "graph-1", "coffee shop")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if text, ok := result.Output("post"); !ok || text != "Fresh brew!" {
				t.Errorf("expected unquoted string output, got %q", text)
			}
			if text, _ := result.Output("obj"); text != `{"a":1}` {
				t.Errorf("expected raw object output, got %q", text)
			}
			if _, ok := result.Output("missing"); ok {
				t.Error("expected missing node to report false")
			}
			if ids := result.NodeIDs(); len(ids) != 2 || ids[0] != "obj" {
				t.Errorf("unexpected node ids %v", ids)
			}
			if outputs := result.Outputs(); outputs["post"] != "Fresh brew!" {
				t.Errorf("unexpected outputs %v", outputs)
			}
		})

		t.Run("Unsuccessful Message", func(t *testing.T) {
			srv := newGraphTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"message":"Graph failed","result":{}}`))
			})

			_, err := srv.Run(context.Background(), "graph-1", "prompt")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			srv := newGraphTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusBadGateway)
			})

			_, err := srv.Run(context.Background(), "graph-1", "prompt")
			var se *StatusError
			if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
				t.Errorf("expected StatusError 502, got %v", err)
			}
		})

		t.Run("Empty Prompt", func(t *testing.T) {
			srv := newGraphTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})

			if _, err := srv.Run(context.Background(), "graph-1", "  "); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})
}
