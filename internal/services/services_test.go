package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/reelx/internal/shared"
	tu "github.com/desertthunder/reelx/internal/testing"
)

func TestStatusError(t *testing.T) {
	t.Run("Unwraps To API Request", func(t *testing.T) {
		err := error(&StatusError{Service: "studio", StatusCode: 500, Body: "boom"})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected StatusError to unwrap to ErrAPIRequest")
		}
		if !strings.Contains(err.Error(), "status 500: boom") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Truncates Long Bodies", func(t *testing.T) {
		err := &StatusError{Service: "studio", StatusCode: 502, Body: strings.Repeat("x", 500)}
		if !strings.HasSuffix(err.Error(), "...") {
			t.Errorf("expected truncated body, got %q", err.Error())
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			code int
			want bool
		}{
			{400, false},
			{404, false},
			{429, true},
			{500, true},
			{503, true},
		}
		for _, tt := range tests {
			if got := (&StatusError{StatusCode: tt.code}).IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable(%d) = %v, want %v", tt.code, got, tt.want)
			}
		}
	})
}

func TestSend(t *testing.T) {
	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		req, _ := newJSONRequest(context.Background(), http.MethodGet, "http://example.com", nil)

		_, err := send(client, "studio", req)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: make(http.Header)}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		req, _ := newJSONRequest(context.Background(), http.MethodGet, "http://example.com", nil)

		_, err := send(client, "studio", req)
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected read failure, got %v", err)
		}
	})

	t.Run("Non 2xx", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusTeapot, Body: io.NopCloser(strings.NewReader("short and stout")), Header: make(http.Header)}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		req, _ := newJSONRequest(context.Background(), http.MethodGet, "http://example.com", nil)

		_, err := send(client, "studio", req)
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusTeapot || se.Body != "short and stout" {
			t.Errorf("expected StatusError 418, got %v", err)
		}
	})

	t.Run("Decode Failure Wraps ErrParse", func(t *testing.T) {
		var v struct{}
		if err := decode("studio", []byte("not json"), &v); !errors.Is(err, shared.ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})
}
