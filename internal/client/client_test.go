package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func translateServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func run(ctx context.Context, input string, opts Options) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(ctx, strings.NewReader(input), &stdout, &stderr, opts)
	return code, stdout.String(), stderr.String()
}

func TestRun_Success(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
			return
		}
		received = req["text"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translation": "Hello"}`))
	}))
	defer server.Close()

	code, stdout, stderr := run(context.Background(), "  こんにちは\n", Options{ServerURL: server.URL + "/translate"})

	if code != ExitOK {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	if stdout != "Hello\n" {
		t.Errorf("expected 'Hello\\n', got %q", stdout)
	}
	if stderr != "" {
		t.Errorf("expected empty stderr, got %q", stderr)
	}
	if received != "こんにちは" {
		t.Errorf("expected trimmed text to be sent, got %q", received)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	var hits int32
	server := translateServer(t, http.StatusOK, `{"translation":"x"}`, &hits)
	defer server.Close()

	for _, input := range []string{"", "   \n\t"} {
		code, stdout, stderr := run(context.Background(), input, Options{ServerURL: server.URL})

		if code != ExitError {
			t.Errorf("input %q: expected exit 1, got %d", input, code)
		}
		if stdout != "" {
			t.Errorf("input %q: expected no stdout, got %q", input, stdout)
		}
		if !strings.Contains(stderr, "No input provided") {
			t.Errorf("input %q: unexpected stderr %q", input, stderr)
		}
	}

	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("expected no network call, got %d", hits)
	}
}

func TestRun_Unreachable(t *testing.T) {
	server := translateServer(t, http.StatusOK, `{}`, nil)
	url := server.URL + "/translate"
	server.Close()

	code, stdout, stderr := run(context.Background(), "こんにちは", Options{ServerURL: url, Timeout: time.Second})

	if code != ExitError {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "Could not connect") || !strings.Contains(stderr, url) {
		t.Errorf("expected address in connection error, got %q", stderr)
	}
	if !strings.Contains(stderr, "Details:") {
		t.Errorf("expected failure details, got %q", stderr)
	}
}

func TestRun_ServerError(t *testing.T) {
	server := translateServer(t, http.StatusInternalServerError, `{"detail":"An error occurred: boom"}`, nil)
	defer server.Close()

	code, _, stderr := run(context.Background(), "こんにちは", Options{ServerURL: server.URL})

	if code != ExitError {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "Could not connect") || !strings.Contains(stderr, "500") {
		t.Errorf("expected status in error, got %q", stderr)
	}
	if !strings.Contains(stderr, "An error occurred: boom") {
		t.Errorf("expected server detail in error, got %q", stderr)
	}
}

func TestRun_UnexpectedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing field", body: `{}`},
		{name: "other field", body: `{"result":"Hello"}`},
		{name: "not json", body: `Hello`},
		{name: "null translation", body: `{"translation":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := translateServer(t, http.StatusOK, tt.body, nil)
			defer server.Close()

			code, stdout, stderr := run(context.Background(), "こんにちは", Options{ServerURL: server.URL})

			if code != ExitError {
				t.Fatalf("expected exit 1, got %d", code)
			}
			if stdout != "" {
				t.Errorf("expected no stdout, got %q", stdout)
			}
			if !strings.Contains(stderr, "unexpected response") {
				t.Errorf("expected unexpected response message, got %q", stderr)
			}
			if !strings.Contains(stderr, tt.body) {
				t.Errorf("expected raw body %q in stderr, got %q", tt.body, stderr)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRun_StdinError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), failingReader{}, &stdout, &stderr, Options{ServerURL: "http://127.0.0.1:1"})

	if code != ExitError {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "broken pipe") {
		t.Errorf("expected read error in stderr, got %q", stderr.String())
	}
}

func TestClient_Translate_Errors(t *testing.T) {
	server := translateServer(t, http.StatusOK, `{}`, nil)
	defer server.Close()

	_, err := New(Options{ServerURL: server.URL}).Translate(context.Background(), "猫")

	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	if respErr.Body != "{}" {
		t.Errorf("expected raw body, got %q", respErr.Body)
	}
}
