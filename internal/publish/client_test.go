package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgallion1/doclabel/internal/engine"
)

func TestClient_Put(t *testing.T) {
	var got Payload
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	defer c.Close()
	err := c.Put(context.Background(), Payload{
		DocID:    "doc 1",
		Filename: "a.md",
		Result:   &engine.Result{Title: "A", Citations: map[string]string{"r": "[1]"}},
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
	if path != "/documents/doc 1/labels" {
		t.Errorf("unexpected path %q", path)
	}
	if got.DocID != "doc 1" || got.Result == nil || got.Result.Citations["r"] != "[1]" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestClient_PutStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		c := NewClient(srv.URL, "k")
		err := c.Put(context.Background(), Payload{DocID: "d", Result: &engine.Result{}})
		srv.Close()

		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
			continue
		}
		var re *RetryableError
		if errors.As(err, &re) != tt.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v", tt.status, tt.retryable, err)
		}
	}
}

func TestClient_DeleteIgnoresNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "k").Delete(context.Background(), "d"); err != nil {
		t.Errorf("expected nil error for 404, got %v", err)
	}
}

func TestRetryableError_Truncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	err := &RetryableError{StatusCode: 502, Message: string(long)}
	if len(err.Error()) > 260 {
		t.Errorf("expected truncated message, got %d chars", len(err.Error()))
	}
}
