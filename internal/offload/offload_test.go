package offload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"telegram-fetch-bot/internal/utils"
)

func TestUpload(t *testing.T) {
	var gotPath string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	src := filepath.Join(t.TempDir(), "big video [abc].mp4")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := New(server.URL)
	target, err := client.Upload(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if string(gotBody) != "payload" {
		t.Errorf("body = %q", gotBody)
	}
	if gotPath == "/" || gotPath == "" {
		t.Errorf("upload path = %q", gotPath)
	}
	if target == "" {
		t.Error("no target URL returned")
	}
}

func TestUploadServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "full", http.StatusInsufficientStorage)
	}))
	defer server.Close()

	src := filepath.Join(t.TempDir(), "v.mp4")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := New(server.URL)
	if _, err := client.Upload(context.Background(), src); !errors.Is(err, utils.ErrUploadFailed) {
		t.Errorf("expected ErrUploadFailed, got %v", err)
	}
}

func TestUploadDisabled(t *testing.T) {
	client := New("")
	if client.Enabled() {
		t.Error("empty endpoint should disable offloading")
	}
	if _, err := client.Upload(context.Background(), "/tmp/x"); err == nil {
		t.Error("upload without endpoint should fail")
	}
}
