//go:build e2e

// Package e2e drives a running MindMirror stack through its public HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// baseURL returns the service under test or skips when it is unreachable.
func baseURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	url := env("MINDMIRROR_API", "http://localhost:8000")
	if err := ping(url + "/v0/health"); err != nil {
		t.Skipf("service %s unreachable: %v", url, err)
	}
	return url
}

func ping(url string) error {
	r, err := http.Get(url)
	if err != nil {
		return err
	}
	r.Body.Close()
	if r.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", r.StatusCode)
	}
	return nil
}

// mustJSON decodes a 2xx response into v or fails the test.
func mustJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if resp == nil {
		t.Fatalf("nil response")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("http %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

// waitForHealthy polls the health banner until status is "healthy".
func waitForHealthy(t *testing.T, url string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/v0/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			var data struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&data); err == nil && data.Status == "healthy" {
				_ = resp.Body.Close()
				return
			}
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("mindmirror not healthy within %s", timeout)
}

// uploadAudio posts a tiny fake recording for userID.
func uploadAudio(t *testing.T, url, userID, filename string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio_file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte("RIFF\x00\x00\x00\x00WAVE"))
	_ = mw.WriteField("user_id", userID)
	_ = mw.Close()

	resp, err := http.Post(url+"/api/analyze", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return resp
}

func deleteUser(url, userID string) {
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/users/%s/entries", url, userID), nil)
	if resp, err := http.DefaultClient.Do(req); err == nil {
		_ = resp.Body.Close()
	}
}
