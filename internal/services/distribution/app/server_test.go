package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/takehome/internal/services/distribution/webhook"
)

func startTestServer(t *testing.T) (baseURL string) {
	t.Helper()

	server, err := New(Config{
		Port:          0,
		DBPath:        filepath.Join(t.TempDir(), "takehome.db"),
		GitHubOwner:   "composio",
		GitHubRepo:    "sdk-design-question",
		WebhookSecret: "shared-secret",
		BaseURL:       "http://localhost:8080",
		AssetMarker:   "sdk-challenge",
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return "http://" + server.Addr()
}

func waitForServer(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/up")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server never became ready")
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestServerInviteDownloadFlow(t *testing.T) {
	baseURL := startTestServer(t)
	waitForServer(t, baseURL)

	// Push a release through the signed webhook so downloads have an
	// artifact without reaching upstream.
	releaseBody := []byte(`{
		"action": "published",
		"release": {
			"tag_name": "v1.0",
			"name": "Challenge 1.0",
			"html_url": "https://github.test/releases/v1.0",
			"created_at": "2026-01-10T00:00:00Z",
			"assets": [
				{"name": "sdk-challenge-1.0.zip", "browser_download_url": "https://x/1.0.zip"}
			]
		}
	}`)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/webhook/release", bytes.NewReader(releaseBody))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(releaseBody, "shared-secret"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post webhook: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("webhook status = %d, want 200", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postJSON(t, baseURL+"/invite", `{"email":"a@b.com"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("invite status = %d, want 200", resp.StatusCode)
	}
	var invite struct {
		Success   bool `json:"success"`
		Candidate struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Token string `json:"token"`
		} `json:"candidate"`
	}
	decodeBody(t, resp, &invite)
	if !invite.Success || invite.Candidate.Token == "" {
		t.Fatalf("invite response = %+v", invite)
	}

	downloadURL := fmt.Sprintf("%s/download/%s", baseURL, invite.Candidate.Token)
	for i := 1; i <= 2; i++ {
		resp, err := http.Get(downloadURL)
		if err != nil {
			t.Fatalf("get download %d: %v", i, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("download status = %d, want 200", resp.StatusCode)
		}
		var result struct {
			Valid       bool   `json:"valid"`
			DownloadURL string `json:"downloadUrl"`
			Candidate   struct {
				Email  string `json:"email"`
				Status string `json:"status"`
			} `json:"candidate"`
		}
		decodeBody(t, resp, &result)
		if !result.Valid || result.DownloadURL != "https://x/1.0.zip" {
			t.Fatalf("download %d response = %+v", i, result)
		}
		if result.Candidate.Status != "downloaded" {
			t.Fatalf("download %d status = %q", i, result.Candidate.Status)
		}
	}

	resp, err = http.Get(baseURL + "/candidates")
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	var entries []struct {
		Email         string `json:"email"`
		Status        string `json:"status"`
		DownloadCount int    `json:"download_count"`
	}
	decodeBody(t, resp, &entries)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Status != "downloaded" || entries[0].DownloadCount != 2 {
		t.Fatalf("entry = %+v", entries[0])
	}
}

func TestServerRejectsUnknownToken(t *testing.T) {
	baseURL := startTestServer(t)
	waitForServer(t, baseURL)

	resp, err := http.Get(baseURL + "/download/not-a-real-token")
	if err != nil {
		t.Fatalf("get download: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var result struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	decodeBody(t, resp, &result)
	if result.Valid || result.Error == "" {
		t.Fatalf("response = %+v", result)
	}

	resp, err = http.Get(baseURL + "/candidates")
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	var entries []json.RawMessage
	decodeBody(t, resp, &entries)
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

func TestServerRejectsUnsignedWebhook(t *testing.T) {
	baseURL := startTestServer(t)
	waitForServer(t, baseURL)

	resp := postJSON(t, baseURL+"/webhook/release", `{"action":"published","release":{"tag_name":"v1.0"}}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
