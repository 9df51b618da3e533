package domain

import "testing"

func TestMatchZipAsset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		assets  []Asset
		marker  string
		wantURL string
		wantOK  bool
	}{
		{
			name: "first match wins",
			assets: []Asset{
				{Name: "sdk-challenge-1.0.zip", BrowserDownloadURL: "https://x/1.0.zip"},
				{Name: "sdk-challenge-1.0-alt.zip", BrowserDownloadURL: "https://x/alt.zip"},
			},
			marker:  "sdk-challenge",
			wantURL: "https://x/1.0.zip",
			wantOK:  true,
		},
		{
			name: "skips non-zip and unmarked assets",
			assets: []Asset{
				{Name: "sdk-challenge-notes.txt", BrowserDownloadURL: "https://x/notes.txt"},
				{Name: "other-bundle.zip", BrowserDownloadURL: "https://x/other.zip"},
				{Name: "sdk-challenge-2.0.zip", BrowserDownloadURL: "https://x/2.0.zip"},
			},
			marker:  "sdk-challenge",
			wantURL: "https://x/2.0.zip",
			wantOK:  true,
		},
		{
			name: "no match is a normal outcome",
			assets: []Asset{
				{Name: "readme.md", BrowserDownloadURL: "https://x/readme"},
			},
			marker: "sdk-challenge",
			wantOK: false,
		},
		{
			name:   "empty asset list",
			marker: "sdk-challenge",
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			url, ok := MatchZipAsset(tc.assets, tc.marker)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if url != tc.wantURL {
				t.Fatalf("url = %q, want %q", url, tc.wantURL)
			}
		})
	}
}
