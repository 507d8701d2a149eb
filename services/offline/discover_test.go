package offline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const indexPage = `<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="/static/styles.css">
  <link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Inter&display=swap">
  <link rel="preload" as="font" href="https://cdnjs.cloudflare.com/webfonts/fa-solid-900.woff2">
  <script src="/static/main.js"></script>
</head>
<body></body>
</html>`

func TestDiscoverAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(indexPage))
	}))
	defer srv.Close()

	assets, err := DiscoverAssets(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("DiscoverAssets err: %v", err)
	}

	want := []string{
		"/static/styles.css",
		"https://fonts.googleapis.com/css2?family=Inter&display=swap",
		"/static/main.js",
		"https://cdnjs.cloudflare.com/webfonts/fa-solid-900.woff2",
	}
	if len(assets) != len(want) {
		t.Fatalf("expected %d assets, got %v", len(want), assets)
	}
	found := make(map[string]bool, len(assets))
	for _, a := range assets {
		found[a] = true
	}
	for _, w := range want {
		if !found[w] {
			t.Fatalf("missing asset %s in %v", w, assets)
		}
	}
}

func TestDiscoverAssetsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := DiscoverAssets(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 index page")
	}
}
