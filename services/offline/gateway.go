// Package offline keeps the page shell servable without a live backend:
// a network-first, cache-fallback policy layered over a durable store of
// previously fetched responses.
package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"nova/utils/logging"
)

// ErrNotFound reports that no response is stored for a URL.
var ErrNotFound = errors.New("cached resource not found")

// Resource is one durable cached response, keyed by cache version and
// request URL.
type Resource struct {
	Version   string
	URL       string
	Status    int
	Header    http.Header
	Body      []byte
	FetchedAt time.Time
}

// ResourceStore persists cached responses across restarts.
type ResourceStore interface {
	Get(ctx context.Context, version, url string) (*Resource, error)
	Put(ctx context.Context, res *Resource) error
	PurgeExcept(ctx context.Context, version string) (int64, error)
}

const unavailableBody = "No hay conexión a internet. Por favor, verifica tu conexión."

// Gateway fronts the upstream shell server. GET requests go network-first
// with cache fallback; every other method is reverse-proxied untouched.
type Gateway struct {
	store    ResourceStore
	upstream *url.URL
	client   *http.Client
	version  string
	assets   []string
	proxy    *httputil.ReverseProxy
}

func NewGateway(store ResourceStore, upstream string, version string, assets []string, client *http.Client) (*Gateway, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Gateway{
		store:    store,
		upstream: target,
		client:   client,
		version:  version,
		assets:   assets,
		proxy:    httputil.NewSingleHostReverseProxy(target),
	}, nil
}

// Install pre-populates the store with every configured shell asset.
// All-or-nothing: one failed fetch fails the install.
func (g *Gateway) Install(ctx context.Context) error {
	defer logging.LogDuration(ctx, "offline_install")()

	for _, asset := range g.assets {
		if err := g.warm(ctx, asset); err != nil {
			return fmt.Errorf("install %s: %w", asset, err)
		}
	}
	logging.AppLogger.Info("offline cache installed",
		zap.String("version", g.version),
		zap.Int("assets", len(g.assets)))
	return nil
}

// Activate purges every stored cache version except the current one, so an
// old shell never serves after an update.
func (g *Gateway) Activate(ctx context.Context) error {
	purged, err := g.store.PurgeExcept(ctx, g.version)
	if err != nil {
		return fmt.Errorf("activate cache version %s: %w", g.version, err)
	}
	if purged > 0 {
		logging.AppLogger.Info("stale cache versions purged",
			zap.String("version", g.version),
			zap.Int64("entries", purged))
	}
	return nil
}

func (g *Gateway) warm(ctx context.Context, asset string) error {
	target := asset
	if strings.HasPrefix(asset, "/") {
		target = g.upstream.ResolveReference(&url.URL{Path: asset}).String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return g.store.Put(ctx, &Resource{
		Version:   g.version,
		URL:       asset,
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      body,
		FetchedAt: time.Now().UTC(),
	})
}

// ServeHTTP implements the interception policy. Fresh content always wins;
// the stored copy only serves when the network fetch itself fails.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.proxy.ServeHTTP(w, r)
		return
	}

	key := r.URL.RequestURI()
	target := g.upstream.ResolveReference(r.URL).String()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	req.Header = r.Header.Clone()

	resp, err := g.client.Do(req)
	if err != nil {
		g.serveFallback(w, r, key)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.serveFallback(w, r, key)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Overwrite the prior entry; last-known-good is always the most
		// recent successful fetch.
		if err := g.store.Put(r.Context(), &Resource{
			Version:   g.version,
			URL:       key,
			Status:    resp.StatusCode,
			Header:    resp.Header.Clone(),
			Body:      body,
			FetchedAt: time.Now().UTC(),
		}); err != nil {
			logging.ErrorLogger.Error("cache write failed",
				zap.String("url", key), zap.Error(err))
		}
	}

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

func (g *Gateway) serveFallback(w http.ResponseWriter, r *http.Request, key string) {
	stored, err := g.store.Get(r.Context(), g.version, key)
	if err != nil {
		logging.RequestLogger.Info("offline miss",
			zap.String("url", key))
		http.Error(w, unavailableBody, http.StatusServiceUnavailable)
		return
	}

	logging.RequestLogger.Info("served from offline cache",
		zap.String("url", key),
		zap.Time("fetched_at", stored.FetchedAt))
	copyHeader(w.Header(), stored.Header)
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}
