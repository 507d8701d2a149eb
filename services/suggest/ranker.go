// Package suggest merges remote-fetched quick suggestions with a static
// fallback set and ranks them against the user's partial input.
package suggest

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"nova/services/cache"
	httputils "nova/utils/http"
	"nova/utils/logging"
)

const (
	cacheKey       = "smart_suggestions"
	MaxSuggestions = 6
)

type Suggestion struct {
	Text     string `json:"text"`
	Icon     string `json:"icon"`
	Category string `json:"category,omitempty"`
}

// DefaultSuggestions is the static fallback set; always available, never
// expires.
func DefaultSuggestions() []Suggestion {
	return []Suggestion{
		{Text: "Ver ofertas del día", Icon: "percentage", Category: "promociones"},
		{Text: "Política de devoluciones", Icon: "exchange-alt", Category: "servicio"},
		{Text: "Métodos de pago", Icon: "credit-card", Category: "servicio"},
		{Text: "Guía de tallas", Icon: "ruler", Category: "informacion"},
		{Text: "Ubicación de tienda", Icon: "map-marker-alt", Category: "ubicacion"},
		{Text: "Horario de atención", Icon: "clock", Category: "informacion"},
		{Text: "Últimas novedades", Icon: "sparkles", Category: "productos"},
		{Text: "Ropa formal", Icon: "user-tie", Category: "productos"},
	}
}

// Ranker serves filtered suggestion lists. Remote suggestions live in the
// TTL cache and are refetched lazily after expiry; the static set is the
// permanent fallback.
type Ranker struct {
	endpoint string
	client   *http.Client
	cache    *cache.Cache[[]Suggestion]
	static   []Suggestion
}

func NewRanker(endpoint string, client *http.Client, ttl time.Duration, static []Suggestion) *Ranker {
	if client == nil {
		client = http.DefaultClient
	}
	if len(static) == 0 {
		static = DefaultSuggestions()
	}
	return &Ranker{
		endpoint: endpoint,
		client:   client,
		cache:    cache.New[[]Suggestion](ttl),
		static:   static,
	}
}

// LoadRemote returns the remote suggestion set, fetching it once per TTL
// window. Fetch failures are swallowed: suggestions are non-critical and
// degrade to the static list.
func (r *Ranker) LoadRemote(ctx context.Context) []Suggestion {
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached
	}

	var payload struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := httputils.GetJSON(ctx, r.client, r.endpoint, &payload); err != nil {
		logging.AppLogger.Debug("smart suggestions fetch failed", zap.Error(err))
		return nil
	}

	r.cache.Set(cacheKey, payload.Suggestions)
	return payload.Suggestions
}

// Filter returns up to MaxSuggestions entries relevant to query, remote
// entries before static ones. Prefix matches on the text outrank
// substring-only matches; the sort is stable so input order breaks ties.
func (r *Ranker) Filter(ctx context.Context, query string) []Suggestion {
	all := append(append([]Suggestion{}, r.LoadRemote(ctx)...), r.static...)

	query = strings.TrimSpace(query)
	if query == "" {
		return truncate(all, MaxSuggestions)
	}

	q := strings.ToLower(query)
	filtered := make([]Suggestion, 0, len(all))
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Text), q) ||
			(s.Category != "" && strings.Contains(strings.ToLower(s.Category), q)) {
			filtered = append(filtered, s)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		iPrefix := strings.HasPrefix(strings.ToLower(filtered[i].Text), q)
		jPrefix := strings.HasPrefix(strings.ToLower(filtered[j].Text), q)
		return iPrefix && !jPrefix
	})

	return truncate(filtered, MaxSuggestions)
}

func truncate(s []Suggestion, n int) []Suggestion {
	if len(s) > n {
		return s[:n]
	}
	return s
}
