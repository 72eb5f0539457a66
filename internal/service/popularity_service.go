package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"discovery-service/internal/geo"
	"discovery-service/internal/models"
	"discovery-service/internal/util"

	"go.uber.org/zap"
)

const (
	historyHitWeight  = 5.0
	availabilityBonus = 20.0
	refreshLimitKey   = "popular-refresh"
)

// FrequencyCache caches the search-term frequency table and rate-limits its
// recomputation, implemented by redisclient.Client.
type FrequencyCache interface {
	GetTermFrequencies(ctx context.Context) (map[string]int64, error)
	WarmTermFrequencies(ctx context.Context, freq map[string]int64, ttl time.Duration) error
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// PopularityService ranks products by historical search-term frequency,
// optionally blended with nearby availability.
type PopularityService struct {
	catalog         Catalog
	cache           FrequencyCache
	logger          *zap.Logger
	defaultRadiusKm float64
	defaultLimit    int
	refreshRPM      int
	freqTTL         time.Duration
}

// NewPopularityService creates a new popularity service. cache may be nil,
// in which case every call scans the catalog history.
func NewPopularityService(catalog Catalog, cache FrequencyCache, defaultRadiusKm float64, defaultLimit, refreshRPM, freqTTLSeconds int) *PopularityService {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 5.0
	}
	if defaultLimit <= 0 {
		defaultLimit = 12
	}
	return &PopularityService{
		catalog:         catalog,
		cache:           cache,
		logger:          util.GetLogger(),
		defaultRadiusKm: defaultRadiusKm,
		defaultLimit:    defaultLimit,
		refreshRPM:      refreshRPM,
		freqTTL:         time.Duration(freqTTLSeconds) * time.Second,
	}
}

// PopularProducts returns the top products by search frequency. Each exact
// case-folded history hit on a product's name is worth 5 points; having at
// least one offer in a shop within the radius of the center adds a flat 20.
func (ps *PopularityService) PopularProducts(ctx context.Context, lat, lon *float64, radiusKm float64, limit int) ([]models.ProductSummary, error) {
	ctx, span := util.StartSpan(ctx, "PopularityService.PopularProducts")
	defer span.End()

	if lat != nil && lon != nil {
		if err := validateCoordinates(*lat, *lon); err != nil {
			return nil, err
		}
	}
	if radiusKm <= 0 {
		radiusKm = ps.defaultRadiusKm
	}
	if limit <= 0 {
		limit = ps.defaultLimit
	}

	util.SearchesTotal.WithLabelValues("popular").Inc()
	start := time.Now()

	products, err := ps.catalog.ListProducts(ctx)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("popular", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	freq, err := ps.termFrequencies(ctx)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("popular", "catalog_error").Inc()
		return nil, err
	}

	available, err := ps.nearbyProductSet(ctx, lat, lon, radiusKm)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("popular", "catalog_error").Inc()
		return nil, err
	}

	type scored struct {
		summary models.ProductSummary
		score   float64
	}
	ranked := make([]scored, 0, len(products))
	for _, p := range products {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		score := float64(freq[name]) * historyHitWeight
		if available != nil && available[p.ID] {
			score += availabilityBonus
		}
		ranked = append(ranked, scored{summary: toProductSummary(p), score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]models.ProductSummary, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.summary)
	}

	ps.observe(start, len(out))
	return out, nil
}

// termFrequencies returns the case-folded term frequency table, preferring
// the cache and falling back to a full history scan. The cache warm after a
// cold read is rate limited; a throttled warm only delays caching, never the
// response.
func (ps *PopularityService) termFrequencies(ctx context.Context) (map[string]int64, error) {
	if ps.cache != nil {
		freq, err := ps.cache.GetTermFrequencies(ctx)
		if err != nil {
			ps.logger.Warn("Frequency cache read failed, falling back to catalog", zap.Error(err))
		} else if freq != nil {
			util.PopularCacheHits.Inc()
			return freq, nil
		}
		util.PopularCacheMisses.Inc()
	}

	terms, err := ps.catalog.ListSearchTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list search terms: %w", err)
	}

	freq := make(map[string]int64, len(terms))
	for _, term := range terms {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" {
			continue
		}
		freq[key]++
	}

	if ps.cache != nil {
		ps.warmCache(ctx, freq)
	}
	return freq, nil
}

func (ps *PopularityService) warmCache(ctx context.Context, freq map[string]int64) {
	allowed, err := ps.cache.Allow(ctx, refreshLimitKey, ps.refreshRPM, time.Minute)
	if err != nil {
		ps.logger.Warn("Rate limiter check failed, skipping cache warm", zap.Error(err))
		return
	}
	if !allowed {
		util.PopularRefreshThrottled.Inc()
		return
	}
	if err := ps.cache.WarmTermFrequencies(ctx, freq, ps.freqTTL); err != nil {
		ps.logger.Warn("Failed to warm frequency cache", zap.Error(err))
	}
}

// nearbyProductSet returns the set of product IDs with at least one offer in
// a shop within radiusKm of the center, or nil when no center was given.
func (ps *PopularityService) nearbyProductSet(ctx context.Context, lat, lon *float64, radiusKm float64) (map[int64]bool, error) {
	if lat == nil || lon == nil {
		return nil, nil
	}

	shops, err := ps.catalog.ListShopsWithAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	shopIDs := make([]int64, 0)
	for _, sh := range shops {
		shopLat, shopLon, ok := sh.Coordinates()
		if !ok {
			continue
		}
		if geo.WithinRadius(shopLat, shopLon, *lat, *lon, radiusKm) {
			shopIDs = append(shopIDs, sh.Shop.ID)
		}
	}

	available := make(map[int64]bool)
	if len(shopIDs) == 0 {
		return available, nil
	}

	offers, err := ps.catalog.OffersByShopIDs(ctx, shopIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	for _, o := range offers {
		available[o.ProductID] = true
	}
	return available, nil
}

func (ps *PopularityService) observe(start time.Time, results int) {
	util.SearchLatency.WithLabelValues("popular").Observe(time.Since(start).Seconds())
	util.SearchResultCount.WithLabelValues("popular").Observe(float64(results))
}
