package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"discovery-service/internal/geo"
	"discovery-service/internal/match"
	"discovery-service/internal/models"
	"discovery-service/internal/util"

	"go.uber.org/zap"
)

// Ranking-engine constants. The no-query proximity score deliberately keeps
// the original 50 − price formula, including its negative values for items
// priced above the offset.
const (
	brandBonus         = 12.0
	categoryBonus      = 10.0
	noQueryPriceOffset = 50.0
)

var cityPattern = regexp.MustCompile(`^[\p{L}]+[\p{L} .'\-]*$`)

// DiscoveryService ranks products and shops for text, city-scoped and
// proximity discovery. It is stateless: every call is a bounded sequence of
// catalog reads plus an optional fire-and-forget history event.
type DiscoveryService struct {
	catalog         Catalog
	history         HistoryRecorder
	logger          *zap.Logger
	defaultRadiusKm float64
}

// NewDiscoveryService creates a new discovery service. history may be nil
// when no event sink is configured.
func NewDiscoveryService(catalog Catalog, history HistoryRecorder, defaultRadiusKm float64) *DiscoveryService {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 5.0
	}
	return &DiscoveryService{
		catalog:         catalog,
		history:         history,
		logger:          util.GetLogger(),
		defaultRadiusKm: defaultRadiusKm,
	}
}

// SearchProducts ranks catalog products against a free-text query. When an
// actor is known the query is recorded as a search-history event.
func (s *DiscoveryService) SearchProducts(ctx context.Context, q string, userID *int64) ([]models.ProductSummary, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.SearchProducts")
	defer span.End()

	util.SearchesTotal.WithLabelValues("text").Inc()
	start := time.Now()

	products, err := s.catalog.SearchProductsByName(ctx, q)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("text", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	s.recordSearch(ctx, userID, q)

	type scored struct {
		summary models.ProductSummary
		score   float64
	}
	ranked := make([]scored, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, scored{
			summary: toProductSummary(p),
			score:   scoreProduct(p, q),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]models.ProductSummary, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.summary)
	}

	s.observe("text", start, len(out))
	return out, nil
}

// SearchShops ranks shops by how well their name matches the query.
func (s *DiscoveryService) SearchShops(ctx context.Context, q string) ([]models.ShopSummary, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.SearchShops")
	defer span.End()

	util.SearchesTotal.WithLabelValues("shops").Inc()
	start := time.Now()

	shops, err := s.catalog.SearchShopsByName(ctx, q)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("shops", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to search shops: %w", err)
	}

	type scored struct {
		summary models.ShopSummary
		score   float64
	}
	ranked := make([]scored, 0, len(shops))
	for _, sh := range shops {
		ranked = append(ranked, scored{
			summary: toShopSummary(sh),
			score:   match.Score(sh.Shop.Name, q),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]models.ShopSummary, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.summary)
	}

	s.observe("shops", start, len(out))
	return out, nil
}

// SearchByCategory ranks products whose resolved category name contains the
// query, scored by how well the category itself matches. No brand or category
// bonuses apply here: the category is the match target, not a booster.
func (s *DiscoveryService) SearchByCategory(ctx context.Context, q string) ([]models.ProductCategorySummary, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.SearchByCategory")
	defer span.End()

	util.SearchesTotal.WithLabelValues("category").Inc()
	start := time.Now()

	products, err := s.catalog.SearchProductsByCategory(ctx, q)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("category", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to search by category: %w", err)
	}

	type scored struct {
		summary models.ProductCategorySummary
		score   float64
	}
	ranked := make([]scored, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, scored{
			summary: models.ProductCategorySummary{
				ProductSummary: toProductSummary(p),
				Category:       p.CategoryName,
			},
			score: match.Score(deref(p.CategoryName), q),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]models.ProductCategorySummary, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.summary)
	}

	s.observe("category", start, len(out))
	return out, nil
}

// SearchNearbyProducts ranks offers from shops within radiusKm of the given
// point. Without coordinates it degrades to a plain text search. With a
// query, offers score like text search; without one, cheaper in-radius items
// rank higher. Each product appears once, keeping its highest-scoring offer.
func (s *DiscoveryService) SearchNearbyProducts(ctx context.Context, q string, lat, lon *float64, radiusKm float64) ([]models.ProductSummary, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.SearchNearbyProducts")
	defer span.End()

	if lat == nil || lon == nil {
		return s.SearchProducts(ctx, q, nil)
	}
	if err := validateCoordinates(*lat, *lon); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}

	util.SearchesTotal.WithLabelValues("proximity").Inc()
	start := time.Now()

	shopIDs, err := s.nearbyShopIDs(ctx, *lat, *lon, radiusKm)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("proximity", "catalog_error").Inc()
		return nil, err
	}
	if len(shopIDs) == 0 {
		s.observe("proximity", start, 0)
		return []models.ProductSummary{}, nil
	}

	offers, err := s.catalog.OffersByShopIDs(ctx, shopIDs)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("proximity", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	productIDs := make([]int64, 0, len(offers))
	seen := make(map[int64]bool, len(offers))
	for _, o := range offers {
		if !seen[o.ProductID] {
			seen[o.ProductID] = true
			productIDs = append(productIDs, o.ProductID)
		}
	}

	products, err := s.catalog.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("proximity", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}
	productMap := make(map[int64]models.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	hasQuery := strings.TrimSpace(q) != ""

	type scored struct {
		summary models.ProductSummary
		score   float64
	}
	best := make(map[int64]scored, len(productIDs))
	order := make([]int64, 0, len(productIDs))
	for _, o := range offers {
		p, ok := productMap[o.ProductID]
		if !ok {
			continue
		}

		var total float64
		if hasQuery {
			total = scoreProduct(p, q)
		} else {
			price := 0.0
			if o.Price != nil {
				price = *o.Price
			}
			total = noQueryPriceOffset - price
		}

		cur, exists := best[o.ProductID]
		if !exists {
			order = append(order, o.ProductID)
		}
		if !exists || total > cur.score {
			best[o.ProductID] = scored{summary: toProductSummary(p), score: total}
		}
	}

	ranked := make([]scored, 0, len(order))
	for _, pid := range order {
		ranked = append(ranked, best[pid])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]models.ProductSummary, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.summary)
	}

	s.observe("proximity", start, len(out))
	return out, nil
}

// ProductsInCity lists in-stock products available in shops of the given
// city, one row per product keeping the cheapest offer. An optional query is
// a hard name/brand/description filter, not a soft score.
func (s *DiscoveryService) ProductsInCity(ctx context.Context, city, q string) ([]models.ProductCitySummary, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.ProductsInCity")
	defer span.End()

	city, err := validateCity(city)
	if err != nil {
		return nil, err
	}

	util.SearchesTotal.WithLabelValues("city").Inc()
	start := time.Now()

	exists, err := s.catalog.CityExists(ctx, city)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("city", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to check city: %w", err)
	}
	if !exists {
		util.SearchesFailedTotal.WithLabelValues("city", "city_not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	rows, err := s.catalog.OffersInCity(ctx, city)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("city", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to list city offers: %w", err)
	}

	ql := strings.ToLower(strings.TrimSpace(q))
	best := make(map[int64]models.ProductCitySummary, len(rows))
	order := make([]int64, 0, len(rows))
	for _, row := range rows {
		if ql != "" && !productTextContains(row.Product, ql) {
			continue
		}

		item := models.ProductCitySummary{
			ProductSummary: toProductSummary(row.Product),
			Price:          row.Offer.Price,
			Stock:          row.Offer.Stock,
			City:           row.City,
		}

		cur, exists := best[row.Product.ID]
		if !exists {
			best[row.Product.ID] = item
			order = append(order, row.Product.ID)
			continue
		}
		if item.Price != nil && (cur.Price == nil || *item.Price < *cur.Price) {
			best[row.Product.ID] = item
		}
	}

	out := make([]models.ProductCitySummary, 0, len(order))
	for _, pid := range order {
		out = append(out, best[pid])
	}

	s.observe("city", start, len(out))
	return out, nil
}

// NearbyShops lists shops within radiusKm of the given point, closest first.
func (s *DiscoveryService) NearbyShops(ctx context.Context, lat, lon, radiusKm float64) ([]models.ShopDistanceSummary, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.NearbyShops")
	defer span.End()

	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}

	util.SearchesTotal.WithLabelValues("nearby_shops").Inc()
	start := time.Now()

	shops, err := s.catalog.ListShopsWithAddresses(ctx)
	if err != nil {
		util.SearchesFailedTotal.WithLabelValues("nearby_shops", "catalog_error").Inc()
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	out := make([]models.ShopDistanceSummary, 0)
	for _, sh := range shops {
		shopLat, shopLon, ok := sh.Coordinates()
		if !ok {
			continue
		}
		distance := geo.DistanceKm(shopLat, shopLon, lat, lon)
		if distance > radiusKm {
			continue
		}
		summary := toShopSummary(sh)
		out = append(out, models.ShopDistanceSummary{
			ShopSummary: summary,
			DistanceKm:  math.Round(distance*100) / 100,
			Latitude:    shopLat,
			Longitude:   shopLon,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})

	s.observe("nearby_shops", start, len(out))
	return out, nil
}

// ShopsByCity lists shops whose shop-level city equals the given city.
func (s *DiscoveryService) ShopsByCity(ctx context.Context, city string) ([]models.ShopSummary, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.ShopsByCity")
	defer span.End()

	city, err := validateCity(city)
	if err != nil {
		return nil, err
	}

	shops, err := s.catalog.ShopsByCityExact(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops by city: %w", err)
	}

	out := make([]models.ShopSummary, 0, len(shops))
	for _, sh := range shops {
		out = append(out, models.ShopSummary{
			ShopID:   sh.ID,
			ShopName: sh.Name,
			City:     sh.City,
			Image:    sh.Image,
		})
	}
	return out, nil
}

// ProductPrices is the raw price-comparison view for one product: every
// offer across shops, cheapest first, nil prices last, out-of-stock
// included.
func (s *DiscoveryService) ProductPrices(ctx context.Context, productID int64) ([]models.OfferPrice, error) {
	ctx, span := util.StartSpan(ctx, "DiscoveryService.ProductPrices")
	defer span.End()

	exists, err := s.catalog.ProductExists(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	offers, err := s.catalog.OffersByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product offers: %w", err)
	}

	out := make([]models.OfferPrice, 0, len(offers))
	for _, o := range offers {
		out = append(out, models.OfferPrice{
			ShopID:   o.Offer.ShopID,
			ShopName: o.ShopName,
			Price:    o.Offer.Price,
			Stock:    o.Offer.Stock,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Price == nil) != (out[j].Price == nil) {
			return out[i].Price != nil
		}
		if out[i].Price == nil {
			return false
		}
		return *out[i].Price < *out[j].Price
	})

	return out, nil
}

// nearbyShopIDs resolves the geospatial candidate shop set. Shops missing
// either coordinate never match.
func (s *DiscoveryService) nearbyShopIDs(ctx context.Context, lat, lon, radiusKm float64) ([]int64, error) {
	shops, err := s.catalog.ListShopsWithAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	ids := make([]int64, 0)
	for _, sh := range shops {
		shopLat, shopLon, ok := sh.Coordinates()
		if !ok {
			continue
		}
		if geo.WithinRadius(shopLat, shopLon, lat, lon, radiusKm) {
			ids = append(ids, sh.Shop.ID)
		}
	}
	return ids, nil
}

// recordSearch publishes the search term for the history worker. Failures
// are logged and swallowed: losing a history row never fails a search.
func (s *DiscoveryService) recordSearch(ctx context.Context, userID *int64, term string) {
	if s.history == nil || userID == nil {
		return
	}
	if err := s.history.PublishSearchPerformed(ctx, userID, term); err != nil {
		util.HistoryEventsDropped.Inc()
		s.logger.Warn("Failed to publish search history event",
			zap.Int64("user_id", *userID),
			zap.Error(err))
		return
	}
	util.HistoryEventsPublished.Inc()
}

func (s *DiscoveryService) observe(mode string, start time.Time, results int) {
	util.SearchLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	util.SearchResultCount.WithLabelValues(mode).Observe(float64(results))
}

// scoreProduct fuses the lexical name score with the brand and category
// bonuses.
func scoreProduct(p models.Product, q string) float64 {
	total := match.Score(p.Name, q)
	ql := strings.ToLower(q)
	if strings.Contains(strings.ToLower(deref(p.Brand)), ql) {
		total += brandBonus
	}
	if strings.Contains(strings.ToLower(deref(p.CategoryName)), ql) {
		total += categoryBonus
	}
	return total
}

// productTextContains reports whether the folded query occurs in the
// product's name, brand or description.
func productTextContains(p models.Product, ql string) bool {
	return strings.Contains(strings.ToLower(p.Name), ql) ||
		strings.Contains(strings.ToLower(deref(p.Brand)), ql) ||
		strings.Contains(strings.ToLower(deref(p.Description)), ql)
}

func validateCity(city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" || !cityPattern.MatchString(city) {
		return "", fmt.Errorf("%w: invalid city format", ErrInvalidInput)
	}
	return city, nil
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	return nil
}

func toProductSummary(p models.Product) models.ProductSummary {
	return models.ProductSummary{
		ProductID:   p.ID,
		ProductName: p.Name,
		Brand:       p.Brand,
		Color:       p.Color,
		ImageURL:    p.ImageURL,
	}
}

func toShopSummary(sh models.ShopWithAddress) models.ShopSummary {
	summary := models.ShopSummary{
		ShopID:   sh.Shop.ID,
		ShopName: sh.Shop.Name,
		City:     sh.ResolvedCity(),
		Image:    sh.Shop.Image,
	}
	if sh.Address != nil {
		summary.Area = sh.Address.Area
	}
	return summary
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
