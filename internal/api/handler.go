package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"discovery-service/internal/service"
	"discovery-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	discovery  *service.DiscoveryService
	popularity *service.PopularityService
}

// NewHandler creates a new HTTP handler
func NewHandler(discovery *service.DiscoveryService, popularity *service.PopularityService) *Handler {
	return &Handler{
		discovery:  discovery,
		popularity: popularity,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/search/products", h.searchProducts)
		v1.GET("/search/shops", h.searchShops)
		v1.GET("/search/categories", h.searchByCategory)
		v1.GET("/products/nearby", h.nearbyProducts)
		v1.GET("/products/in_city", h.productsInCity)
		v1.GET("/products/popular", h.popularProducts)
		v1.GET("/products/:id/prices", h.productPrices)
		v1.GET("/shops/nearby", h.nearbyShops)
		v1.GET("/shops/by_city", h.shopsByCity)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// searchProducts handles free-text product search
func (h *Handler) searchProducts(c *gin.Context) {
	q := c.Query("q")

	var userID *int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		userID = &id
	}

	out, err := h.discovery.SearchProducts(c.Request.Context(), q, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// searchShops handles free-text shop search
func (h *Handler) searchShops(c *gin.Context) {
	out, err := h.discovery.SearchShops(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// searchByCategory handles category-driven product search
func (h *Handler) searchByCategory(c *gin.Context) {
	out, err := h.discovery.SearchByCategory(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// nearbyProducts handles proximity product search
func (h *Handler) nearbyProducts(c *gin.Context) {
	lat, lon, err := optionalCoordinates(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	out, err := h.discovery.SearchNearbyProducts(c.Request.Context(), c.Query("q"), lat, lon, radiusParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// productsInCity handles city-scoped in-stock discovery
func (h *Handler) productsInCity(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing city"})
		return
	}

	out, err := h.discovery.ProductsInCity(c.Request.Context(), city, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// popularProducts handles popularity ranking
func (h *Handler) popularProducts(c *gin.Context) {
	lat, lon, err := optionalCoordinates(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
	}

	out, err := h.popularity.PopularProducts(c.Request.Context(), lat, lon, radiusParam(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// productPrices handles the raw price-comparison view
func (h *Handler) productPrices(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	out, err := h.discovery.ProductPrices(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// nearbyShops handles proximity shop listing
func (h *Handler) nearbyShops(c *gin.Context) {
	lat, lon, err := optionalCoordinates(c)
	if err != nil || lat == nil || lon == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid coordinates"})
		return
	}

	out, err := h.discovery.NearbyShops(c.Request.Context(), *lat, *lon, radiusParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// shopsByCity handles exact-city shop listing
func (h *Handler) shopsByCity(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing city"})
		return
	}

	out, err := h.discovery.ShopsByCity(c.Request.Context(), city)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// respondError maps service classification errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCityNotFound), errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed", "details": err.Error()})
	}
}

func optionalCoordinates(c *gin.Context) (lat, lon *float64, err error) {
	rawLat := c.Query("lat")
	rawLon := c.Query("lon")
	if rawLat == "" && rawLon == "" {
		return nil, nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, nil, errors.New("incomplete coordinate pair")
	}

	latV, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, nil, err
	}
	lonV, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, nil, err
	}
	return &latV, &lonV, nil
}

func radiusParam(c *gin.Context) float64 {
	raw := c.Query("radius_km")
	if raw == "" {
		return 0
	}
	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil || radius < 0 {
		return 0
	}
	return radius
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
