package service

import (
	"context"

	"discovery-service/internal/models"
)

// Catalog is the read boundary the discovery engine works against,
// implemented by store.Store. Ranking code only ever sees typed records.
type Catalog interface {
	SearchProductsByName(ctx context.Context, q string) ([]models.Product, error)
	SearchProductsByCategory(ctx context.Context, q string) ([]models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	ProductExists(ctx context.Context, id int64) (bool, error)

	ListShopsWithAddresses(ctx context.Context) ([]models.ShopWithAddress, error)
	SearchShopsByName(ctx context.Context, q string) ([]models.ShopWithAddress, error)
	ShopsByCityExact(ctx context.Context, city string) ([]models.Shop, error)
	CityExists(ctx context.Context, city string) (bool, error)

	OffersByShopIDs(ctx context.Context, shopIDs []int64) ([]models.Offer, error)
	OffersByProductID(ctx context.Context, productID int64) ([]models.ShopOffer, error)
	OffersInCity(ctx context.Context, city string) ([]models.CityOffer, error)

	ListSearchTerms(ctx context.Context) ([]string, error)
}

// HistoryRecorder is the append-only sink for search-history events,
// implemented by broker.EventPublisher. Recording is best-effort: a failure
// never fails the search that produced the event.
type HistoryRecorder interface {
	PublishSearchPerformed(ctx context.Context, userID *int64, term string) error
}
