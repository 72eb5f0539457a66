package models

import "time"

// Product is a catalog product. Brand, description, color and category are
// optional and stay nil when the catalog has no value for them.
type Product struct {
	ID           int64     `db:"product_id" json:"product_id"`
	Name         string    `db:"product_name" json:"product_name"`
	Brand        *string   `db:"brand" json:"brand"`
	Description  *string   `db:"description" json:"description"`
	Color        *string   `db:"color" json:"color"`
	CategoryID   *int64    `db:"category_id" json:"category_id,omitempty"`
	CategoryName *string   `db:"category_name" json:"category,omitempty"`
	ImageURL     *string   `db:"image_url" json:"image_url"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Shop is a catalog shop. City is the shop-level city column; the address
// city is the fallback when it is empty.
type Shop struct {
	ID        int64     `db:"shop_id" json:"shop_id"`
	Name      string    `db:"shop_name" json:"shop_name"`
	OwnerID   *int64    `db:"owner_id" json:"owner_id,omitempty"`
	City      *string   `db:"city" json:"city"`
	Image     *string   `db:"shop_image" json:"shop_image"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ShopAddress is the at-most-one address of a shop. A shop missing either
// coordinate is never a geospatial candidate.
type ShopAddress struct {
	ID        int64    `db:"address_id" json:"address_id"`
	ShopID    int64    `db:"shop_id" json:"shop_id"`
	City      *string  `db:"city" json:"city"`
	Area      *string  `db:"area" json:"area"`
	Landmark  *string  `db:"landmark" json:"landmark"`
	Pincode   *string  `db:"pincode" json:"pincode"`
	Latitude  *float64 `db:"latitude" json:"latitude"`
	Longitude *float64 `db:"longitude" json:"longitude"`
}

// Offer is one shop's listing of one product (at most one per pair).
type Offer struct {
	ID        int64    `db:"shop_product_id" json:"shop_product_id"`
	ShopID    int64    `db:"shop_id" json:"shop_id"`
	ProductID int64    `db:"product_id" json:"product_id"`
	Price     *float64 `db:"price" json:"price"`
	Stock     *int     `db:"stock" json:"stock"`
}

// InStock reports whether the offer counts for in-stock discovery views.
func (o Offer) InStock() bool {
	return o.Stock != nil && *o.Stock > 0
}

// SearchHistory is one append-only search event row.
type SearchHistory struct {
	ID         int64     `db:"history_id" json:"history_id"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	SearchItem string    `db:"search_item" json:"search_item"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
}

// ProductSummary is the public shape of a ranked product. Scores never leave
// the ranking layer.
type ProductSummary struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Brand       *string `json:"brand"`
	Color       *string `json:"color"`
	ImageURL    *string `json:"image_url"`
}

// ProductCitySummary extends ProductSummary with the retained offer's price,
// stock and resolved city for city-scoped discovery.
type ProductCitySummary struct {
	ProductSummary
	Price *float64 `json:"price"`
	Stock *int     `json:"stock"`
	City  *string  `json:"city"`
}

// ProductCategorySummary extends ProductSummary with the resolved category
// name for category search results.
type ProductCategorySummary struct {
	ProductSummary
	Category *string `json:"category"`
}

// ShopSummary is the public shape of a matched shop.
type ShopSummary struct {
	ShopID   int64   `json:"shop_id"`
	ShopName string  `json:"shop_name"`
	City     *string `json:"city"`
	Area     *string `json:"area"`
	Image    *string `json:"shop_image"`
}

// ShopDistanceSummary extends ShopSummary with the distance from the query
// point, rounded to two decimals.
type ShopDistanceSummary struct {
	ShopSummary
	DistanceKm float64 `json:"distance_km"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
}

// OfferPrice is one row of the raw price-comparison view for a product.
// Out-of-stock offers are included here on purpose.
type OfferPrice struct {
	ShopID   int64    `json:"shop_id"`
	ShopName string   `json:"shop_name"`
	Price    *float64 `json:"price"`
	Stock    *int     `json:"stock"`
}

// ShopWithAddress pairs a shop with its address, nil when it has none.
type ShopWithAddress struct {
	Shop    Shop
	Address *ShopAddress
}

// ResolvedCity returns the shop-level city, falling back to the address city.
func (s ShopWithAddress) ResolvedCity() *string {
	if s.Shop.City != nil && *s.Shop.City != "" {
		return s.Shop.City
	}
	if s.Address != nil {
		return s.Address.City
	}
	return nil
}

// Coordinates returns the address coordinates, ok only when both are set.
func (s ShopWithAddress) Coordinates() (lat, lon float64, ok bool) {
	if s.Address == nil || s.Address.Latitude == nil || s.Address.Longitude == nil {
		return 0, 0, false
	}
	return *s.Address.Latitude, *s.Address.Longitude, true
}

// CityOffer is one in-stock offer joined with its product and the shop's
// resolved city, as produced by the city-scoped catalog query.
type CityOffer struct {
	Product Product
	Offer   Offer
	City    *string
}

// ShopOffer is an offer joined with its shop's name for the price-comparison
// view.
type ShopOffer struct {
	Offer    Offer
	ShopName string
}
