package store

import (
	"context"
	"time"

	"discovery-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// shopAddressRow is the flat scan target for shop + address joins.
type shopAddressRow struct {
	ShopID    int64     `db:"shop_id"`
	ShopName  string    `db:"shop_name"`
	OwnerID   *int64    `db:"owner_id"`
	ShopCity  *string   `db:"shop_city"`
	ShopImage *string   `db:"shop_image"`
	CreatedAt time.Time `db:"created_at"`
	AddressID *int64    `db:"address_id"`
	AddrCity  *string   `db:"addr_city"`
	Area      *string   `db:"area"`
	Landmark  *string   `db:"landmark"`
	Pincode   *string   `db:"pincode"`
	Latitude  *float64  `db:"latitude"`
	Longitude *float64  `db:"longitude"`
}

func (r shopAddressRow) toModel() models.ShopWithAddress {
	out := models.ShopWithAddress{
		Shop: models.Shop{
			ID:        r.ShopID,
			Name:      r.ShopName,
			OwnerID:   r.OwnerID,
			City:      r.ShopCity,
			Image:     r.ShopImage,
			CreatedAt: r.CreatedAt,
		},
	}
	if r.AddressID != nil {
		out.Address = &models.ShopAddress{
			ID:        *r.AddressID,
			ShopID:    r.ShopID,
			City:      r.AddrCity,
			Area:      r.Area,
			Landmark:  r.Landmark,
			Pincode:   r.Pincode,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		}
	}
	return out
}

const shopAddressColumns = `
	s.shop_id, s.shop_name, s.owner_id, s.city AS shop_city, s.shop_image, s.created_at,
	a.address_id, a.city AS addr_city, a.area, a.landmark, a.pincode, a.latitude, a.longitude
	FROM shops s`

// ListShopsWithAddresses retrieves every shop with its address when present
func (s *Store) ListShopsWithAddresses(ctx context.Context) ([]models.ShopWithAddress, error) {
	var rows []shopAddressRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+shopAddressColumns+" LEFT JOIN shop_address a ON a.shop_id = s.shop_id ORDER BY s.shop_id")
	if err != nil {
		return nil, err
	}
	out := make([]models.ShopWithAddress, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SearchShopsByName retrieves addressed shops whose name contains the query,
// case-insensitively
func (s *Store) SearchShopsByName(ctx context.Context, q string) ([]models.ShopWithAddress, error) {
	var rows []shopAddressRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+shopAddressColumns+
			" JOIN shop_address a ON a.shop_id = s.shop_id WHERE s.shop_name ILIKE '%' || $1 || '%' ORDER BY s.shop_id", q)
	if err != nil {
		return nil, err
	}
	out := make([]models.ShopWithAddress, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ShopsByCityExact retrieves shops whose shop-level city equals the given
// city, case-insensitively
func (s *Store) ShopsByCityExact(ctx context.Context, city string) ([]models.Shop, error) {
	var shops []models.Shop
	err := s.db.SelectContext(ctx, &shops,
		"SELECT shop_id, shop_name, city, shop_image FROM shops WHERE LOWER(city) = LOWER($1) ORDER BY shop_id", city)
	return shops, err
}

// CityExists reports whether any shop resolves to the given city
func (s *Store) CityExists(ctx context.Context, city string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM shops s
			LEFT JOIN shop_address a ON a.shop_id = s.shop_id
			WHERE s.city ILIKE '%' || $1 || '%' OR a.city ILIKE '%' || $1 || '%'
		)`, city)
	return exists, err
}

// OffersByShopIDs retrieves all offers listed by the given shops
func (s *Store) OffersByShopIDs(ctx context.Context, shopIDs []int64) ([]models.Offer, error) {
	if len(shopIDs) == 0 {
		return []models.Offer{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT shop_product_id, shop_id, product_id, price, stock FROM shop_product WHERE shop_id IN (?) ORDER BY shop_product_id",
		shopIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var offers []models.Offer
	err = s.db.SelectContext(ctx, &offers, query, args...)
	return offers, err
}

type shopOfferRow struct {
	ShopProductID int64    `db:"shop_product_id"`
	ShopID        int64    `db:"shop_id"`
	ProductID     int64    `db:"product_id"`
	Price         *float64 `db:"price"`
	Stock         *int     `db:"stock"`
	ShopName      string   `db:"shop_name"`
}

// OffersByProductID retrieves all offers for a product across shops,
// including out-of-stock ones
func (s *Store) OffersByProductID(ctx context.Context, productID int64) ([]models.ShopOffer, error) {
	var rows []shopOfferRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT sp.shop_product_id, sp.shop_id, sp.product_id, sp.price, sp.stock, s.shop_name
		FROM shop_product sp
		JOIN shops s ON s.shop_id = sp.shop_id
		WHERE sp.product_id = $1
		ORDER BY sp.shop_product_id`, productID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ShopOffer, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ShopOffer{
			Offer: models.Offer{
				ID:        r.ShopProductID,
				ShopID:    r.ShopID,
				ProductID: r.ProductID,
				Price:     r.Price,
				Stock:     r.Stock,
			},
			ShopName: r.ShopName,
		})
	}
	return out, nil
}

type cityOfferRow struct {
	ProductID     int64     `db:"product_id"`
	ProductName   string    `db:"product_name"`
	Brand         *string   `db:"brand"`
	Description   *string   `db:"description"`
	Color         *string   `db:"color"`
	ImageURL      *string   `db:"image_url"`
	CreatedAt     time.Time `db:"created_at"`
	ShopProductID int64     `db:"shop_product_id"`
	ShopID        int64     `db:"shop_id"`
	Price         *float64  `db:"price"`
	Stock         *int      `db:"stock"`
	City          *string   `db:"city"`
}

// OffersInCity retrieves in-stock offers from shops located in the given
// city. The shop-level city is preferred, falling back to the address city.
func (s *Store) OffersInCity(ctx context.Context, city string) ([]models.CityOffer, error) {
	var rows []cityOfferRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT p.product_id, p.product_name, p.brand, p.description, p.color,
		       (SELECT pi.image_url FROM product_images pi
		        WHERE pi.product_id = p.product_id
		        ORDER BY pi.image_id LIMIT 1) AS image_url,
		       p.created_at,
		       sp.shop_product_id, sp.shop_id, sp.price, sp.stock,
		       COALESCE(s.city, a.city) AS city
		FROM products p
		JOIN shop_product sp ON sp.product_id = p.product_id
		JOIN shops s ON s.shop_id = sp.shop_id
		LEFT JOIN shop_address a ON a.shop_id = sp.shop_id
		WHERE (s.city ILIKE '%' || $1 || '%' OR a.city ILIKE '%' || $1 || '%')
		  AND sp.stock IS NOT NULL AND sp.stock > 0
		ORDER BY sp.shop_product_id`, city)
	if err != nil {
		return nil, err
	}
	out := make([]models.CityOffer, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.CityOffer{
			Product: models.Product{
				ID:          r.ProductID,
				Name:        r.ProductName,
				Brand:       r.Brand,
				Description: r.Description,
				Color:       r.Color,
				ImageURL:    r.ImageURL,
				CreatedAt:   r.CreatedAt,
			},
			Offer: models.Offer{
				ID:        r.ShopProductID,
				ShopID:    r.ShopID,
				ProductID: r.ProductID,
				Price:     r.Price,
				Stock:     r.Stock,
			},
			City: r.City,
		})
	}
	return out, nil
}

// UpsertOffer creates or updates a shop's listing of a product; at most one
// offer exists per (shop, product) pair
func (s *Store) UpsertOffer(ctx context.Context, offer *models.Offer) error {
	return s.db.GetContext(ctx, &offer.ID, `
		INSERT INTO shop_product (shop_id, product_id, price, stock)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shop_id, product_id)
		DO UPDATE SET price = EXCLUDED.price, stock = EXCLUDED.stock
		RETURNING shop_product_id`,
		offer.ShopID, offer.ProductID, offer.Price, offer.Stock)
}

// ListSearchTerms retrieves every recorded search term
func (s *Store) ListSearchTerms(ctx context.Context) ([]string, error) {
	var terms []string
	err := s.db.SelectContext(ctx, &terms,
		"SELECT search_item FROM search_history ORDER BY history_id")
	return terms, err
}

// AppendSearchHistory appends one search-history row
func (s *Store) AppendSearchHistory(ctx context.Context, userID *int64, term string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO search_history (user_id, search_item, timestamp) VALUES ($1, $2, $3)",
		userID, term, at)
	return err
}
