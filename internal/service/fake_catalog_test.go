package service

import (
	"context"
	"errors"
	"strings"

	"discovery-service/internal/models"
)

// fakeCatalog is an in-memory Catalog mirroring the store's query semantics.
type fakeCatalog struct {
	products []models.Product
	shops    []models.ShopWithAddress
	offers   []models.Offer
	terms    []string

	failAll       bool
	termScanCalls int
}

var errCatalogDown = errors.New("catalog unavailable")

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f *fakeCatalog) SearchProductsByName(_ context.Context, q string) ([]models.Product, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	out := []models.Product{}
	for _, p := range f.products {
		if containsFold(p.Name, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchProductsByCategory(_ context.Context, q string) ([]models.Product, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	out := []models.Product{}
	for _, p := range f.products {
		if p.CategoryName != nil && containsFold(*p.CategoryName, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context) ([]models.Product, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	return append([]models.Product{}, f.products...), nil
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Product{}
	for _, p := range f.products {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ProductExists(_ context.Context, id int64) (bool, error) {
	if f.failAll {
		return false, errCatalogDown
	}
	for _, p := range f.products {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) ListShopsWithAddresses(_ context.Context) ([]models.ShopWithAddress, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	return append([]models.ShopWithAddress{}, f.shops...), nil
}

func (f *fakeCatalog) SearchShopsByName(_ context.Context, q string) ([]models.ShopWithAddress, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	out := []models.ShopWithAddress{}
	for _, sh := range f.shops {
		if sh.Address != nil && containsFold(sh.Shop.Name, q) {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ShopsByCityExact(_ context.Context, city string) ([]models.Shop, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	out := []models.Shop{}
	for _, sh := range f.shops {
		if sh.Shop.City != nil && strings.EqualFold(*sh.Shop.City, city) {
			out = append(out, sh.Shop)
		}
	}
	return out, nil
}

func (f *fakeCatalog) CityExists(_ context.Context, city string) (bool, error) {
	if f.failAll {
		return false, errCatalogDown
	}
	for _, sh := range f.shops {
		if sh.Shop.City != nil && containsFold(*sh.Shop.City, city) {
			return true, nil
		}
		if sh.Address != nil && sh.Address.City != nil && containsFold(*sh.Address.City, city) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) OffersByShopIDs(_ context.Context, shopIDs []int64) ([]models.Offer, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	want := make(map[int64]bool, len(shopIDs))
	for _, id := range shopIDs {
		want[id] = true
	}
	out := []models.Offer{}
	for _, o := range f.offers {
		if want[o.ShopID] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeCatalog) OffersByProductID(_ context.Context, productID int64) ([]models.ShopOffer, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	out := []models.ShopOffer{}
	for _, o := range f.offers {
		if o.ProductID != productID {
			continue
		}
		name := ""
		for _, sh := range f.shops {
			if sh.Shop.ID == o.ShopID {
				name = sh.Shop.Name
				break
			}
		}
		out = append(out, models.ShopOffer{Offer: o, ShopName: name})
	}
	return out, nil
}

func (f *fakeCatalog) OffersInCity(_ context.Context, city string) ([]models.CityOffer, error) {
	if f.failAll {
		return nil, errCatalogDown
	}
	out := []models.CityOffer{}
	for _, o := range f.offers {
		if !o.InStock() {
			continue
		}
		var shop *models.ShopWithAddress
		for i := range f.shops {
			if f.shops[i].Shop.ID == o.ShopID {
				shop = &f.shops[i]
				break
			}
		}
		if shop == nil {
			continue
		}

		inCity := shop.Shop.City != nil && containsFold(*shop.Shop.City, city)
		if !inCity && shop.Address != nil && shop.Address.City != nil {
			inCity = containsFold(*shop.Address.City, city)
		}
		if !inCity {
			continue
		}

		resolved := shop.Shop.City
		if resolved == nil && shop.Address != nil {
			resolved = shop.Address.City
		}

		for _, p := range f.products {
			if p.ID == o.ProductID {
				out = append(out, models.CityOffer{Product: p, Offer: o, City: resolved})
				break
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListSearchTerms(_ context.Context) ([]string, error) {
	f.termScanCalls++
	if f.failAll {
		return nil, errCatalogDown
	}
	return append([]string{}, f.terms...), nil
}

// fakeRecorder captures published search-history events.
type fakeRecorder struct {
	terms []string
	err   error
}

func (f *fakeRecorder) PublishSearchPerformed(_ context.Context, _ *int64, term string) error {
	if f.err != nil {
		return f.err
	}
	f.terms = append(f.terms, term)
	return nil
}

func strPtr(s string) *string { return &s }

func f64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func i64Ptr(v int64) *int64 { return &v }
