package gift

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/giftify/giftapi/common"
	"github.com/giftify/giftapi/common/model"
)

// ListProducts fetches the catalog page. Catalog responses go through the
// byte cache since they are identical for every caller.
func (s *giftService) ListProducts(ctx context.Context, query model.ProductQuery) (*model.ProductListResponse, error) {
	var resp model.ProductListResponse
	if err := s.client.GetJSON(ctx, "api/v2/products", &resp, nil, productParams(query)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchProducts runs a catalog search. An empty query is rejected locally
// and never reaches the network.
func (s *giftService) SearchProducts(ctx context.Context, q string, query model.ProductQuery) (*model.ProductListResponse, error) {
	if strings.TrimSpace(q) == "" {
		return nil, &common.ValidationError{Field: "q", Reason: "search query must not be empty"}
	}
	params := productParams(query)
	params["q"] = q

	var resp model.ProductListResponse
	if err := s.client.GetJSON(ctx, "api/v2/products/search", &resp, nil, params); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProduct fetches a single product detail.
func (s *giftService) GetProduct(ctx context.Context, productID string) (*model.ProductDetail, error) {
	var detail model.ProductDetail
	if err := s.client.GetJSON(ctx, fmt.Sprintf("api/v2/products/%s", productID), &detail, nil, nil); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetPopularProducts fetches the popular shelf. limit <= 0 means the
// server default.
func (s *giftService) GetPopularProducts(ctx context.Context, limit int) (*model.PopularProductsResponse, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	var resp model.PopularProductsResponse
	if err := s.client.GetJSON(ctx, "api/v2/products/popular", &resp, nil, params); err != nil {
		return nil, err
	}
	return &resp, nil
}

// productParams serializes the non-zero filter fields.
func productParams(query model.ProductQuery) map[string]string {
	params := map[string]string{}
	if query.Category != "" {
		params["category"] = query.Category
	}
	if query.MinPrice > 0 {
		params["minPrice"] = strconv.FormatInt(query.MinPrice, 10)
	}
	if query.MaxPrice > 0 {
		params["maxPrice"] = strconv.FormatInt(query.MaxPrice, 10)
	}
	if query.Sort != "" {
		params["sort"] = query.Sort
	}
	if query.Page > 0 {
		params["page"] = strconv.Itoa(query.Page)
	}
	if query.Size > 0 {
		params["size"] = strconv.Itoa(query.Size)
	}
	return params
}
