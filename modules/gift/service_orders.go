package gift

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common/model"
)

// OrderSubmission is one logical checkout action. Its idempotency key is
// fixed at construction, so retrying the same submission (after a timeout
// or a 5xx) cannot create a second order. Build a new submission only for
// a genuinely new user action.
type OrderSubmission struct {
	IdempotencyKey string
	Request        model.OrderCreateRequest
}

// NewOrderSubmission assigns a fresh idempotency key to a checkout action.
func NewOrderSubmission(req model.OrderCreateRequest) *OrderSubmission {
	return &OrderSubmission{
		IdempotencyKey: uuid.NewString(),
		Request:        req,
	}
}

// CreateOrder posts the submission to POST /api/v2/orders with its
// Idempotency-Key header. On success the cached cart and wallet are
// invalidated, since checkout consumed them server-side.
func (s *giftService) CreateOrder(ctx context.Context, token *oauth2.Token, sub *OrderSubmission) (*model.Order, error) {
	body, err := jsonBody(sub.Request)
	if err != nil {
		return nil, err
	}

	data, err := s.client.PostJSONIdempotent(ctx, "api/v2/orders", token, body,
		sub.IdempotencyKey, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var order model.Order
	if err := model.JSONUnmarshal(data, &order); err != nil {
		return nil, err
	}

	s.store.Invalidate(KeyCart)
	s.store.Invalidate(KeyWallet)
	s.logger.Debug("order created", "orderId", order.ID, "idempotencyKey", sub.IdempotencyKey)
	return &order, nil
}

// GetOrder fetches a single order detail. This is a single attempt; the
// checkout completion machine owns the retry budget around it.
func (s *giftService) GetOrder(ctx context.Context, token *oauth2.Token, orderID string) (*model.OrderDetail, error) {
	var detail model.OrderDetail
	if err := s.client.GetJSONFresh(ctx, fmt.Sprintf("api/v2/orders/%s", orderID), &detail, token, nil); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListOrders fetches the order history page.
func (s *giftService) ListOrders(ctx context.Context, token *oauth2.Token, page, size int) (*model.OrderListResponse, error) {
	params := map[string]string{}
	if page >= 0 {
		params["page"] = strconv.Itoa(page)
	}
	if size > 0 {
		params["size"] = strconv.Itoa(size)
	}
	var resp model.OrderListResponse
	if err := s.client.GetJSONFresh(ctx, "api/v2/orders", &resp, token, params); err != nil {
		return nil, err
	}
	return &resp, nil
}
