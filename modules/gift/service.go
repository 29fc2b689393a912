package gift

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/giftify/giftapi/common/model"
	"github.com/giftify/giftapi/store"
)

// Service is the higher-level interface for the Giftify API. Reads go
// through the query store (typed, subscribable, deduplicated); mutations
// are optimistic with rollback on failure.
type Service interface {
	// Wishlist
	GetMyWishlist(ctx context.Context, token *oauth2.Token) (model.Wishlist, error)
	GetWishlist(ctx context.Context, memberID string, token *oauth2.Token) (model.Wishlist, error)
	AddWishItem(ctx context.Context, token *oauth2.Token, req model.WishItemCreateRequest) (*model.WishItem, error)
	RemoveWishItem(ctx context.Context, token *oauth2.Token, itemID string) error
	UpdateWishlistVisibility(ctx context.Context, token *oauth2.Token, visibility model.WishlistVisibility) (*model.Wishlist, error)
	GetFriendsWishlists(ctx context.Context, token *oauth2.Token, limit int) (*model.FriendWishlistListResponse, error)

	// Cart
	GetCart(ctx context.Context, token *oauth2.Token) (model.Cart, error)
	AddCartItem(ctx context.Context, token *oauth2.Token, req model.CartItemCreateRequest) (*model.CartItem, error)
	UpdateCartItem(ctx context.Context, token *oauth2.Token, itemID string, req model.CartItemUpdateRequest) error
	ToggleCartItemSelection(ctx context.Context, token *oauth2.Token, itemID string, selected bool) error
	RemoveCartItem(ctx context.Context, token *oauth2.Token, itemID string) error
	ClearCart(ctx context.Context, token *oauth2.Token) error

	// Wallet
	GetWallet(ctx context.Context, token *oauth2.Token) (model.Wallet, error)
	GetWalletHistory(ctx context.Context, token *oauth2.Token, txType model.TransactionType, page, size int) (model.PagedResult[model.WalletTransaction], error)
	ChargeWallet(ctx context.Context, token *oauth2.Token, amount int64) error
	WithdrawWallet(ctx context.Context, token *oauth2.Token, amount int64) (*model.WalletWithdrawResponse, error)

	// Orders
	CreateOrder(ctx context.Context, token *oauth2.Token, sub *OrderSubmission) (*model.Order, error)
	GetOrder(ctx context.Context, token *oauth2.Token, orderID string) (*model.OrderDetail, error)
	ListOrders(ctx context.Context, token *oauth2.Token, page, size int) (*model.OrderListResponse, error)

	// Products
	ListProducts(ctx context.Context, query model.ProductQuery) (*model.ProductListResponse, error)
	SearchProducts(ctx context.Context, q string, query model.ProductQuery) (*model.ProductListResponse, error)
	GetProduct(ctx context.Context, productID string) (*model.ProductDetail, error)
	GetPopularProducts(ctx context.Context, limit int) (*model.PopularProductsResponse, error)

	// Members
	GetMember(ctx context.Context, token *oauth2.Token, memberID string) (*model.MemberPublic, error)
	UpdateMember(ctx context.Context, token *oauth2.Token, memberID string, req model.MemberUpdateRequest) (*model.Member, error)
	SignupMember(ctx context.Context, token *oauth2.Token, req model.MemberUpdateRequest) (*model.Member, error)
	GetMemberFriends(ctx context.Context, token *oauth2.Token, memberID string, page, size int) (*model.MemberListResponse, error)

	// Store exposes the underlying query store so consumers can subscribe
	// to cache keys (see Key* constants).
	Store() *store.Store
}

// Query-store keys for resources managed through optimistic mutation.
const (
	KeyMyWishlist = "wishlists:me"
	KeyCart       = "carts:me"
	KeyWallet     = "wallet:balance"
)

// KeyWishlist is the store key for another member's wishlist.
func KeyWishlist(memberID string) string {
	return "wishlists:" + memberID
}

// giftService is the concrete implementation that uses Client.
type giftService struct {
	client Client
	store  *store.Store
	logger *slog.Logger
}

// NewService constructs a Service on top of the given Client and query
// store. A nil logger disables logging.
func NewService(client Client, st *store.Store, logger *slog.Logger) Service {
	if logger == nil {
		logger = discardLogger()
	}
	return &giftService{
		client: client,
		store:  st,
		logger: logger,
	}
}

func (s *giftService) Store() *store.Store {
	return s.store
}

// jsonBody renders a request body for POST/PATCH calls.
func jsonBody(v interface{}) (*bytes.Reader, error) {
	data, err := model.JSONMarshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// parseOptional unmarshals a response body into T, treating an empty body
// as "no authoritative value" (nil).
func parseOptional[T any](data []byte) (*T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out T
	if err := model.JSONUnmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
